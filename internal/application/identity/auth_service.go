package identity

import (
	"context"
	"errors"
	"time"

	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartProvisioner creates the empty cart every new account starts with
type CartProvisioner interface {
	EnsureCart(ctx context.Context, userID uuid.UUID) error
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	carts      CartProvisioner
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	carts CartProvisioner,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		carts:      carts,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		logger:     logger,
	}
}

// Register creates a USER account, its cart and a token
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email already exists")
	}

	user, err := identity.NewUser(req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	// Registration still succeeds without a cart; Get on the cart creates it lazily.
	if s.carts != nil {
		if err := s.carts.EnsureCart(ctx, user.ID); err != nil {
			s.logger.Warn("Failed to create cart for new user",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	s.publish(ctx, user)
	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))

	return s.issue(user)
}

// Login verifies credentials and returns a token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email")
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, shared.ErrInvalidCredentials
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// ChangePassword verifies the current password, stores the new one and revokes
// every token issued before the change. A fresh token is returned.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	revokedAt := time.Now()
	if s.blacklist != nil {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), revokedAt, s.jwtService.GetExpiration()); err != nil {
			s.logger.Error("Failed to revoke tokens after password change",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	// iat has millisecond resolution; every token minted once the mark's
	// millisecond is over, the replacement included, postdates the mark
	time.Sleep(time.Until(time.UnixMilli(revokedAt.UnixMilli() + 1)))

	s.publish(ctx, user)
	return s.issue(user)
}

// Logout revokes the presented token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

func (s *AuthService) issue(user *identity.User) (*AuthResponse, error) {
	token, err := s.jwtService.GenerateToken(auth.GenerateTokenInput{
		UserID:    user.ID,
		Email:     user.Email,
		Authority: user.Authority(),
	})
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}
	return toAuthResponse(user, token.AccessToken, token.ExpiresAt), nil
}

func (s *AuthService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}
