package identity

import (
	"context"

	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// UserService handles profile and account administration
type UserService struct {
	userRepo identity.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CurrentRole returns the role stored for the account
func (s *UserService) CurrentRole(ctx context.Context, userID uuid.UUID) (identity.Role, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// GetProfile returns the caller's account
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// UpdateProfile changes the caller's display name
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(req.Name); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns a page of accounts for administrators
func (s *UserService) List(ctx context.Context, filter UserListFilter) (*UserListResponse, error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Role != "" {
		f = f.With("role", filter.Role)
	}

	users, err := s.userRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(users, total, f.Page, f.PageSize)
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return &UserListResponse{
		Users:      out,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// UpdateRole changes an account role. Administrators cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID uuid.UUID, req UpdateRoleRequest) (*UserResponse, error) {
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if actorID == userID && role != identity.RoleAdmin {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Administrators cannot remove their own admin role")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.PromoteTo(role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is taken.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	user, err := identity.NewUser(name, email, password)
	if err != nil {
		return false, err
	}
	if err := user.PromoteTo(identity.RoleAdmin); err != nil {
		return false, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}
