package auth

import (
	"testing"
	"time"

	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(GenerateTokenInput{
		UserID:    userID,
		Email:     "a@example.com",
		Authority: "ROLE_ADMIN",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token.AccessToken)
	require.NoError(t, err)

	got, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "a@example.com", claims.Subject)
	assert.True(t, claims.HasAuthority("ROLE_ADMIN"))
	assert.False(t, claims.HasAuthority("ROLE_USER"))
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.GetRemainingTTL(), 14*time.Minute)
}

func TestValidateAccessToken_Failures(t *testing.T) {
	svc := newTestJWTService()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", AccessTokenExpiration: time.Minute, Issuer: "test-issuer"})
		token, err := other.GenerateToken(GenerateTokenInput{UserID: uuid.New(), Email: "a@b.co"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", AccessTokenExpiration: -time.Minute, Issuer: "test-issuer"})
		token, err := expired.GenerateToken(GenerateTokenInput{UserID: uuid.New(), Email: "a@b.co"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", AccessTokenExpiration: time.Minute, Issuer: "elsewhere"})
		token, err := other.GenerateToken(GenerateTokenInput{UserID: uuid.New(), Email: "a@b.co"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			TokenType: TokenTypeAccess,
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(signed)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})
}

func TestGenerateToken_IssuedAtWholeMillisecond(t *testing.T) {
	svc := newTestJWTService()
	before := time.Now().UnixMilli()

	token, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New(), Email: "a@b.co"})
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token.AccessToken)
	require.NoError(t, err)

	iat := claims.GetIssuedAtTime()
	assert.Zero(t, iat.Nanosecond()%int(time.Millisecond))
	assert.GreaterOrEqual(t, iat.UnixMilli(), before)
	assert.LessOrEqual(t, iat.UnixMilli(), time.Now().UnixMilli())
}

func TestGetIssuedAtTime_KeepsMilliseconds(t *testing.T) {
	svc := newTestJWTService()
	base := time.Now().UnixMilli()

	// every millisecond offset of a second goes through the float parse
	for i := int64(0); i < 1000; i++ {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.New().String(),
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				IssuedAt:  jwt.NewNumericDate(time.UnixMilli(base + i)),
			},
			UserID:    uuid.New().String(),
			TokenType: TokenTypeAccess,
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		parsed, err := svc.ValidateAccessToken(signed)
		require.NoError(t, err)
		require.Equal(t, base+i, parsed.GetIssuedAtTime().UnixMilli(), "offset %d", i)
	}
}
