package auth

import (
	"testing"
	"time"

	"github.com/disciplinario/backend/internal/infrastructure/config"
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

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(GenerateTokenInput{
		UserID: userID,
		Email:  "  Revisor@Empresa.com ",
		Role:   "revisor",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	claims, err := svc.ValidateAccessToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "revisor@empresa.com", claims.Email)
	assert.Equal(t, "revisor", claims.Role)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.RemainingTTL(), 14*time.Minute)
}

func TestJWTService_GenerateToken_RequiresEmail(t *testing.T) {
	_, err := newTestJWTService().GenerateToken(GenerateTokenInput{Role: "admin"})
	assert.ErrorIs(t, err, ErrMissingEmail)
}

func TestJWTService_ValidateAccessToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-of-32-characters",
			AccessTokenExpiration: time.Minute,
			Issuer:                "test-issuer",
		})
		token, err := other.GenerateToken(GenerateTokenInput{Email: "a@b.co"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.GenerateToken(GenerateTokenInput{Email: "a@b.co"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: time.Minute,
			Issuer:                "someone-else",
		})
		token, err := other.GenerateToken(GenerateTokenInput{Email: "a@b.co"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong token type", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			Email:     "a@b.co",
			TokenType: "refresh",
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(signed)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}
