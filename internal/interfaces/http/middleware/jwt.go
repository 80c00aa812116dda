package middleware

import (
	"errors"
	"strings"

	"github.com/disciplinario/backend/internal/infrastructure/auth"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// gin context keys set by OptionalJWTAuthMiddleware
const (
	JWTClaimsKey   = "jwt_claims"
	JWTEmailKey    = "jwt_email"
	authFailureKey = "jwt_failure"
)

const bearerPrefix = "Bearer "

var errNoBearer = errors.New("missing bearer token")

// TokenValidator checks a raw access token.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// OptionalJWTAuthMiddleware authenticates requests that carry a valid,
// unrevoked bearer token and lets every other request through as a guest.
// Why a presented token was rejected is kept for the role guards, which
// report it when they turn the guest away. A blacklist outage fails open.
func OptionalJWTAuthMiddleware(validator TokenValidator, blacklist auth.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c, validator, blacklist)
		switch {
		case err == nil:
			setClaims(c, claims)
		case !errors.Is(err, errNoBearer):
			c.Set(authFailureKey, err)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, validator TokenValidator, blacklist auth.TokenBlacklist) (*auth.Claims, error) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, errNoBearer
	}
	claims, err := validator.ValidateAccessToken(raw)
	if err != nil {
		return nil, err
	}
	if blacklist == nil || claims.ID == "" {
		return claims, nil
	}
	revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to check token blacklist",
			zap.String("jti", claims.ID), zap.Error(err))
		return claims, nil
	}
	if revoked {
		return nil, auth.ErrTokenRevoked
	}
	return claims, nil
}

// setClaims exposes the caller on the gin context and on the request
// context used for logging.
func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTEmailKey, claims.Email)
	c.Set(logger.GinUserEmailKey, claims.Email)
	c.Request = c.Request.WithContext(logger.WithUserEmail(c.Request.Context(), claims.Email))
}

// unauthenticated picks the 401 code and message for a guest, naming the
// token problem when one was presented.
func unauthenticated(c *gin.Context) (code, message string) {
	v, _ := c.Get(authFailureKey)
	err, _ := v.(error)
	switch {
	case err == nil:
		return dto.ErrCodeUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return dto.ErrCodeTokenRevoked, "Token has been revoked"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

// GetJWTClaims returns the authenticated caller's claims, or nil.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

// GetJWTEmail returns the authenticated email, or "" for guests.
func GetJWTEmail(c *gin.Context) string {
	return c.GetString(JWTEmailKey)
}
