package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disciplinario/backend/internal/domain/identity"
	"github.com/disciplinario/backend/internal/infrastructure/auth"
	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWTService(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: ttl,
		Issuer:                "test-issuer",
	})
}

func newTestJWTService() *auth.JWTService {
	return newJWTService(15 * time.Minute)
}

func newTestToken(t *testing.T, jwtService *auth.JWTService, email, role string) string {
	t.Helper()
	token, err := jwtService.GenerateToken(auth.GenerateTokenInput{
		UserID: uuid.New(),
		Email:  email,
		Role:   role,
	})
	require.NoError(t, err)
	return token.AccessToken
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

// failingBlacklist reports every lookup as a store outage.
type failingBlacklist struct{}

func (failingBlacklist) Revoke(context.Context, string, time.Duration) error { return nil }
func (failingBlacklist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func guardedRouter(validator TokenValidator, blacklist auth.TokenBlacklist, seen *string) *gin.Engine {
	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(validator, blacklist), ResolveRole(staticResolver{}))
	router.GET("/open", func(c *gin.Context) {
		*seen = GetJWTEmail(c)
		c.Status(http.StatusOK)
	})
	router.GET("/guarded", RequireRole(identity.RoleUser), func(c *gin.Context) {
		*seen = GetJWTEmail(c)
		c.Status(http.StatusOK)
	})
	return router
}

func get(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOptionalJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	token := newTestToken(t, jwtService, "ana@empresa.com", "revisor")

	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(jwtService, nil))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, "ana@empresa.com", claims.Email)
		assert.Equal(t, "ana@empresa.com", GetJWTEmail(c))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, get(router, "/test", "Bearer "+token).Code)
}

func TestOptionalJWTAuthMiddleware_GuestsPassUnguardedRoutes(t *testing.T) {
	var seen string
	router := guardedRouter(newTestJWTService(), nil, &seen)

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not-a-jwt"} {
		seen = "unset"
		w := get(router, "/open", header)
		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.Empty(t, seen, header)
	}
}

func TestOptionalJWTAuthMiddleware_GuardReportsTokenProblem(t *testing.T) {
	valid := newTestJWTService()
	expired := newTestToken(t, newJWTService(-time.Minute), "ana@empresa.com", "")

	revokedToken := newTestToken(t, valid, "ana@empresa.com", "")
	claims, err := valid.ValidateAccessToken(revokedToken)
	require.NoError(t, err)
	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Minute))

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"no token", "", "ERR_UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", "ERR_UNAUTHORIZED"},
		{"garbage token", "Bearer not-a-jwt", "ERR_TOKEN_INVALID"},
		{"expired token", "Bearer " + expired, "ERR_TOKEN_EXPIRED"},
		{"revoked token", "Bearer " + revokedToken, "ERR_TOKEN_REVOKED"},
	}

	var seen string
	router := guardedRouter(valid, blacklist, &seen)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, "/guarded", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, decodeErrorCode(t, w))
		})
	}
}

func TestOptionalJWTAuthMiddleware_BlacklistOutageFailsOpen(t *testing.T) {
	jwtService := newTestJWTService()
	token := newTestToken(t, jwtService, "pedro@empresa.com", "")

	var seen string
	router := guardedRouter(jwtService, failingBlacklist{}, &seen)

	w := get(router, "/guarded", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pedro@empresa.com", seen)
}

func TestGetJWTClaims_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTEmail(c))
}
