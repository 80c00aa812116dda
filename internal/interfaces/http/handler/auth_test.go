package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disciplinario/backend/internal/application/identity"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/infrastructure/auth"
	"github.com/disciplinario/backend/internal/interfaces/http/dto"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, input identity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, email string) identity.UserInfo {
	return m.Called(ctx, email).Get(0).(identity.UserInfo)
}

// setSession simulates the JWT middleware for an authenticated caller
func setSession(c *gin.Context, email string, expiresAt time.Time) {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-" + email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
	}
	c.Set(middleware.JWTClaimsKey, claims)
	c.Set(middleware.JWTEmailKey, email)
}

func newJSONContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc)

	userID := uuid.New()
	expiresAt := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)
	svc.On("Login", mock.Anything, mock.MatchedBy(func(in identity.LoginInput) bool {
		return in.Email == "revisor@empresa.com" && in.Password == "secreto123"
	})).Return(&identity.LoginResult{
		AccessToken: "access-token",
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
		User: identity.UserInfo{
			ID:          userID,
			Email:       "revisor@empresa.com",
			DisplayName: "Revisora",
			Role:        "revisor",
			RoleName:    "Revisor",
		},
	}, nil)

	c, w := newJSONContext(http.MethodPost, "/auth/login", LoginRequest{
		Email:    "revisor@empresa.com",
		Password: "secreto123",
	})
	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "access-token", body.Data.Token.AccessToken)
	assert.Equal(t, "Bearer", body.Data.Token.TokenType)
	assert.True(t, expiresAt.Equal(body.Data.Token.ExpiresAt))
	require.NotNil(t, body.Data.User.ID)
	assert.Equal(t, userID, *body.Data.User.ID)
	assert.Equal(t, "revisor", body.Data.User.Role)
	assert.Equal(t, "Revisor", body.Data.User.RoleName)
	svc.AssertExpectations(t)
}

func TestAuthHandler_Login_InvalidRequestBody(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing password", map[string]string{"email": "a@b.com"}},
		{"malformed email", map[string]string{"email": "not-an-email", "password": "secreto123"}},
		{"short password", map[string]string{"email": "a@b.com", "password": "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			h := NewAuthHandler(svc)

			c, w := newJSONContext(http.MethodPost, "/auth/login", tt.body)
			h.Login(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
			svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc)

	svc.On("Login", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password"))

	c, w := newJSONContext(http.MethodPost, "/auth/login", LoginRequest{
		Email:    "x@empresa.com",
		Password: "incorrecta",
	})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidCredentials, decodeResponse(t, w).Error.Code)
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc)

	expiresAt := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	svc.On("Logout", mock.Anything, mock.MatchedBy(func(in identity.LogoutInput) bool {
		return in.Email == "admin@empresa.com" &&
			in.TokenJTI == "jti-admin@empresa.com" &&
			in.ExpiresAt.Equal(expiresAt)
	})).Return(nil)

	c, w := newJSONContext(http.MethodPost, "/auth/logout", nil)
	setSession(c, "admin@empresa.com", expiresAt)
	h.Logout(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
	svc.AssertExpectations(t)
}

func TestAuthHandler_Logout_Unauthorized(t *testing.T) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/auth/logout", nil)
	h.Logout(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, w).Error.Code)
	svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}

func TestAuthHandler_Logout_BlacklistUnavailable(t *testing.T) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc)

	svc.On("Logout", mock.Anything, mock.Anything).
		Return(shared.NewBackendError("revoke token", assert.AnError))

	c, w := newJSONContext(http.MethodPost, "/auth/logout", nil)
	setSession(c, "admin@empresa.com", time.Now().Add(time.Minute))
	h.Logout(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeBackendError, decodeResponse(t, w).Error.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewAuthHandler(svc)

		svc.On("CurrentUser", mock.Anything, "revisor@empresa.com").Return(identity.UserInfo{
			Email:    "revisor@empresa.com",
			Role:     "revisor",
			RoleName: "Revisor",
		})

		c, w := newJSONContext(http.MethodGet, "/auth/me", nil)
		setSession(c, "revisor@empresa.com", time.Now().Add(time.Minute))
		h.GetCurrentUser(c)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "revisor", data["role"])
		assert.NotContains(t, data, "id", "accounts resolved only from config have no id")
	})

	t.Run("anonymous caller is a guest", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewAuthHandler(svc)

		svc.On("CurrentUser", mock.Anything, "").Return(identity.UserInfo{
			Role:     "invitado",
			RoleName: "Sin rol",
		})

		c, w := newJSONContext(http.MethodGet, "/auth/me", nil)
		h.GetCurrentUser(c)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "invitado", data["role"])
	})
}
