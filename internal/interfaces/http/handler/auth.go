package handler

import (
	"context"
	"time"

	"github.com/disciplinario/backend/internal/application/identity"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthService is the slice of the identity service the auth endpoints use.
type AuthService interface {
	Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error)
	Logout(ctx context.Context, input identity.LogoutInput) error
	CurrentUser(ctx context.Context, email string) identity.UserInfo
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginResponse carries the issued bearer token and the signed-in user.
type LoginResponse struct {
	Token struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
		TokenType   string    `json:"token_type"`
	} `json:"token"`
	User AuthUserResponse `json:"user"`
}

// AuthUserResponse describes a caller. ID is omitted for guests.
type AuthUserResponse struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	RoleName    string     `json:"role_name"`
}

type AuthHandler struct {
	BaseHandler
	authService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates an email and password and issues an access token.
//
//	POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var resp LoginResponse
	resp.Token.AccessToken = result.AccessToken
	resp.Token.ExpiresAt = result.ExpiresAt
	resp.Token.TokenType = result.TokenType
	resp.User = toAuthUserResponse(result.User)
	h.Success(c, resp)
}

// Logout revokes the presented token.
//
//	POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		Email:     claims.Email,
		TokenJTI:  claims.ID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Sesión cerrada"})
}

// GetCurrentUser describes the caller. Anonymous callers are reported as guests.
//
//	GET /auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	info := h.authService.CurrentUser(c.Request.Context(), middleware.GetJWTEmail(c))
	h.Success(c, toAuthUserResponse(info))
}

func toAuthUserResponse(u identity.UserInfo) AuthUserResponse {
	resp := AuthUserResponse{Email: u.Email, DisplayName: u.DisplayName, Role: u.Role, RoleName: u.RoleName}
	if id := u.ID; id != uuid.Nil {
		resp.ID = &id
	}
	return resp
}
