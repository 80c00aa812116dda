package middleware

import (
	"context"
	"net/http"

	"github.com/disciplinario/backend/internal/domain/identity"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleKey is the gin context key holding the resolved identity.Role
const RoleKey = "user_role"

// RoleResolver maps an authenticated email to its current role
type RoleResolver interface {
	Resolve(ctx context.Context, email string) identity.Role
}

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when the role check fails (optional)
	OnDenied func(c *gin.Context, role identity.Role)
}

// ResolveRole resolves the caller's role on every request. The role carried in
// the token is ignored so that a role change in the users table applies
// immediately. Requests without claims are guests.
func ResolveRole(resolver RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := identity.RoleGuest
		if claims := GetJWTClaims(c); claims != nil {
			role = resolver.Resolve(c.Request.Context(), claims.Email)
		}
		c.Set(RoleKey, role)
		c.Next()
	}
}

// GetRole returns the resolved role, or RoleGuest when none was resolved
func GetRole(c *gin.Context) identity.Role {
	if v, ok := c.Get(RoleKey); ok {
		if role, ok := v.(identity.Role); ok {
			return role
		}
	}
	return identity.RoleGuest
}

// RequireRole creates middleware that requires at least the given role
func RequireRole(minimum identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(minimum, RoleConfig{})
}

// RequireRoleWithConfig creates middleware that requires at least the given
// role with custom config
func RequireRoleWithConfig(minimum identity.Role, cfg RoleConfig) gin.HandlerFunc {
	return RequireCapabilityWithConfig(string(minimum), func(r identity.Role) bool {
		return r.AtLeast(minimum)
	}, cfg)
}

// RequireReviewer allows reviewers and administrators
func RequireReviewer() gin.HandlerFunc {
	return RequireCapabilityWithConfig("review", identity.Role.CanReview, RoleConfig{})
}

// RequireAdmin allows administrators only
func RequireAdmin() gin.HandlerFunc {
	return RequireCapabilityWithConfig("administer", identity.Role.CanAdminister, RoleConfig{})
}

// RequireExport allows roles that may preview and export documents
func RequireExport() gin.HandlerFunc {
	return RequireCapabilityWithConfig("export", identity.Role.CanExport, RoleConfig{})
}

// RequireCapabilityWithConfig creates middleware that admits the request when
// check accepts the resolved role
func RequireCapabilityWithConfig(capability string, check func(identity.Role) bool, cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if !check(role) {
			handleRoleDenied(c, cfg, role, capability)
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("role", role.String()),
				zap.String("capability", capability),
			)
		}

		c.Next()
	}
}

// handleRoleDenied answers 401 for guests and 403 for authenticated callers
// lacking the capability
func handleRoleDenied(c *gin.Context, cfg RoleConfig, role identity.Role, capability string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, role)
		c.Abort()
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Role check failed",
			zap.String("role", role.String()),
			zap.String("capability", capability),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_email", c.GetString(logger.GinUserEmailKey)),
		)
	}

	status, code, message := http.StatusForbidden, dto.ErrCodeForbidden, "You do not have permission to perform this action"
	if role == identity.RoleGuest {
		status = http.StatusUnauthorized
		code, message = unauthenticated(c)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, c.GetString(logger.GinRequestIDKey)))
}
