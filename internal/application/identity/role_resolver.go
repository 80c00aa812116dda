package identity

import (
	"context"
	"errors"

	"github.com/disciplinario/backend/internal/domain/identity"
	"github.com/disciplinario/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RoleResolver determines a user's role. The users table wins; otherwise
// the configured email overrides apply; anyone else signed in is a plain
// user. Requests without a session are guests.
type RoleResolver struct {
	users     identity.UserRepository
	overrides map[string]identity.Role
	logger    *zap.Logger
}

// NewRoleResolver creates a RoleResolver. Overrides with an unknown role are
// ignored.
func NewRoleResolver(users identity.UserRepository, overrides map[string]string, logger *zap.Logger) *RoleResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &RoleResolver{
		users:     users,
		overrides: make(map[string]identity.Role, len(overrides)),
		logger:    logger,
	}
	for email, role := range overrides {
		rl := identity.Role(role)
		if !rl.IsValid() {
			logger.Warn("Ignoring role override with unknown role",
				zap.String("email", email),
				zap.String("role", role))
			continue
		}
		r.overrides[identity.NormalizeEmail(email)] = rl
	}
	return r
}

// Resolve returns the role for an email. A lookup failure degrades to the
// plain user role instead of failing the request.
func (r *RoleResolver) Resolve(ctx context.Context, email string) identity.Role {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return identity.RoleGuest
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return r.fallback(email)
		}
		r.logger.Warn("Role lookup failed, using default role",
			zap.String("email", email),
			zap.Error(err))
		return identity.RoleUser
	}
	return r.ForUser(user)
}

// ForUser returns the role of a loaded user
func (r *RoleResolver) ForUser(user *identity.User) identity.Role {
	if user.Role.IsValid() {
		return user.Role
	}
	return r.fallback(user.Email)
}

func (r *RoleResolver) fallback(email string) identity.Role {
	if role, ok := r.overrides[identity.NormalizeEmail(email)]; ok {
		return role
	}
	return identity.RoleUser
}
