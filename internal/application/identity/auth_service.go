package identity

import (
	"context"
	"errors"
	"time"

	"github.com/disciplinario/backend/internal/domain/identity"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/infrastructure/auth"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuthServiceConfig sets the lockout policy. MaxLoginAttempts <= 0 never
// locks.
type AuthServiceConfig struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
}

func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService signs users in and out and provisions accounts.
type AuthService struct {
	userRepo   identity.UserRepository
	roles      *RoleResolver
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	logger     *zap.Logger
}

func NewAuthService(
	userRepo identity.UserRepository,
	roles *RoleResolver,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		roles:      roles,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     log,
	}
}

var (
	errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	errAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
	errAccountDeactivated = shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	errLockedNow          = shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
	errTokenIssue         = shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
)

// Login checks the password and issues an access token carrying the resolved
// role. Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := identity.NormalizeEmail(input.Email)
	log := logger.Enrich(ctx, s.logger).With(zap.String("email", email))
	log.Info("Login attempt", zap.String("ip", input.IP))

	user, err := s.authenticate(ctx, log, email, input.Password)
	if err != nil {
		return nil, err
	}

	role := s.roles.ForUser(user)
	token, err := s.jwtService.GenerateToken(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Role:   role.String(),
	})
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return nil, errTokenIssue
	}

	user.RecordLoginSuccess()
	s.persistAttempt(ctx, log, user)
	log.Info("User logged in", zap.String("role", role.String()))

	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		User:        toUserInfo(user, role),
	}, nil
}

func (s *AuthService) authenticate(ctx context.Context, log *zap.Logger, email, password string) (*identity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		log.Warn("Login for unknown user")
		return nil, errInvalidCredentials
	case err != nil:
		return nil, shared.NewBackendError("find user", err)
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			log.Warn("Login attempt for locked account")
			return nil, errAccountLocked
		}
		log.Warn("Login attempt for deactivated account")
		return nil, errAccountDeactivated
	}

	if user.VerifyPassword(password) {
		return user, nil
	}
	locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
	s.persistAttempt(ctx, log, user)
	if locked {
		log.Warn("Account locked after too many failed attempts", zap.Int("attempts", user.FailedAttempts))
		return nil, errLockedNow
	}
	log.Warn("Invalid password", zap.Int("failed_attempts", user.FailedAttempts))
	return nil, errInvalidCredentials
}

// persistAttempt saves login bookkeeping. A failed save never changes the
// login outcome.
func (s *AuthService) persistAttempt(ctx context.Context, log *zap.Logger, user *identity.User) {
	if err := s.userRepo.Update(ctx, user); err != nil {
		log.Error("Failed to record login attempt", zap.Error(err))
	}
}

// Logout revokes the presented token until it would have expired
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.String("email", input.Email))

	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	ttl := time.Until(input.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenJTI, ttl); err != nil {
		return shared.NewBackendError("revoke token", err)
	}
	return nil
}

// CurrentUser describes the caller. Emails without an account still get a
// resolved role.
func (s *AuthService) CurrentUser(ctx context.Context, email string) UserInfo {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return UserInfo{Role: identity.RoleGuest.String(), RoleName: identity.RoleGuest.DisplayName()}
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		role := s.roles.Resolve(ctx, email)
		return UserInfo{Email: email, Role: role.String(), RoleName: role.DisplayName()}
	}
	return toUserInfo(user, s.roles.ForUser(user))
}

// CreateUser provisions an account with an optional users-table role
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, shared.NewBackendError("check user", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}

	user, err := identity.NewUser(input.Email, input.Password, identity.Role(input.Role))
	if err != nil {
		return nil, err
	}
	user.DisplayName = input.DisplayName

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, shared.NewBackendError("create user", err)
	}

	s.logger.Info("User created",
		zap.String("email", user.Email),
		zap.String("role", user.Role.String()))

	info := toUserInfo(user, s.roles.ForUser(user))
	return &info, nil
}

func toUserInfo(user *identity.User, role identity.Role) UserInfo {
	name := user.DisplayName
	if name == "" {
		name = user.Email
	}
	return UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: name,
		Role:        role.String(),
		RoleName:    role.DisplayName(),
	}
}
