package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/disciplinario/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusLocked      UserStatus = "locked"
	UserStatusDeactivated UserStatus = "deactivated"
)

const (
	bcryptCost     = 12
	maxEmailLength = 200
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
)

var (
	errEmailTooLong    = shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	errEmailFormat     = shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	errPasswordShort   = shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	errPasswordLong    = shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	errPasswordHashing = shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
)

// User is a sign-in account. An empty Role defers to the configured
// fallback role.
type User struct {
	shared.BaseAggregateRoot
	Email          string
	PasswordHash   string
	DisplayName    string
	Role           Role
	Status         UserStatus
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
}

func NewUser(email, password string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if role != "" && !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Invalid role: "+role.String())
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, errPasswordHashing
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      string(hash),
		Role:              role,
		Status:            UserStatusActive,
	}, nil
}

func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLoginSuccess clears failures and any lock.
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	u.unlock()
	u.Touch(now)
}

// RecordLoginFailure counts a bad attempt and reports whether it tripped the
// lock. maxAttempts <= 0 disables locking.
func (u *User) RecordLoginFailure(maxAttempts int, lockFor time.Duration) bool {
	now := time.Now()
	u.FailedAttempts++
	u.Touch(now)
	if maxAttempts <= 0 || u.FailedAttempts < maxAttempts {
		return false
	}
	until := now.Add(lockFor)
	u.Status, u.LockedUntil = UserStatusLocked, &until
	return true
}

func (u *User) unlock() {
	u.LockedUntil = nil
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
	}
}

// IsLocked is true while a lock without expiry, or with a future one, holds.
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || time.Now().Before(*u.LockedUntil)
}

func (u *User) CanLogin() bool {
	return u.Status != UserStatusDeactivated && !u.IsLocked()
}

// NormalizeEmail is the lookup form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string) error {
	if len(email) > maxEmailLength {
		return errEmailTooLong
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return errEmailFormat
	}
	at := strings.LastIndexByte(email, '@')
	if !strings.Contains(email[at+1:], ".") {
		return errEmailFormat
	}
	return nil
}

func checkPassword(password string) error {
	switch {
	case len(password) < minPasswordLen:
		return errPasswordShort
	case len(password) > maxPasswordLen:
		return errPasswordLong
	}
	return nil
}
