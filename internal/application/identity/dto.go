package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	TokenType   string
	User        UserInfo
}

// UserInfo describes the signed-in user
type UserInfo struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        string
	RoleName    string
}

// LogoutInput contains the token being revoked
type LogoutInput struct {
	Email     string
	TokenJTI  string
	ExpiresAt time.Time
}

// CreateUserInput provisions an account
type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// ImportFailure is a roster entry that could not be provisioned
type ImportFailure struct {
	Email  string
	Reason string
}

// ImportUsersResult summarizes a bulk user import
type ImportUsersResult struct {
	Created  []string
	Skipped  []string // already present
	Failures []ImportFailure
}
