package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const TokenTypeAccess TokenType = "access"

const bearerScheme = "Bearer"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingEmail     = errors.New("missing email in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims carries the caller's identity; Email is the subject used for role
// lookups.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

// RemainingTTL is zero once the token has expired or if it never expires.
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

type GenerateTokenInput struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// JWTService signs and checks HS256 access tokens.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.AccessTokenExpiration,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

func (s *JWTService) GenerateToken(in GenerateTokenInput) (*Token, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, ErrMissingEmail
	}

	issued := s.now()
	expires := issued.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   email,
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email:     email,
		Role:      in.Role,
		TokenType: TokenTypeAccess,
	}
	if in.UserID != uuid.Nil {
		claims.UserID = in.UserID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, ExpiresAt: expires, TokenType: bearerScheme}, nil
}

func (s *JWTService) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return s.secret, nil
}

// ValidateAccessToken returns the claims of a well-formed, current access
// token issued by this service.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case !token.Valid:
		return nil, ErrInvalidClaims
	case claims.TokenType != TokenTypeAccess:
		return nil, ErrInvalidTokenType
	case claims.Email == "":
		return nil, ErrMissingEmail
	}
	return claims, nil
}
