package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
)

type Role string

const (
	RoleRegular        Role = "regular"
	RoleDepartmentHead Role = "department_head"
	RoleAdmin          Role = "admin"
)

var AllRoles = []string{string(RoleRegular), string(RoleDepartmentHead), string(RoleAdmin)}

func (r Role) Valid() bool {
	switch r {
	case RoleRegular, RoleDepartmentHead, RoleAdmin:
		return true
	}
	return false
}

// Session is the authenticated caller of one request. It is built by
// AuthMiddleware from the bearer token and the stored role and head rows.
type Session struct {
	AccountID      string
	Email          string
	Role           Role
	HeadProjectIDs []int64
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// HeadsProject reports whether the caller is a department head of projectID.
func (s *Session) HeadsProject(projectID int64) bool {
	if s == nil {
		return false
	}
	for _, id := range s.HeadProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

type ctxKey string

const ContextSessionKey ctxKey = "session"

func SessionFromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(ContextSessionKey).(*Session)
	return s, ok && s != nil
}

func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ContextSessionKey, s)
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
	AccessTTL() time.Duration
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrInvalidToken       = internal.ErrInvalidToken
	ErrTokenExpired       = internal.ErrTokenExpired
	ErrMissingToken       = internal.ErrMissingToken
	ErrAccountNotFound    = internal.NewUnauthorizedError("Account not found", internal.ErrCodeAccountNotFound)
	ErrEmailRegistered    = internal.NewConflictError("A user with this email address has already been registered", internal.ErrCodeEmailRegistered)
)
