// internal/auth/types.go
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Roles
const (
	RoleAnalyst           = "analyst"
	RoleAdmin             = "admin"
	RoleIncidentResponder = "incident_responder"
)

const minPasswordLength = 8

var (
	ErrUserNotFound       = fmt.Errorf("auth: user %w", common.ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("auth: email already registered: %w", common.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("auth: incorrect email or password: %w", common.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("auth: could not validate credentials: %w", common.ErrUnauthorized)
)

// User is a platform account. Organization doubles as the organization id that scopes every record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Organization string    `json:"organization"`
	Role         string    `json:"role"`
	Industry     string    `json:"industry"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal converts the user to the request principal.
func (u *User) Principal() common.Principal {
	return common.Principal{
		UserID:         u.ID,
		Email:          u.Email,
		OrganizationID: u.Organization,
		Industry:       u.Industry,
		Role:           u.Role,
	}.Normalize()
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
	Industry     string `json:"industry"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// Claims represents JWT token claims
type Claims struct {
	Email        string `json:"email"`
	Organization string `json:"organization"`
	jwt.RegisteredClaims
}

// Store persists users.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
}
