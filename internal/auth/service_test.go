// internal/auth/service_test.go
package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Email:        "Analyst@Acme.test",
		Password:     "correct-horse",
		FullName:     "Ada Analyst",
		Organization: "acme",
		Industry:     "Healthcare",
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), "secret", 0, zap.NewNop())

	resp, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "analyst@acme.test", resp.User.Email)
	assert.Equal(t, RoleAnalyst, resp.User.Role)
	assert.Equal(t, "healthcare", resp.User.Industry)
	assert.NotEqual(t, "correct-horse", resp.User.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, validRegistration())
		assert.True(t, errors.Is(err, common.ErrConflict))
	})

	t.Run("validation", func(t *testing.T) {
		cases := map[string]func(*RegisterRequest){
			"short password":  func(r *RegisterRequest) { r.Password = "short" },
			"bad email":       func(r *RegisterRequest) { r.Email = "nobody" },
			"no organization": func(r *RegisterRequest) { r.Organization = " " },
			"no name":         func(r *RegisterRequest) { r.FullName = "" },
			"unknown role":    func(r *RegisterRequest) { r.Role = "root" },
		}
		for name, mutate := range cases {
			req := validRegistration()
			req.Email = name + "@acme.test"
			mutate(&req)
			_, err := svc.Register(ctx, req)
			assert.True(t, errors.Is(err, common.ErrValidation), name)
		}
	})

	t.Run("industry defaults to general", func(t *testing.T) {
		req := validRegistration()
		req.Email = "plain@acme.test"
		req.Industry = ""
		resp, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, common.DefaultIndustry, resp.User.Industry)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), "secret", 0, zap.NewNop())
	reg, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "analyst@acme.test", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "analyst@acme.test", Password: "battery-staple"})
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "ghost@acme.test", Password: "correct-horse"})
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
		assert.True(t, errors.Is(err, common.ErrUnauthorized))
	})
}

func TestService_Tokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryStore(), "secret", time.Hour, zap.NewNop(),
		WithClock(func() time.Time { return now }))

	reg, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("authenticate", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, reg.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, user.ID)

		p := user.Principal()
		assert.Equal(t, "acme", p.OrganizationID)
		assert.Equal(t, "healthcare", p.Industry)
	})

	t.Run("expired", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		defer func() { now = now.Add(-2 * time.Hour) }()
		_, err := svc.ValidateToken(reg.AccessToken)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(NewMemoryStore(), "other-secret", time.Hour, zap.NewNop(),
			WithClock(func() time.Time { return now }))
		_, err := other.ValidateToken(reg.AccessToken)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("unsigned token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: reg.User.ID, Issuer: issuer})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(s)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("deleted user", func(t *testing.T) {
		token, err := svc.GenerateToken(&User{ID: "missing", Email: "x@y.z"})
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}
