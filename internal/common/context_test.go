package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_Normalize(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		p := Principal{UserID: "u1"}.Normalize()
		assert.Equal(t, DefaultOrganization, p.OrganizationID)
		assert.Equal(t, DefaultIndustry, p.Industry)
	})

	t.Run("lower-cases industry", func(t *testing.T) {
		p := Principal{UserID: "u1", OrganizationID: "acme", Industry: " Healthcare "}.Normalize()
		assert.Equal(t, "acme", p.OrganizationID)
		assert.Equal(t, "healthcare", p.Industry)
	})
}

func TestPrincipalContext(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), Principal{UserID: "u1", Industry: "Finance"})
		p, ok := PrincipalFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "u1", p.UserID)
		assert.Equal(t, "finance", p.Industry)
		assert.Equal(t, DefaultOrganization, p.OrganizationID)
	})

	t.Run("missing principal", func(t *testing.T) {
		_, ok := PrincipalFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("principal without user id is rejected", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), PrincipalKey, Principal{OrganizationID: "acme"})
		_, ok := PrincipalFromContext(ctx)
		assert.False(t, ok)
	})
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}
