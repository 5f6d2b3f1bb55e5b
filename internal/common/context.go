package common

import (
	"context"
	"strings"
)

// ContextKey is the type for context keys
type ContextKey string

// Context keys used across the application
const (
	PrincipalKey ContextKey = "principal"
	RequestIDKey ContextKey = "request_id"
)

// Defaults applied when the authenticated user carries no organization or industry.
const (
	DefaultOrganization = "default"
	DefaultIndustry     = "general"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email,omitempty"`
	OrganizationID string `json:"organization_id"`
	Industry       string `json:"industry"`
	Role           string `json:"role,omitempty"`
}

// Normalize fills the organization and industry defaults and lower-cases the industry.
func (p Principal) Normalize() Principal {
	p.OrganizationID = strings.TrimSpace(p.OrganizationID)
	if p.OrganizationID == "" {
		p.OrganizationID = DefaultOrganization
	}
	p.Industry = NormalizeIndustry(p.Industry)
	return p
}

// NormalizeIndustry lower-cases and trims an industry name; empty becomes DefaultIndustry.
func NormalizeIndustry(industry string) string {
	industry = strings.ToLower(strings.TrimSpace(industry))
	if industry == "" {
		return DefaultIndustry
	}
	return industry
}

// WithPrincipal stores the caller in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p.Normalize())
}

// PrincipalFromContext returns the caller stored by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFromContext returns the request id, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
