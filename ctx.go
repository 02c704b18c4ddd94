package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

var stakeholderCtxKey = &contextKey{"stakeholder"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the sanitized stakeholder in the given context
func WithContext(r context.Context, view *StakeholderView) context.Context {
	return context.WithValue(r, stakeholderCtxKey, view)
}

// FromContext finds the sanitized stakeholder from the context.
func FromContext(ctx context.Context) (*StakeholderView, bool) {
	raw, ok := ctx.Value(stakeholderCtxKey).(*StakeholderView)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims stored by the protected-route
// middleware from the router context.
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "stakeholder"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// SubjectFromRouter returns the authenticated stakeholder id, if any.
func SubjectFromRouter(ctx router.Context, key string) (string, bool) {
	claims, ok := GetRouterClaims(ctx, key)
	if !ok {
		return "", false
	}
	return claims.Subject(), true
}
