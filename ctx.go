package identity

import (
	"context"

	"github.com/goliatone/go-router"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the IdentityClaims in the given context
func WithClaimsContext(r context.Context, claims *IdentityClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the IdentityClaims from the standard context
func GetClaims(ctx context.Context) (*IdentityClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*IdentityClaims)
	return raw, ok
}

// GetRouterClaims extracts the IdentityClaims the access guard stored in the
// router context
func GetRouterClaims(ctx router.Context, key string) (*IdentityClaims, bool) {
	if key == "" {
		key = "user" // Default key used by the access guard
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(*IdentityClaims)
	return claims, ok
}
