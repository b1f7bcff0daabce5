package entity

import (
	"context"
	"strings"
)

// Principal identifies the authenticated user a request acts for. The
// hosted backend issues the identity; this service only carries it.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Validate validates the principal.
func (p Principal) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrNotAuthenticated
	}
	return nil
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.Validate() != nil {
		return Principal{}, false
	}
	return p, true
}
