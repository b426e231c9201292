// Package auth carries the signed-in identity through request contexts and
// issues and verifies the bearer tokens and password hashes behind it.
package auth

import (
	"context"
	"fmt"

	"github.com/pkordes/trip-planner/internal/domain"
)

type ctxKey struct{}

// WithUser returns a copy of ctx carrying id.
func WithUser(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserFromContext returns the identity stored by WithUser, or false if the
// request is anonymous.
func UserFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok || id.UID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

// RequireUser is UserFromContext for callers that cannot proceed anonymously.
// Returns domain.ErrAuthenticationRequired when ctx carries no identity.
func RequireUser(ctx context.Context) (domain.Identity, error) {
	id, ok := UserFromContext(ctx)
	if !ok {
		return domain.Identity{}, fmt.Errorf("auth.RequireUser: %w", domain.ErrAuthenticationRequired)
	}
	return id, nil
}
