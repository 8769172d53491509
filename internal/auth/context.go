package auth

import (
	"context"

	"github.com/ayush/myflix/internal/models"
)

type identityKey struct{}

// WithIdentity stores the authenticated user in ctx.
func WithIdentity(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFromContext returns the user stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(identityKey{}).(*models.User)
	return u, ok && u != nil
}
