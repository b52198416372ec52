package services

import (
	"context"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) *models.Identity {
	identity, ok := ctx.Value(identityContextKey).(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequireIdentity is the gate every identity-required operation passes
// before touching storage.
func RequireIdentity(ctx context.Context) (*models.Identity, error) {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	return identity, nil
}
