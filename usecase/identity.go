package usecase

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// IdentitySource yields the identity bound to the caller at the moment of the call.
type IdentitySource interface {
	ActiveIdentity(ctx context.Context) (domain.Identity, bool)
}

// IdentityService is the authentication backend the session provider drives.
type IdentityService interface {
	CreateIdentity(ctx context.Context, email, password, displayName string) (domain.Identity, error)
	Authenticate(ctx context.Context, email, password string) (domain.Identity, error)
	SignOut(ctx context.Context) error
	// CurrentIdentity restores any persisted credential. A nil identity means signed out.
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)
	// OnIdentityChange registers fn for every identity transition, including startup resolution.
	OnIdentityChange(fn func(*domain.Identity)) (unsubscribe func())
}

type identityKey struct{}

// WithIdentity binds an authenticated identity to a request context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// ContextIdentity reads the identity placed on the context by WithIdentity.
type ContextIdentity struct{}

func (ContextIdentity) ActiveIdentity(ctx context.Context) (domain.Identity, bool) {
	if ctx == nil {
		return domain.Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok || identity.IsZero() {
		return domain.Identity{}, false
	}
	return identity, true
}
