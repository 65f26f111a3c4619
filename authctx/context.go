// Package authctx propagates the authenticated principal through request
// context. Middleware stores the resolution outcome once; handlers and
// guards read it back without re-verifying credentials.
package authctx

import (
	"context"
	"errors"

	"github.com/kbukum/authkit/identity"
)

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey struct{}

var authKey = contextKey{}

// ErrNoAuth is returned when no authentication outcome is in the context.
var ErrNoAuth = errors.New("authctx: no authentication in context")

// Set stores the authentication outcome in the context.
func Set(ctx context.Context, auth *identity.Auth) context.Context {
	return context.WithValue(ctx, authKey, auth)
}

// Get retrieves the authentication outcome from the context.
func Get(ctx context.Context) (*identity.Auth, bool) {
	auth, ok := ctx.Value(authKey).(*identity.Auth)
	return auth, ok
}

// MustGet retrieves the authentication outcome from the context.
// Panics if missing. Use in handlers where middleware guarantees it exists.
func MustGet(ctx context.Context) *identity.Auth {
	auth, ok := Get(ctx)
	if !ok {
		panic("authctx: authentication not found in context")
	}
	return auth
}

// GetOrError retrieves the authentication outcome from the context.
// Returns ErrNoAuth if missing.
func GetOrError(ctx context.Context) (*identity.Auth, error) {
	auth, ok := Get(ctx)
	if !ok {
		return nil, ErrNoAuth
	}
	return auth, nil
}

// Principal is a convenience accessor for the authenticated principal.
func Principal(ctx context.Context) (*identity.Principal, bool) {
	auth, ok := Get(ctx)
	if !ok || auth.Principal == nil {
		return nil, false
	}
	return auth.Principal, true
}
