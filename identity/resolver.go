package identity

import "context"

// Authentication method names reported by resolvers.
const (
	MethodPassword = "password"
	MethodBearer   = "bearer"
	MethodAPIKey   = "api_key"
	MethodExternal = "external"
)

// Auth is the outcome of a successful credential resolution: the principal,
// the scopes granted for this request, and the scheme that established them.
type Auth struct {
	Principal *Principal
	Scopes    []string
	Method    string
}

// Resolver turns a presented credential (bearer token, API key, ...) into an
// authenticated principal. Each credential scheme provides one
// implementation, so downstream authorization stays scheme-agnostic instead
// of branching on credential type.
type Resolver interface {
	ResolvePrincipal(ctx context.Context, presented string) (*Auth, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(ctx context.Context, presented string) (*Auth, error)

// ResolvePrincipal implements Resolver.
func (f ResolverFunc) ResolvePrincipal(ctx context.Context, presented string) (*Auth, error) {
	return f(ctx, presented)
}
