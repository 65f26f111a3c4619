package flow

import (
	"context"

	"github.com/kbukum/authkit/identity"
)

// PrincipalMapper resolves an external identity to a local principal.
// Projects decide the policy here: match on verified email, match on a
// stored provider/subject link, or auto-provision. Returning (nil, nil)
// means no local principal exists and the flow fails closed.
type PrincipalMapper interface {
	MapExternal(ctx context.Context, ext *identity.ExternalIdentity) (*identity.Principal, error)
}

// PrincipalMapperFunc adapts an ordinary function to PrincipalMapper.
type PrincipalMapperFunc func(ctx context.Context, ext *identity.ExternalIdentity) (*identity.Principal, error)

// MapExternal implements PrincipalMapper.
func (f PrincipalMapperFunc) MapExternal(ctx context.Context, ext *identity.ExternalIdentity) (*identity.Principal, error) {
	return f(ctx, ext)
}
