package identity

import "context"

// CredentialStore is the external collaborator the core reads principals and
// credentials through. Implementations must return (nil, nil) for lookups
// that find nothing — an error means the store itself failed and is mapped
// to UpstreamUnavailable by callers.
type CredentialStore interface {
	// FindByIdentifier looks up a principal by login identifier.
	FindByIdentifier(ctx context.Context, identifier string) (*Principal, error)

	// FindByID looks up a principal by stable id.
	FindByID(ctx context.Context, id string) (*Principal, error)

	// FindCredential looks up the stored credential for a principal.
	FindCredential(ctx context.Context, principalID string) (*Credential, error)
}
