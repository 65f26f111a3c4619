package identity

import "time"

// Principal is an authenticated identity (user or service) on whose behalf
// requests are made.
type Principal struct {
	// ID is the stable identifier — the token subject.
	ID string `json:"id"`

	// Identifier is the login identifier (email or username).
	Identifier string `json:"identifier"`

	// DisplayName is a human-readable name.
	DisplayName string `json:"display_name,omitempty"`

	// Roles are the labels granting permission to classes of operations.
	Roles []string `json:"roles"`

	// Disabled marks the principal inactive. Tokens for disabled principals
	// fail verification regardless of signature and expiry.
	Disabled bool `json:"disabled"`

	// ContactVerified indicates the principal's contact address is verified.
	ContactVerified bool `json:"contact_verified"`
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Credential is the stored password hash owned 1:1 by a Principal.
// The hash string is self-describing (algorithm identifier, cost, salt).
// Never logged, never returned to callers.
type Credential struct {
	PrincipalID  string
	PasswordHash string
}

// ExternalIdentity is the identity returned by an external authorization
// provider after a successful code exchange.
type ExternalIdentity struct {
	// Provider is the provider identifier (e.g. "google", "github").
	Provider string `json:"provider"`

	// Subject is the provider's unique identifier for the user.
	Subject string `json:"subject"`

	// Email is the user's email address (may be empty if not in scope).
	Email string `json:"email,omitempty"`

	// EmailVerified indicates if the provider has verified the email.
	EmailVerified bool `json:"email_verified,omitempty"`

	// Name is the user's display name as reported by the provider.
	Name string `json:"name,omitempty"`

	// Raw holds all provider claims for project-specific extraction.
	Raw map[string]any `json:"raw,omitempty"`
}

// APIKeyRecord binds an opaque static key to a principal and scope set.
// The record set is externally managed and read-only here.
type APIKeyRecord struct {
	// Key is the opaque key value.
	Key string

	// PrincipalID is the bound principal.
	PrincipalID string

	// Scopes are the scopes granted to requests authenticated with this key.
	Scopes []string

	// ExpiresAt bounds the key's validity. Zero means no expiry.
	ExpiresAt time.Time
}
