package token

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two token types the core issues. The kind claim is
// checked before any other claim — an access token can never be used to
// refresh, and vice versa.
type Kind string

const (
	// KindAccess is a short-lived bearer token carrying the scope list.
	KindAccess Kind = "access"

	// KindRefresh is a long-lived token exchanged for new pairs. It carries
	// no scope beyond the subject, plus the rotation family id.
	KindRefresh Kind = "refresh"
)

// Valid reports whether the kind is one of the issued kinds.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims is the signed payload of an issued token.
type Claims struct {
	gojwt.RegisteredClaims

	// Kind is the token kind claim.
	Kind Kind `json:"knd"`

	// Scopes is the role/scope list carried by access tokens.
	Scopes []string `json:"scp,omitempty"`

	// FamilyID groups a refresh token with its rotation descendants so the
	// whole family can be revoked when reuse is detected.
	FamilyID string `json:"fam,omitempty"`
}

// TokenID returns the unique token identifier (the jti claim).
func (c *Claims) TokenID() string { return c.ID }

// Pair is the result of a successful login or refresh.
type Pair struct {
	// AccessToken is the short-lived bearer token.
	AccessToken string `json:"access_token"`

	// RefreshToken is the long-lived rotation token.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresAt is when the access token expires.
	ExpiresAt time.Time `json:"expires_at"`
}
