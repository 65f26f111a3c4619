package flow

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
)

// GenerateState creates a cryptographically secure random state string for
// CSRF protection. Returns a 32-byte hex-encoded string (64 characters).
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// PKCE holds a Proof Key for Code Exchange challenge/verifier pair.
// The challenge travels in the authorization URL, the verifier only in the
// back-channel token exchange.
type PKCE struct {
	// CodeVerifier is the random secret sent during the exchange.
	CodeVerifier string

	// CodeChallenge is the SHA-256 hash of the verifier, sent in the auth URL.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}

// NewPKCE generates a PKCE pair using the S256 method. The verifier is a
// 32-byte random value, base64url-encoded (43 characters).
func NewPKCE() (*PKCE, error) {
	verifier := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, verifier); err != nil {
		return nil, err
	}

	verifierStr := base64.RawURLEncoding.EncodeToString(verifier)
	h := sha256.Sum256([]byte(verifierStr))
	challenge := base64.RawURLEncoding.EncodeToString(h[:])

	return &PKCE{
		CodeVerifier:        verifierStr,
		CodeChallenge:       challenge,
		CodeChallengeMethod: "S256",
	}, nil
}
