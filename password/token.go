package password

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// RandomHex returns n cryptographically random bytes as a hex string, for
// decoy passwords and other opaque identifiers.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("password: read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// KeyDigest returns the SHA-256 hex digest of a presented secret. Stores
// hold digests and comparisons run on digests, so a leaked record never
// exposes the raw key.
func KeyDigest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
