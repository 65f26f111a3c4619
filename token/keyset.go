package token

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/authkit/errors"
)

// RemoteKeySet resolves verification keys from a published JWKS endpoint,
// letting the codec verify tokens issued by a different authority. Keys are
// cached and refreshed when a presented kid is unknown or the cache is stale.
type RemoteKeySet struct {
	jwksURI  string
	client   *http.Client
	cacheTTL time.Duration

	mu        sync.RWMutex
	keys      map[string]crypto.PublicKey
	fetchedAt time.Time
}

// KeySetOption configures a RemoteKeySet.
type KeySetOption func(*RemoteKeySet)

// WithHTTPClient sets a custom HTTP client (timeout bounds the fetch).
func WithHTTPClient(client *http.Client) KeySetOption {
	return func(ks *RemoteKeySet) { ks.client = client }
}

// WithCacheTTL sets how long fetched keys are cached (default: 1h).
func WithCacheTTL(ttl time.Duration) KeySetOption {
	return func(ks *RemoteKeySet) { ks.cacheTTL = ttl }
}

// NewRemoteKeySet creates a key set backed by the given JWKS endpoint.
func NewRemoteKeySet(jwksURI string, opts ...KeySetOption) *RemoteKeySet {
	ks := &RemoteKeySet{
		jwksURI:  jwksURI,
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(ks)
	}
	return ks
}

// Key resolves the verification key for a parsed (not yet verified) token
// by its kid header. A failed fetch surfaces as UpstreamUnavailable.
func (ks *RemoteKeySet) Key(tok *gojwt.Token) (crypto.PublicKey, error) {
	kid, _ := tok.Header["kid"].(string)

	if !ks.stale() {
		if key, ok := ks.lookup(kid); ok {
			return key, nil
		}
	}

	if err := ks.refresh(); err != nil {
		return nil, errors.UpstreamUnavailable("jwks", err)
	}
	key, ok := ks.lookup(kid)
	if !ok {
		return nil, fmt.Errorf("token: key %q not found in JWKS", kid)
	}
	return key, nil
}

func (ks *RemoteKeySet) lookup(kid string) (crypto.PublicKey, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.keys == nil {
		return nil, false
	}
	key, ok := ks.keys[kid]
	return key, ok
}

func (ks *RemoteKeySet) stale() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.keys == nil || time.Since(ks.fetchedAt) > ks.cacheTTL
}

func (ks *RemoteKeySet) refresh() error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ks.jwksURI, http.NoBody)
	if err != nil {
		return fmt.Errorf("create JWKS request: %w", err)
	}
	resp, err := ks.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Error on close is safe to ignore for read operations

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("JWKS returned %d: %s", resp.StatusCode, string(body))
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	keys := make(map[string]crypto.PublicKey, len(doc.Keys))
	for i := range doc.Keys {
		k := doc.Keys[i]
		if k.Use != "sig" && k.Use != "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	ks.mu.Lock()
	ks.keys = keys
	ks.fetchedAt = time.Now()
	ks.mu.Unlock()

	return nil
}

// jwk represents a JSON Web Key.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`

	// RSA fields
	N string `json:"n"`
	E string `json:"e"`

	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// publicKey converts a JWK to a Go crypto.PublicKey.
func (k *jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaPublicKey()
	case "EC":
		return k.ecPublicKey()
	default:
		return nil, fmt.Errorf("unsupported key type: %s", k.Kty)
	}
}

func (k *jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode RSA N: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode RSA E: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

func (k *jwk) ecPublicKey() (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decode EC X: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decode EC Y: %w", err)
	}

	var curve elliptic.Curve
	switch k.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve: %s", k.Crv)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
