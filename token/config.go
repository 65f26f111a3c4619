package token

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported token signing algorithms.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
	RS256 SigningMethod = "RS256"
	RS384 SigningMethod = "RS384"
	RS512 SigningMethod = "RS512"
	ES256 SigningMethod = "ES256"
	ES384 SigningMethod = "ES384"
	ES512 SigningMethod = "ES512"
)

// Config configures the token codec.
type Config struct {
	// Secret is the HMAC signing key (required for HS* methods).
	Secret string `mapstructure:"secret"`

	// PrivateKey is the RSA or ECDSA private key (required for RS*/ES*
	// methods unless the codec is verify-only).
	PrivateKey interface{} `mapstructure:"-"`

	// PublicKey is the RSA or ECDSA public key for verification.
	// If not set, it is derived from PrivateKey.
	PublicKey interface{} `mapstructure:"-"`

	// KeySet verifies tokens minted by a different authority using its
	// published JWKS. When set, the codec is verify-only.
	KeySet *RemoteKeySet `mapstructure:"-"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `mapstructure:"method"`

	// Issuer is the "iss" claim stamped on issued tokens and required on
	// decoded ones when non-empty.
	Issuer string `mapstructure:"issuer"`

	// AccessTokenTTL is the lifetime of access tokens (default: 15m).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// RefreshTokenTTL is the lifetime of refresh tokens (default: 7d).
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`

	// Leeway is the admissible clock-skew window, applied symmetrically to
	// every expiry and not-before comparison (default: 30s).
	Leeway time.Duration `mapstructure:"leeway"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Leeway == 0 {
		c.Leeway = 30 * time.Second
	}
}

// Validate checks required fields based on the signing method.
func (c *Config) Validate() error {
	if c.Leeway < 0 || c.Leeway > time.Minute {
		return errors.New("token: leeway must be between 0 and 1m")
	}
	if c.KeySet != nil {
		switch c.Method {
		case RS256, RS384, RS512, ES256, ES384, ES512:
			return nil
		default:
			return errors.New("token: a remote key set requires an asymmetric signing method")
		}
	}
	switch c.Method {
	case HS256, HS384, HS512:
		if c.Secret == "" {
			return errors.New("token: secret is required for HMAC signing methods")
		}
	case RS256, RS384, RS512:
		if c.PrivateKey == nil && c.PublicKey == nil {
			return errors.New("token: a key is required for RSA signing methods")
		}
		if c.PrivateKey != nil {
			if _, ok := c.PrivateKey.(*rsa.PrivateKey); !ok {
				return errors.New("token: private key must be *rsa.PrivateKey for RSA signing methods")
			}
		}
	case ES256, ES384, ES512:
		if c.PrivateKey == nil && c.PublicKey == nil {
			return errors.New("token: a key is required for ECDSA signing methods")
		}
		if c.PrivateKey != nil {
			if _, ok := c.PrivateKey.(*ecdsa.PrivateKey); !ok {
				return errors.New("token: private key must be *ecdsa.PrivateKey for ECDSA signing methods")
			}
		}
	default:
		return errors.New("token: unsupported signing method: " + string(c.Method))
	}
	return nil
}

// signingMethod returns the golang-jwt SigningMethod instance.
func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS256:
		return gojwt.SigningMethodHS256
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	case RS256:
		return gojwt.SigningMethodRS256
	case RS384:
		return gojwt.SigningMethodRS384
	case RS512:
		return gojwt.SigningMethodRS512
	case ES256:
		return gojwt.SigningMethodES256
	case ES384:
		return gojwt.SigningMethodES384
	case ES512:
		return gojwt.SigningMethodES512
	default:
		return gojwt.SigningMethodHS256
	}
}

// canSign reports whether the codec holds signing key material.
func (c *Config) canSign() bool {
	if c.KeySet != nil {
		return false
	}
	switch c.Method {
	case HS256, HS384, HS512:
		return c.Secret != ""
	default:
		return c.PrivateKey != nil
	}
}

// signKey returns the key used for signing tokens.
func (c *Config) signKey() interface{} {
	switch c.Method {
	case HS256, HS384, HS512:
		return []byte(c.Secret)
	default:
		return c.PrivateKey
	}
}

// verifyKey returns the key used for verifying tokens.
func (c *Config) verifyKey() interface{} {
	switch c.Method {
	case HS256, HS384, HS512:
		return []byte(c.Secret)
	case RS256, RS384, RS512:
		if c.PublicKey != nil {
			return c.PublicKey
		}
		if pk, ok := c.PrivateKey.(*rsa.PrivateKey); ok {
			return &pk.PublicKey
		}
		return c.PrivateKey
	case ES256, ES384, ES512:
		if c.PublicKey != nil {
			return c.PublicKey
		}
		if pk, ok := c.PrivateKey.(*ecdsa.PrivateKey); ok {
			return &pk.PublicKey
		}
		return c.PrivateKey
	default:
		return []byte(c.Secret)
	}
}
