package token

import (
	stderrors "errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/authkit/errors"
)

// Codec signs and verifies tokens. Safe for unbounded parallel use.
type Codec struct {
	cfg Config

	// Now is the clock used for issuance and validation. Overridable in tests.
	Now func() time.Time
}

// NewCodec creates a codec from configuration.
func NewCodec(cfg *Config) (*Codec, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return &Codec{cfg: *cfg, Now: time.Now}, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTokenTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTokenTTL }

// Encode serializes and signs the given claims as-is. Claims with preset
// time fields are honored, which lets callers mint tokens at fixed instants.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if !c.cfg.canSign() {
		return "", fmt.Errorf("token: codec is verify-only")
	}
	if !claims.Kind.Valid() {
		return "", fmt.Errorf("token: invalid kind %q", claims.Kind)
	}
	tok := gojwt.NewWithClaims(c.cfg.signingMethod(), claims)
	signed, err := tok.SignedString(c.cfg.signKey())
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// IssueAccess mints an access token for the subject carrying the scope list.
func (c *Codec) IssueAccess(subject string, scopes []string) (string, *Claims, error) {
	claims := c.newClaims(KindAccess, subject, c.cfg.AccessTokenTTL)
	claims.Scopes = scopes
	raw, err := c.Encode(claims)
	return raw, claims, err
}

// IssueRefresh mints a refresh token for the subject within the given
// rotation family. An empty familyID starts a new family.
func (c *Codec) IssueRefresh(subject, familyID string) (string, *Claims, error) {
	if familyID == "" {
		familyID = uuid.NewString()
	}
	claims := c.newClaims(KindRefresh, subject, c.cfg.RefreshTokenTTL)
	claims.FamilyID = familyID
	raw, err := c.Encode(claims)
	return raw, claims, err
}

func (c *Codec) newClaims(kind Kind, subject string, ttl time.Duration) *Claims {
	now := c.Now()
	return &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}
}

// Decode verifies the signature, then the structure and time claims of a
// token. A tampered signature is rejected before any claim is trusted.
// Errors carry the MalformedToken / BadSignature / Expired / NotYetValid
// taxonomy. Callers that must order the kind check ahead of expiry use
// DecodeSigned followed by ValidateTime.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims, err := c.DecodeSigned(raw)
	if err != nil {
		return nil, err
	}
	if err := c.ValidateTime(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodeSigned verifies the signature and parses the claims without
// validating time claims. The returned claims are authentic but may be
// expired — follow with ValidateTime.
func (c *Codec) DecodeSigned(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := gojwt.ParseWithClaims(raw, claims, c.keyFunc,
		gojwt.WithValidMethods([]string{c.cfg.signingMethod().Alg()}),
		gojwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !tok.Valid {
		return nil, errors.BadSignature(nil)
	}
	if c.cfg.Issuer != "" && claims.Issuer != c.cfg.Issuer {
		return nil, errors.MalformedToken(fmt.Errorf("unexpected issuer %q", claims.Issuer))
	}
	if !claims.Kind.Valid() {
		return nil, errors.MalformedToken(fmt.Errorf("missing or invalid kind claim"))
	}
	return claims, nil
}

// ValidateTime checks expiry and not-before with the configured leeway
// applied symmetrically. A token expiring exactly at now−leeway is still
// accepted; one second earlier is rejected.
func (c *Codec) ValidateTime(claims *Claims) error {
	now := c.Now()
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time.Add(c.cfg.Leeway)) {
		return errors.Expired()
	}
	if claims.NotBefore != nil && now.Add(c.cfg.Leeway).Before(claims.NotBefore.Time) {
		return errors.NotYetValid()
	}
	return nil
}

// keyFunc is the jwt.Keyfunc used during token parsing.
func (c *Codec) keyFunc(tok *gojwt.Token) (interface{}, error) {
	expected := c.cfg.signingMethod()
	if tok.Method.Alg() != expected.Alg() {
		return nil, fmt.Errorf("token: unexpected signing method: %s", tok.Method.Alg())
	}
	if c.cfg.KeySet != nil {
		return c.cfg.KeySet.Key(tok)
	}
	return c.cfg.verifyKey(), nil
}

// mapParseError translates golang-jwt parse failures into the taxonomy.
// AppErrors surfaced by the keyfunc (e.g. a JWKS fetch timing out) pass
// through unchanged so retryability is preserved.
func mapParseError(err error) error {
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		return ae
	}
	switch {
	case stderrors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return errors.BadSignature(err)
	case stderrors.Is(err, gojwt.ErrTokenMalformed):
		return errors.MalformedToken(err)
	case stderrors.Is(err, gojwt.ErrTokenExpired):
		return errors.Expired()
	case stderrors.Is(err, gojwt.ErrTokenNotValidYet):
		return errors.NotYetValid()
	default:
		return errors.MalformedToken(err)
	}
}
