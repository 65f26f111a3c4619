package session

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
	"github.com/kbukum/authkit/logger"
	kvstore "github.com/kbukum/authkit/store"
	"github.com/kbukum/authkit/token"
)

// defaultLookupTimeout bounds credential-store calls so a hung store surfaces
// as a retryable failure instead of stalling the request.
const defaultLookupTimeout = 5 * time.Second

// Verifier validates presented tokens and resolves them to live principals.
type Verifier struct {
	codec         *token.Codec
	store         identity.CredentialStore
	deny          kvstore.KV
	lookupTimeout time.Duration
	log           *logger.Logger
	tracer        trace.Tracer
}

// VerifierOption configures the verifier.
type VerifierOption func(*Verifier)

// WithVerifierLogger sets the logger.
func WithVerifierLogger(log *logger.Logger) VerifierOption {
	return func(v *Verifier) { v.log = log }
}

// WithVerifierTracer sets the tracer.
func WithVerifierTracer(t trace.Tracer) VerifierOption {
	return func(v *Verifier) { v.tracer = t }
}

// WithVerifierLookupTimeout bounds each credential-store call (default: 5s).
func WithVerifierLookupTimeout(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.lookupTimeout = d
		}
	}
}

// NewVerifier creates a verifier. The deny store may be shared with a
// Refresher so family revocations take effect here.
func NewVerifier(codec *token.Codec, store identity.CredentialStore, deny kvstore.KV, opts ...VerifierOption) (*Verifier, error) {
	if codec == nil || store == nil || deny == nil {
		return nil, fmt.Errorf("session: codec, store, and deny store are required")
	}
	v := &Verifier{
		codec:         codec,
		store:         store,
		deny:          deny,
		lookupTimeout: defaultLookupTimeout,
		log:           logger.Nop(),
		tracer:        otel.Tracer("authkit/session"),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.WithComponent("session.verifier")
	return v, nil
}

// Verify checks the raw token against the expected kind and returns the
// authenticated principal. The kind claim is checked before expiry, so an
// access token presented where a refresh token is expected reports
// WRONG_TOKEN_KIND even when it is also expired.
func (v *Verifier) Verify(ctx context.Context, raw string, kind token.Kind) (*identity.Auth, error) {
	ctx, span := v.tracer.Start(ctx, "session.Verify")
	defer span.End()

	claims, err := v.codec.DecodeSigned(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, errors.WrongTokenKind(string(kind))
	}
	if err := v.codec.ValidateTime(claims); err != nil {
		return nil, err
	}
	if err := v.checkDenied(ctx, claims); err != nil {
		return nil, err
	}

	principal, err := v.resolveLivePrincipal(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	return &identity.Auth{
		Principal: principal,
		Scopes:    claims.Scopes,
		Method:    identity.MethodBearer,
	}, nil
}

// resolveLivePrincipal loads the token subject within the lookup timeout and
// rejects missing or disabled accounts.
func (v *Verifier) resolveLivePrincipal(ctx context.Context, subject string) (*identity.Principal, error) {
	lctx, cancel := context.WithTimeout(ctx, v.lookupTimeout)
	defer cancel()

	principal, err := v.store.FindByID(lctx, subject)
	if err != nil {
		return nil, errors.UpstreamUnavailable("credential-store", err)
	}
	if principal == nil {
		return nil, errors.InvalidCredentials()
	}
	if principal.Disabled {
		return nil, errors.AccountDisabled()
	}
	return principal, nil
}

// checkDenied rejects tokens that were individually revoked or whose refresh
// family was revoked after reuse detection.
func (v *Verifier) checkDenied(ctx context.Context, claims *token.Claims) error {
	if _, denied, err := v.deny.Get(ctx, tokenDenyKey(claims.TokenID())); err != nil {
		return errors.UpstreamUnavailable("deny-store", err)
	} else if denied {
		return errors.ReuseDetected()
	}
	if claims.FamilyID == "" {
		return nil
	}
	if _, denied, err := v.deny.Get(ctx, familyDenyKey(claims.FamilyID)); err != nil {
		return errors.UpstreamUnavailable("deny-store", err)
	} else if denied {
		v.log.Warn("token from revoked family presented", logger.Fields(
			logger.FieldFamilyID, claims.FamilyID,
			logger.FieldPrincipalID, claims.Subject,
		))
		return errors.ReuseDetected()
	}
	return nil
}

// BearerResolver adapts the verifier into an identity.Resolver for access
// tokens, for use by middleware.
func (v *Verifier) BearerResolver() identity.Resolver {
	return identity.ResolverFunc(func(ctx context.Context, presented string) (*identity.Auth, error) {
		return v.Verify(ctx, presented, token.KindAccess)
	})
}
