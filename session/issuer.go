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
	"github.com/kbukum/authkit/password"
	"github.com/kbukum/authkit/token"
)

// Issuer authenticates password credentials and mints token pairs.
type Issuer struct {
	store         identity.CredentialStore
	hasher        password.Hasher
	codec         *token.Codec
	lookupTimeout time.Duration
	log           *logger.Logger
	tracer        trace.Tracer

	// decoyHash is a hash of a random throwaway password. Verifying against
	// it when the identifier is unknown keeps the work done on the failure
	// path equal to the work done for a real mismatch.
	decoyHash string
}

// IssuerOption configures the issuer.
type IssuerOption func(*Issuer)

// WithIssuerLogger sets the logger.
func WithIssuerLogger(log *logger.Logger) IssuerOption {
	return func(i *Issuer) { i.log = log }
}

// WithIssuerTracer sets the tracer.
func WithIssuerTracer(t trace.Tracer) IssuerOption {
	return func(i *Issuer) { i.tracer = t }
}

// WithIssuerLookupTimeout bounds each credential-store call (default: 5s).
func WithIssuerLookupTimeout(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		if d > 0 {
			i.lookupTimeout = d
		}
	}
}

// NewIssuer creates an issuer. The decoy hash is computed once here so login
// requests never pay for it.
func NewIssuer(store identity.CredentialStore, hasher password.Hasher, codec *token.Codec, opts ...IssuerOption) (*Issuer, error) {
	if store == nil || hasher == nil || codec == nil {
		return nil, fmt.Errorf("session: store, hasher, and codec are required")
	}
	decoyPassword, err := password.RandomHex(32)
	if err != nil {
		return nil, fmt.Errorf("session: generate decoy: %w", err)
	}
	decoyHash, err := hasher.Hash(decoyPassword)
	if err != nil {
		return nil, fmt.Errorf("session: hash decoy: %w", err)
	}
	i := &Issuer{
		store:         store,
		hasher:        hasher,
		codec:         codec,
		lookupTimeout: defaultLookupTimeout,
		log:           logger.Nop(),
		tracer:        otel.Tracer("authkit/session"),
		decoyHash:     decoyHash,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.log = i.log.WithComponent("session.issuer")
	return i, nil
}

// Login verifies the identifier/password pair and returns a fresh token pair
// starting a new refresh family. Unknown identifiers and wrong passwords are
// indistinguishable to the caller; a disabled account is reported as such
// only after the password verified.
func (i *Issuer) Login(ctx context.Context, identifier, pass string) (*token.Pair, error) {
	ctx, span := i.tracer.Start(ctx, "session.Login")
	defer span.End()

	principal, err := i.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, errors.UpstreamUnavailable("credential-store", err)
	}
	if principal == nil {
		_ = i.hasher.Verify(pass, i.decoyHash)
		return nil, errors.InvalidCredentials()
	}

	cred, err := i.findCredential(ctx, principal.ID)
	if err != nil {
		return nil, errors.UpstreamUnavailable("credential-store", err)
	}
	if cred == nil {
		_ = i.hasher.Verify(pass, i.decoyHash)
		return nil, errors.InvalidCredentials()
	}

	if err := i.hasher.Verify(pass, cred.PasswordHash); err != nil {
		i.log.Warn("login failed", logger.Fields(logger.FieldPrincipalID, principal.ID))
		return nil, errors.InvalidCredentials()
	}

	if principal.Disabled {
		i.log.Warn("login rejected for disabled account", logger.Fields(logger.FieldPrincipalID, principal.ID))
		return nil, errors.AccountDisabled()
	}

	pair, err := i.MintPair(ctx, principal)
	if err != nil {
		return nil, err
	}
	i.log.Info("login succeeded", logger.Fields(logger.FieldPrincipalID, principal.ID))
	return pair, nil
}

func (i *Issuer) findByIdentifier(ctx context.Context, identifier string) (*identity.Principal, error) {
	lctx, cancel := context.WithTimeout(ctx, i.lookupTimeout)
	defer cancel()
	return i.store.FindByIdentifier(lctx, identifier)
}

func (i *Issuer) findCredential(ctx context.Context, principalID string) (*identity.Credential, error) {
	lctx, cancel := context.WithTimeout(ctx, i.lookupTimeout)
	defer cancel()
	return i.store.FindCredential(lctx, principalID)
}

// MintPair issues an access/refresh pair for an already-authenticated
// principal, starting a new refresh family. Used by Login and by the
// authorization-flow coordinator after a provider callback.
func (i *Issuer) MintPair(_ context.Context, principal *identity.Principal) (*token.Pair, error) {
	access, accessClaims, err := i.codec.IssueAccess(principal.ID, principal.Roles)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, _, err := i.codec.IssueRefresh(principal.ID, "")
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &token.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    accessClaims.ExpiresAt.Time,
	}, nil
}
