package apikey

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/password"
)

const (
	defaultCacheTTL = 30 * time.Second

	// defaultLookupTimeout bounds key-store and credential-store calls so a
	// hung backend surfaces as a retryable failure.
	defaultLookupTimeout = 5 * time.Second
)

// Store lists the API key records to validate against. The record set is
// externally managed; this package never writes it.
type Store interface {
	ListKeys(ctx context.Context) ([]identity.APIKeyRecord, error)
}

// StoreFunc adapts an ordinary function to the Store interface.
type StoreFunc func(ctx context.Context) ([]identity.APIKeyRecord, error)

// ListKeys implements Store.
func (f StoreFunc) ListKeys(ctx context.Context) ([]identity.APIKeyRecord, error) {
	return f(ctx)
}

// keyEntry is a snapshotted record with its precomputed digest.
type keyEntry struct {
	digest      []byte
	principalID string
	scopes      []string
	expiresAt   time.Time
}

// Validator resolves presented API keys to principals.
type Validator struct {
	keys          Store
	principals    identity.CredentialStore
	cacheTTL      time.Duration
	lookupTimeout time.Duration
	log           *logger.Logger
	tracer        trace.Tracer

	mu        sync.Mutex
	snapshot  []keyEntry
	fetchedAt time.Time

	// Now is the clock used for expiry and cache checks. Overridable in tests.
	Now func() time.Time
}

// ValidatorOption configures the validator.
type ValidatorOption func(*Validator)

// WithCacheTTL sets how long a record snapshot is reused (default: 30s).
func WithCacheTTL(ttl time.Duration) ValidatorOption {
	return func(v *Validator) {
		if ttl > 0 {
			v.cacheTTL = ttl
		}
	}
}

// WithLookupTimeout bounds each key-store or credential-store call
// (default: 5s).
func WithLookupTimeout(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.lookupTimeout = d
		}
	}
}

// WithValidatorLogger sets the logger.
func WithValidatorLogger(log *logger.Logger) ValidatorOption {
	return func(v *Validator) { v.log = log }
}

// WithValidatorTracer sets the tracer.
func WithValidatorTracer(t trace.Tracer) ValidatorOption {
	return func(v *Validator) { v.tracer = t }
}

// NewValidator creates a validator over the given key and principal stores.
func NewValidator(keys Store, principals identity.CredentialStore, opts ...ValidatorOption) (*Validator, error) {
	if keys == nil || principals == nil {
		return nil, fmt.Errorf("apikey: key store and principal store are required")
	}
	v := &Validator{
		keys:          keys,
		principals:    principals,
		cacheTTL:      defaultCacheTTL,
		lookupTimeout: defaultLookupTimeout,
		log:           logger.Nop(),
		tracer:        otel.Tracer("authkit/apikey"),
		Now:           time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.WithComponent("apikey.validator")
	return v, nil
}

// Validate resolves a presented key to an authenticated principal. Unknown
// and expired keys are indistinguishable to the caller.
func (v *Validator) Validate(ctx context.Context, presented string) (*identity.Auth, error) {
	ctx, span := v.tracer.Start(ctx, "apikey.Validate")
	defer span.End()

	entries, err := v.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Full scan with no early exit. The matched index is recorded but the
	// loop always visits every record.
	digest := []byte(password.KeyDigest(presented))
	match := -1
	for i := range entries {
		if subtle.ConstantTimeCompare(entries[i].digest, digest) == 1 {
			match = i
		}
	}
	if match < 0 {
		return nil, errors.InvalidCredentials()
	}
	entry := entries[match]
	if !entry.expiresAt.IsZero() && !v.Now().Before(entry.expiresAt) {
		return nil, errors.InvalidCredentials()
	}

	lctx, cancel := context.WithTimeout(ctx, v.lookupTimeout)
	defer cancel()
	principal, err := v.principals.FindByID(lctx, entry.principalID)
	if err != nil {
		return nil, errors.UpstreamUnavailable("credential-store", err)
	}
	if principal == nil {
		return nil, errors.InvalidCredentials()
	}
	if principal.Disabled {
		return nil, errors.AccountDisabled()
	}

	return &identity.Auth{
		Principal: principal,
		Scopes:    entry.scopes,
		Method:    identity.MethodAPIKey,
	}, nil
}

// Resolver adapts the validator into an identity.Resolver for middleware.
func (v *Validator) Resolver() identity.Resolver {
	return identity.ResolverFunc(func(ctx context.Context, presented string) (*identity.Auth, error) {
		return v.Validate(ctx, presented)
	})
}

// currentSnapshot returns the cached record snapshot, refreshing it when
// stale. A failed refresh falls back to the previous snapshot so a brief
// store outage does not reject every key in flight.
func (v *Validator) currentSnapshot(ctx context.Context) ([]keyEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.Now()
	if v.snapshot != nil && now.Sub(v.fetchedAt) < v.cacheTTL {
		return v.snapshot, nil
	}

	lctx, cancel := context.WithTimeout(ctx, v.lookupTimeout)
	defer cancel()
	records, err := v.keys.ListKeys(lctx)
	if err != nil {
		if v.snapshot != nil {
			v.log.Warn("key refresh failed, serving stale snapshot", logger.ErrorFields("apikey.Validate", err))
			return v.snapshot, nil
		}
		return nil, errors.UpstreamUnavailable("key-store", err)
	}

	entries := make([]keyEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, keyEntry{
			digest:      []byte(password.KeyDigest(r.Key)),
			principalID: r.PrincipalID,
			scopes:      r.Scopes,
			expiresAt:   r.ExpiresAt,
		})
	}
	v.snapshot = entries
	v.fetchedAt = now
	return entries, nil
}
