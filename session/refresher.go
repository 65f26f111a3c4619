package session

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
	kvstore "github.com/kbukum/authkit/store"
	"github.com/kbukum/authkit/token"
)

// RevocationHook is called when refresh-token reuse is detected and a family
// is revoked. Hooks run synchronously; keep them fast.
type RevocationHook func(ctx context.Context, familyID string, claims *token.Claims)

// Refresher rotates refresh tokens. Every refresh token is single-use: the
// first presentation consumes it and yields a new pair in the same family,
// any later presentation is treated as theft and revokes the family.
type Refresher struct {
	codec    *token.Codec
	verifier *Verifier
	deny     kvstore.KV
	hooks    []RevocationHook
	log      *logger.Logger
	tracer   trace.Tracer
}

// RefresherOption configures the refresher.
type RefresherOption func(*Refresher)

// WithRefresherLogger sets the logger.
func WithRefresherLogger(log *logger.Logger) RefresherOption {
	return func(r *Refresher) { r.log = log }
}

// WithRefresherTracer sets the tracer.
func WithRefresherTracer(t trace.Tracer) RefresherOption {
	return func(r *Refresher) { r.tracer = t }
}

// WithRevocationHook registers a hook fired on reuse detection.
func WithRevocationHook(hook RevocationHook) RefresherOption {
	return func(r *Refresher) { r.hooks = append(r.hooks, hook) }
}

// NewRefresher creates a refresher sharing the verifier's deny store.
func NewRefresher(codec *token.Codec, verifier *Verifier, deny kvstore.KV, opts ...RefresherOption) (*Refresher, error) {
	if codec == nil || verifier == nil || deny == nil {
		return nil, fmt.Errorf("session: codec, verifier, and deny store are required")
	}
	r := &Refresher{
		codec:    codec,
		verifier: verifier,
		deny:     deny,
		log:      logger.Nop(),
		tracer:   otel.Tracer("authkit/session"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("session.refresher")
	return r, nil
}

// Refresh exchanges a live refresh token for a new pair in the same family.
// The deny-list claim on the token id doubles as the consumption check, so a
// token replayed seconds or days after its first use takes the same path:
// the family is revoked, the hooks fire, and the caller sees REUSE_DETECTED.
// When N callers race with the same token, exactly one wins.
func (r *Refresher) Refresh(ctx context.Context, rawRefresh string) (*token.Pair, error) {
	ctx, span := r.tracer.Start(ctx, "session.Refresh")
	defer span.End()

	claims, err := r.codec.DecodeSigned(rawRefresh)
	if err != nil {
		return nil, err
	}
	if claims.Kind != token.KindRefresh {
		return nil, errors.WrongTokenKind(string(token.KindRefresh))
	}
	if err := r.codec.ValidateTime(claims); err != nil {
		return nil, err
	}
	// A token from an already-revoked family is rejected without firing the
	// hooks again.
	if denied, err := r.familyDenied(ctx, claims); err != nil {
		return nil, err
	} else if denied {
		return nil, errors.ReuseDetected()
	}

	won, err := r.deny.Claim(ctx, tokenDenyKey(claims.TokenID()), r.denyTTL(claims))
	if err != nil {
		return nil, errors.UpstreamUnavailable("deny-store", err)
	}
	if !won {
		r.revokeFamily(ctx, claims)
		return nil, errors.ReuseDetected()
	}

	principal, err := r.verifier.resolveLivePrincipal(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	access, accessClaims, err := r.codec.IssueAccess(principal.ID, principal.Roles)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, _, err := r.codec.IssueRefresh(principal.ID, claims.FamilyID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	r.log.Info("refresh rotated", logger.Fields(
		logger.FieldPrincipalID, principal.ID,
		logger.FieldFamilyID, claims.FamilyID,
	))
	return &token.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    accessClaims.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates a refresh token and its whole family, e.g. on logout.
// The token must carry a valid signature and pass time validation; revoking
// an expired or tampered token is a no-op reported as the corresponding
// verification error.
func (r *Refresher) Revoke(ctx context.Context, rawRefresh string) error {
	ctx, span := r.tracer.Start(ctx, "session.Revoke")
	defer span.End()

	claims, err := r.codec.DecodeSigned(rawRefresh)
	if err != nil {
		return err
	}
	if claims.Kind != token.KindRefresh {
		return errors.WrongTokenKind(string(token.KindRefresh))
	}
	if err := r.codec.ValidateTime(claims); err != nil {
		return err
	}
	if _, err := r.deny.Claim(ctx, tokenDenyKey(claims.TokenID()), r.denyTTL(claims)); err != nil {
		return errors.UpstreamUnavailable("deny-store", err)
	}
	if claims.FamilyID != "" {
		if err := r.deny.Put(ctx, familyDenyKey(claims.FamilyID), nil, r.codec.RefreshTTL()); err != nil {
			return errors.UpstreamUnavailable("deny-store", err)
		}
	}
	r.log.Info("refresh family revoked", logger.Fields(
		logger.FieldPrincipalID, claims.Subject,
		logger.FieldFamilyID, claims.FamilyID,
	))
	return nil
}

// familyDenied reports whether the token's refresh family has been revoked.
func (r *Refresher) familyDenied(ctx context.Context, claims *token.Claims) (bool, error) {
	if claims.FamilyID == "" {
		return false, nil
	}
	_, denied, err := r.deny.Get(ctx, familyDenyKey(claims.FamilyID))
	if err != nil {
		return false, errors.UpstreamUnavailable("deny-store", err)
	}
	return denied, nil
}

// revokeFamily denies the family and fires the registered hooks.
func (r *Refresher) revokeFamily(ctx context.Context, claims *token.Claims) {
	r.log.Warn("refresh token reuse detected", logger.Fields(
		logger.FieldPrincipalID, claims.Subject,
		logger.FieldFamilyID, claims.FamilyID,
		logger.FieldTokenID, claims.TokenID(),
	))
	if claims.FamilyID != "" {
		if err := r.deny.Put(ctx, familyDenyKey(claims.FamilyID), nil, r.codec.RefreshTTL()); err != nil {
			r.log.Error("family revocation failed", logger.ErrorFields("refresh", err))
		}
	}
	for _, hook := range r.hooks {
		hook(ctx, claims.FamilyID, claims)
	}
}

// denyTTL keeps a deny entry alive as long as the token itself could still
// pass time validation.
func (r *Refresher) denyTTL(claims *token.Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return r.codec.RefreshTTL()
	}
	remaining := time.Until(claims.ExpiresAt.Time) + 2*time.Minute
	if remaining < time.Minute {
		remaining = time.Minute
	}
	return remaining
}
