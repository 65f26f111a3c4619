package flow

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/session"
	kvstore "github.com/kbukum/authkit/store"
	"github.com/kbukum/authkit/token"
)

const (
	defaultStateTTL        = 10 * time.Minute
	defaultExchangeTimeout = 10 * time.Second

	statePrefix = "flow:state:"
)

// stateRecord is what Begin stashes under the state nonce. The verifier
// never leaves the server.
type stateRecord struct {
	Provider    string    `json:"provider"`
	Verifier    string    `json:"verifier"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeginResult is the outcome of starting a flow.
type BeginResult struct {
	// AuthURL is where the user agent is redirected.
	AuthURL string `json:"auth_url"`

	// State is the nonce echoed back on the callback.
	State string `json:"state"`
}

// Coordinator drives the authorization-code flow end to end.
type Coordinator struct {
	providers       map[string]Provider
	states          kvstore.KV
	issuer          *session.Issuer
	mapper          PrincipalMapper
	stateTTL        time.Duration
	exchangeTimeout time.Duration
	log             *logger.Logger
	tracer          trace.Tracer
}

// CoordinatorOption configures the coordinator.
type CoordinatorOption func(*Coordinator)

// WithStateTTL bounds how long a started flow stays completable
// (default: 10m).
func WithStateTTL(ttl time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.stateTTL = ttl
		}
	}
}

// WithExchangeTimeout bounds the provider exchange on Complete
// (default: 10s).
func WithExchangeTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.exchangeTimeout = d
		}
	}
}

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(log *logger.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.log = log }
}

// WithCoordinatorTracer sets the tracer.
func WithCoordinatorTracer(t trace.Tracer) CoordinatorOption {
	return func(c *Coordinator) { c.tracer = t }
}

// NewCoordinator creates a coordinator over the given providers.
func NewCoordinator(providers []Provider, states kvstore.KV, issuer *session.Issuer, mapper PrincipalMapper, opts ...CoordinatorOption) (*Coordinator, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("flow: at least one provider is required")
	}
	if states == nil || issuer == nil || mapper == nil {
		return nil, fmt.Errorf("flow: state store, issuer, and mapper are required")
	}
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if _, dup := byName[p.Name()]; dup {
			return nil, fmt.Errorf("flow: duplicate provider %q", p.Name())
		}
		byName[p.Name()] = p
	}
	c := &Coordinator{
		providers:       byName,
		states:          states,
		issuer:          issuer,
		mapper:          mapper,
		stateTTL:        defaultStateTTL,
		exchangeTimeout: defaultExchangeTimeout,
		log:             logger.Nop(),
		tracer:          otel.Tracer("authkit/flow"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("flow.coordinator")
	return c, nil
}

// Begin starts a flow against the named provider: generates the state nonce
// and PKCE pair, stashes the verifier under the state, and returns the
// redirect URL.
func (c *Coordinator) Begin(ctx context.Context, providerName, redirectURI string) (*BeginResult, error) {
	ctx, span := c.tracer.Start(ctx, "flow.Begin")
	defer span.End()

	provider, ok := c.providers[providerName]
	if !ok {
		return nil, errors.InvalidOrExpiredState().WithDetail("provider", providerName)
	}

	state, err := GenerateState()
	if err != nil {
		return nil, errors.Internal(err)
	}
	pkce, err := NewPKCE()
	if err != nil {
		return nil, errors.Internal(err)
	}

	record, err := json.Marshal(stateRecord{
		Provider:    providerName,
		Verifier:    pkce.CodeVerifier,
		RedirectURI: redirectURI,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := c.states.Put(ctx, statePrefix+state, record, c.stateTTL); err != nil {
		return nil, errors.UpstreamUnavailable("state-store", err)
	}

	c.log.Info("flow started", logger.Fields(
		logger.FieldProvider, providerName,
		logger.FieldFlowState, state,
	))
	return &BeginResult{
		AuthURL: provider.AuthURL(state, pkce, redirectURI),
		State:   state,
	}, nil
}

// CompleteResult is the outcome of a finished flow.
type CompleteResult struct {
	// Identity is the provider's view of the authenticated user.
	Identity *identity.ExternalIdentity `json:"identity"`

	// Pair is the first-party token pair minted for the mapped principal.
	Pair *token.Pair `json:"pair"`
}

// Complete finishes a flow from the provider callback. The state is consumed
// atomically, so concurrent callbacks with the same state yield exactly one
// token pair; the rest see INVALID_OR_EXPIRED_STATE, as does any state that
// is unknown, expired, or already used.
func (c *Coordinator) Complete(ctx context.Context, state, code string) (*CompleteResult, error) {
	ctx, span := c.tracer.Start(ctx, "flow.Complete")
	defer span.End()

	raw, ok, err := c.states.Take(ctx, statePrefix+state)
	if err != nil {
		return nil, errors.UpstreamUnavailable("state-store", err)
	}
	if !ok {
		c.log.Warn("callback with unknown or consumed state", logger.Fields(logger.FieldFlowState, state))
		return nil, errors.InvalidOrExpiredState()
	}

	var record stateRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Internal(err)
	}
	provider, ok := c.providers[record.Provider]
	if !ok {
		return nil, errors.InvalidOrExpiredState()
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, c.exchangeTimeout)
	defer cancel()
	ext, err := provider.Exchange(exchangeCtx, code, record.Verifier, record.RedirectURI)
	if err != nil {
		var ae *errors.AppError
		if stderrors.As(err, &ae) {
			return nil, ae
		}
		c.log.Error("provider exchange failed", logger.ErrorFields("flow.Complete", err))
		return nil, errors.UpstreamUnavailable(record.Provider, err)
	}

	principal, err := c.mapper.MapExternal(ctx, ext)
	if err != nil {
		var ae *errors.AppError
		if stderrors.As(err, &ae) {
			return nil, ae
		}
		return nil, errors.UpstreamUnavailable("principal-mapper", err)
	}
	if principal == nil {
		c.log.Warn("external identity has no local principal", logger.Fields(
			logger.FieldProvider, record.Provider,
		))
		return nil, errors.InvalidCredentials()
	}
	if principal.Disabled {
		return nil, errors.AccountDisabled()
	}

	pair, err := c.issuer.MintPair(ctx, principal)
	if err != nil {
		return nil, err
	}
	c.log.Info("flow completed", logger.Fields(
		logger.FieldProvider, record.Provider,
		logger.FieldPrincipalID, principal.ID,
	))
	return &CompleteResult{Identity: ext, Pair: pair}, nil
}
