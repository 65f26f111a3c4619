package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/kbukum/authkit/identity"
)

// Provider is an external authorization provider speaking the
// authorization-code grant.
type Provider interface {
	// Name returns the provider identifier (e.g. "google", "github").
	Name() string

	// AuthURL returns the authorization URL carrying the state nonce and the
	// PKCE challenge.
	AuthURL(state string, pkce *PKCE, redirectURI string) string

	// Exchange trades an authorization code (plus the PKCE verifier) for the
	// provider's view of the authenticated user.
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*identity.ExternalIdentity, error)
}

// ProviderConfig configures an OAuth2Provider.
type ProviderConfig struct {
	// Name is the provider identifier.
	Name string `mapstructure:"name"`

	// ClientID is the OAuth2 client identifier.
	ClientID string `mapstructure:"client_id"`

	// ClientSecret is the OAuth2 client secret.
	ClientSecret string `mapstructure:"client_secret"`

	// AuthURL is the provider's authorization endpoint.
	AuthURL string `mapstructure:"auth_url"`

	// TokenURL is the provider's token endpoint.
	TokenURL string `mapstructure:"token_url"`

	// UserInfoURL is the endpoint the user profile is fetched from.
	UserInfoURL string `mapstructure:"user_info_url"`

	// RedirectURL is the default callback URL registered with the provider.
	RedirectURL string `mapstructure:"redirect_url"`

	// Scopes are the scopes requested during authorization.
	Scopes []string `mapstructure:"scopes"`
}

// Validate checks required fields.
func (c *ProviderConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("flow: provider name is required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("flow: client_id and client_secret are required")
	}
	if c.AuthURL == "" || c.TokenURL == "" {
		return fmt.Errorf("flow: auth_url and token_url are required")
	}
	if c.UserInfoURL == "" {
		return fmt.Errorf("flow: user_info_url is required")
	}
	return nil
}

// OAuth2Provider is a Provider for any standard authorization-code endpoint
// pair, built on golang.org/x/oauth2.
type OAuth2Provider struct {
	name        string
	cfg         oauth2.Config
	userInfoURL string
	client      *http.Client
}

// OAuth2ProviderOption configures the provider.
type OAuth2ProviderOption func(*OAuth2Provider)

// WithHTTPClient sets the HTTP client used for the exchange and the user
// info fetch. Deadlines on it bound how long a slow provider can stall a
// callback.
func WithHTTPClient(client *http.Client) OAuth2ProviderOption {
	return func(p *OAuth2Provider) { p.client = client }
}

// NewOAuth2Provider creates a provider from configuration.
func NewOAuth2Provider(cfg *ProviderConfig, opts ...OAuth2ProviderOption) (*OAuth2Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &OAuth2Provider{
		name: cfg.Name,
		cfg: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		client:      &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements Provider.
func (p *OAuth2Provider) Name() string { return p.name }

// AuthURL implements Provider.
func (p *OAuth2Provider) AuthURL(state string, pkce *PKCE, redirectURI string) string {
	cfg := p.cfg
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	params := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if pkce != nil {
		params = append(params,
			oauth2.SetAuthURLParam("code_challenge", pkce.CodeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", pkce.CodeChallengeMethod),
		)
	}
	return cfg.AuthCodeURL(state, params...)
}

// Exchange implements Provider. The context carries the caller's deadline;
// the exchange and the profile fetch both honor it.
func (p *OAuth2Provider) Exchange(ctx context.Context, code, verifier, redirectURI string) (*identity.ExternalIdentity, error) {
	cfg := p.cfg
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	var params []oauth2.AuthCodeOption
	if verifier != "" {
		params = append(params, oauth2.SetAuthURLParam("code_verifier", verifier))
	}
	tok, err := cfg.Exchange(ctx, code, params...)
	if err != nil {
		return nil, fmt.Errorf("flow: code exchange with %s: %w", p.name, err)
	}
	return p.fetchIdentity(ctx, tok)
}

// fetchIdentity GETs the user info endpoint and maps the common profile
// claims. The full claim set is preserved in Raw for project-specific
// extraction.
func (p *OAuth2Provider) fetchIdentity(ctx context.Context, tok *oauth2.Token) (*identity.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("flow: user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flow: fetch user info from %s: %w", p.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flow: user info from %s: unexpected status %d", p.name, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("flow: decode user info: %w", err)
	}

	ext := &identity.ExternalIdentity{Provider: p.name, Raw: raw}
	ext.Subject = firstString(raw, "sub", "id")
	ext.Email = firstString(raw, "email")
	ext.Name = firstString(raw, "name", "login")
	if v, ok := raw["email_verified"].(bool); ok {
		ext.EmailVerified = v
	}
	if ext.Subject == "" {
		return nil, fmt.Errorf("flow: user info from %s carries no subject", p.name)
	}
	return ext, nil
}

// firstString returns the first key present as a non-empty string. Numeric
// ids (GitHub) are formatted.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
