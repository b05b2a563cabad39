package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCClient implements Client against a standards-compliant OpenID Connect
// provider. It is the self-hosted alternative to the hosted platform client.
type OIDCClient struct {
	provider *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
	oauth    oauth2.Config

	mu      sync.RWMutex
	session *Session
	source  oauth2.TokenSource

	events *dispatcher
}

// OIDCOptions configures an OIDCClient.
type OIDCOptions struct {
	// IssuerURL is the provider's issuer, used for discovery
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// NewOIDCClient performs provider discovery and builds a client. The context
// bounds the discovery request only.
func NewOIDCClient(ctx context.Context, opts OIDCOptions) (*OIDCClient, error) {
	provider, err := gooidc.NewProvider(ctx, opts.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", opts.IssuerURL, err)
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCClient{
		provider: provider,
		verifier: provider.Verifier(&gooidc.Config{ClientID: opts.ClientID}),
		oauth: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		events: newDispatcher(),
	}, nil
}

// CurrentSession returns the installed session, transparently refreshing the
// access token through the provider when it has expired. A refresh that
// rotates the token emits EventTokenRefreshed.
func (c *OIDCClient) CurrentSession(ctx context.Context) (*Session, error) {
	c.mu.RLock()
	sess, source := c.session, c.source
	c.mu.RUnlock()
	if sess == nil {
		return nil, nil
	}
	if sess.ExpiresAt.IsZero() || time.Now().Before(sess.ExpiresAt) {
		return sess, nil
	}
	if source == nil {
		return nil, ErrInvalidCredentials
	}

	tok, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	c.mu.Lock()
	refreshed := c.session != nil && tok.AccessToken != c.session.AccessToken
	if c.session != nil {
		c.session.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			c.session.RefreshToken = tok.RefreshToken
		}
		c.session.ExpiresAt = tok.Expiry
	}
	sess = c.session
	c.mu.Unlock()

	if refreshed {
		c.events.emit(EventTokenRefreshed, sess)
	}
	return sess, nil
}

// SetSession validates the credentials through the provider's userinfo
// endpoint and installs them, emitting EventSignedIn on success.
func (c *OIDCClient) SetSession(ctx context.Context, creds CredentialPair) error {
	if creds.AccessToken == "" {
		return ErrInvalidCredentials
	}

	tok := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	info, err := c.provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	var claims struct {
		Email    string            `json:"email"`
		Metadata map[string]string `json:"user_metadata"`
	}
	if err := info.Claims(&claims); err != nil {
		return fmt.Errorf("decode userinfo claims: %w", err)
	}

	sess := &Session{
		User: Identity{
			ID:       info.Subject,
			Email:    claims.Email,
			Metadata: claims.Metadata,
		},
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}

	c.mu.Lock()
	c.session = sess
	if creds.RefreshToken != "" {
		c.source = c.oauth.TokenSource(context.Background(), tok)
	} else {
		c.source = nil
	}
	c.mu.Unlock()

	c.events.emit(EventSignedIn, sess)
	return nil
}

// SignOut drops the local session and emits EventSignedOut. OIDC has no
// universal revocation endpoint, so sign-out is local only.
func (c *OIDCClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.source = nil
	c.mu.Unlock()

	c.events.emit(EventSignedOut, nil)
	return nil
}

// OnSessionChange registers a session-change handler.
func (c *OIDCClient) OnSessionChange(handler Handler) *Subscription {
	return c.events.subscribe(handler)
}
