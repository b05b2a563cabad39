package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// PlatformClient talks to the hosted identity platform over its REST auth
// API. It keeps the installed session in memory; persistence across gateway
// restarts is the session store's job, not this client's.
type PlatformClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	log        *logrus.Entry

	mu      sync.RWMutex
	session *Session

	events *dispatcher
}

// PlatformOptions configures a PlatformClient.
type PlatformOptions struct {
	// BaseURL is the platform root, e.g. https://xyz.identity.example.com
	BaseURL string
	// AnonKey is the public API key sent with every request
	AnonKey string
	// Timeout bounds each HTTP call. Defaults to 10s.
	Timeout time.Duration
}

// NewPlatformClient creates a client for the hosted identity platform.
func NewPlatformClient(opts PlatformOptions) *PlatformClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &PlatformClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		anonKey: opts.AnonKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log:    logrus.WithField("component", "identity.platform"),
		events: newDispatcher(),
	}
}

// CurrentSession returns the installed session, refreshing the identity from
// the platform when one is present. A nil session with a nil error means
// signed out.
func (c *PlatformClient) CurrentSession(ctx context.Context) (*Session, error) {
	c.mu.RLock()
	sess := c.session
	c.mu.RUnlock()
	if sess == nil {
		return nil, nil
	}
	if sess.ExpiresAt.IsZero() || time.Now().Before(sess.ExpiresAt) {
		return sess, nil
	}

	// expired access token; re-validate against the platform
	user, err := c.fetchUser(ctx, sess.AccessToken)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.session != nil {
		c.session.User = *user
	}
	sess = c.session
	c.mu.Unlock()
	return sess, nil
}

// SetSession validates the credential pair against the platform and, on
// success, installs it and emits EventSignedIn. Failures leave any existing
// session untouched.
func (c *PlatformClient) SetSession(ctx context.Context, creds CredentialPair) error {
	if creds.AccessToken == "" {
		return ErrInvalidCredentials
	}

	user, err := c.fetchUser(ctx, creds.AccessToken)
	if err != nil {
		c.log.WithError(err).Warn("session install rejected")
		return err
	}

	sess := &Session{
		User:         *user,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}

	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()

	c.log.WithField("user_id", user.ID).Info("session installed")
	c.events.emit(EventSignedIn, sess)
	return nil
}

// SignOut revokes the session at the platform and clears the local copy.
// EventSignedOut is emitted even when revocation fails; the local session is
// gone regardless.
func (c *PlatformClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	var revokeErr error
	if sess != nil {
		revokeErr = c.revoke(ctx, sess.AccessToken)
		if revokeErr != nil {
			c.log.WithError(revokeErr).Warn("remote sign-out failed")
		}
	}

	c.events.emit(EventSignedOut, nil)
	return revokeErr
}

// OnSessionChange registers a session-change handler.
func (c *PlatformClient) OnSessionChange(handler Handler) *Subscription {
	return c.events.subscribe(handler)
}

func (c *PlatformClient) fetchUser(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("identity platform returned %d", resp.StatusCode)
	}

	var user Identity
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (c *PlatformClient) revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	c.authorize(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity platform returned %d", resp.StatusCode)
	}
	return nil
}

func (c *PlatformClient) authorize(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
}
