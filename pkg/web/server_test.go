package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkai/console/pkg/authstate"
	"github.com/linkai/console/pkg/config"
	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/identity"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
	"github.com/linkai/console/pkg/sso"
	"github.com/linkai/console/pkg/tenant"
)

// echoClient accepts any credential pair and emits SIGNED_IN immediately.
type echoClient struct {
	mu       sync.Mutex
	session  *identity.Session
	handlers []identity.Handler
}

func (c *echoClient) CurrentSession(context.Context) (*identity.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, nil
}

func (c *echoClient) SetSession(_ context.Context, creds identity.CredentialPair) error {
	sess := &identity.Session{
		User: identity.Identity{
			ID:       "user-1",
			Email:    "jan@oranjeduurzaam.nl",
			Metadata: map[string]string{"company_id": "comp-1"},
		},
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	c.mu.Lock()
	c.session = sess
	handlers := append([]identity.Handler(nil), c.handlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(identity.EventSignedIn, sess)
	}
	return nil
}

func (c *echoClient) SignOut(context.Context) error {
	c.mu.Lock()
	c.session = nil
	handlers := append([]identity.Handler(nil), c.handlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(identity.EventSignedOut, nil)
	}
	return nil
}

func (c *echoClient) OnSessionChange(h identity.Handler) *identity.Subscription {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
	return identity.NewSubscription(nil)
}

type fixture struct {
	server *Server
	store  sessionstore.Store
	client *echoClient
	ctrl   *authstate.Controller
}

func newFixture(t *testing.T, session *identity.Session) *fixture {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			SSOBaseURL:  "https://tools.linkai.nl/login",
			AppBaseURL:  "http://localhost:8080",
			ProductName: "SEO Command Centre",
			Routes: config.Routes{
				Login:        "/auth/login",
				Callback:     "/auth/sso-callback",
				Dashboard:    "/",
				Unauthorized: "/auth/unauthorized",
			},
			SuccessRedirectDelay: 1500 * time.Millisecond,
			FailureRedirectDelay: 3 * time.Second,
		},
	}
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	store := sessionstore.NewMemoryStore(time.Hour)
	client := &echoClient{session: session}

	resolver := authstate.NewProfileResolver(nil, nil, store, logger, nil)
	ctrl := authstate.NewController(client, resolver, store, logger, nil)
	ctrl.Init(context.Background())
	t.Cleanup(ctrl.Close)

	handshake := sso.NewHandshake(client, store, logger, nil, sso.HandshakeOptions{
		ExchangeTimeout: 2 * time.Second,
		DefaultRedirect: cfg.Auth.Routes.Dashboard,
	})
	urls := sso.NewURLBuilder(cfg.Auth.SSOBaseURL, cfg.Auth.AppBaseURL, cfg.Auth.Routes.Callback)
	sites := directory.NewSiteService(&staticSites{}, logger)
	tenants := tenant.NewResolver(sites, store, logger, nil, nil)

	srv := NewServer(cfg, logger, nil, store, ctrl, handshake, urls, tenants, sites)
	return &fixture{server: srv, store: store, client: client, ctrl: ctrl}
}

type staticSites struct{}

func (staticSites) List(context.Context, string) ([]directory.Site, error) {
	return []directory.Site{
		{ID: "site-1", Name: "OranjeDuurzaam.nl"},
		{ID: "site-2", Name: "GroenWonen.nl"},
	}, nil
}

func (staticSites) Create(_ context.Context, input directory.CreateSiteInput) (*directory.Site, error) {
	return &directory.Site{ID: "site-new", Name: input.Name, CompanyID: input.CompanyID}, nil
}

func signedInSession() *identity.Session {
	return &identity.Session{
		User: identity.Identity{
			ID:       "user-1",
			Email:    "jan@oranjeduurzaam.nl",
			Metadata: map[string]string{"company_id": "comp-1"},
		},
		AccessToken: "tok-1",
	}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLoginPageWhenSignedOut(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/auth/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Inloggen met LinkAI")
	assert.Contains(t, rec.Body.String(), "tools.linkai.nl/login")
}

func TestLoginRedirectsWhenSignedIn(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.get("/auth/login?redirect=%2Fs%2Fsite-1%2Fkeywords")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/s/site-1/keywords", rec.Header().Get("Location"))
}

func TestCallbackServesRelayWithoutTokens(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/auth/sso-callback")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "window.location.hash")
}

func TestCallbackSuccessFromQuery(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/auth/sso-callback?access_token=acc-1&refresh_token=ref-1&redirect_path=%2Fs%2Fsite-1%2Fdashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Succesvol ingelogd")
	assert.Contains(t, body, "url=/s/site-1/dashboard")

	data := sessionstore.GetAuthData(context.Background(), f.store)
	assert.Equal(t, "user-1", data.UserID)
	assert.Equal(t, "comp-1", data.CompanyID)
}

func TestCallbackSuccessFromRelayedFragment(t *testing.T) {
	f := newFixture(t, nil)

	fragment := url.QueryEscape("access_token=acc-2&refresh_token=ref-2")
	rec := f.get("/auth/sso-callback?fragment=" + fragment)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Succesvol ingelogd")
}

func TestCallbackFailureRedirectsToLogin(t *testing.T) {
	f := newFixture(t, nil)

	// relayed but empty fragment: extraction fails
	rec := f.get("/auth/sso-callback?fragment=")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Inloggen mislukt")
	assert.Contains(t, body, "url=/auth/login")
	assert.Contains(t, body, "3;")
}

func TestUnauthorizedPage(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/auth/unauthorized")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Geen toegang")
}

func TestLogoutRedirectsToPortal(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.get("/auth/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "logout")
	assert.False(t, sessionstore.IsAuthenticated(context.Background(), f.store))
}

func TestGuardedRouteRedirectsWhenSignedOut(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/s/site-1/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "tools.linkai.nl/login")
}

func TestSiteViewRendersForSignedIn(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.get("/s/site-2/keywords")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "GroenWonen.nl")
	assert.Contains(t, body, "keywords")

	// the route id became the active tenant
	stored, err := f.store.Get(context.Background(), sessionstore.KeyActiveWebsite)
	require.NoError(t, err)
	assert.Equal(t, "site-2", stored)
}

func TestSiteViewUnknownView(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.get("/s/site-1/nonsense")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRootRedirectsToActiveSite(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/s/site-1/dashboard", rec.Header().Get("Location"))
}

func TestTenantSwitch(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.postForm("/tenant/switch", url.Values{
		"site_id":      {"site-2"},
		"current_path": {"/s/site-1/performance"},
	})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/s/site-2/performance", rec.Header().Get("Location"))

	stored, err := f.store.Get(context.Background(), sessionstore.KeyActiveWebsite)
	require.NoError(t, err)
	assert.Equal(t, "site-2", stored)
}

func TestProfileAPI(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.get("/api/profile")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jan@oranjeduurzaam.nl")
	assert.Contains(t, rec.Body.String(), "comp-1")
}

func TestSitesAPI(t *testing.T) {
	f := newFixture(t, signedInSession())

	rec := f.get("/api/sites")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OranjeDuurzaam.nl")

	rec = f.postForm("/api/sites", nil)
	// JSON body required
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
