// Package web is the HTTP surface of the console session gateway: the auth
// pages (login, SSO callback, logout, unauthorized), the guarded site views,
// and the JSON API the front-end calls for profile and website data.
package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linkai/console/pkg/authstate"
	"github.com/linkai/console/pkg/config"
	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/guard"
	"github.com/linkai/console/pkg/httputil"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
	"github.com/linkai/console/pkg/sso"
	"github.com/linkai/console/pkg/tenant"
)

// SiteLister is the site directory surface the web layer consumes.
type SiteLister interface {
	List(ctx context.Context, companyID string) ([]directory.Site, error)
	Create(ctx context.Context, input directory.CreateSiteInput) (*directory.Site, error)
}

// Server wires the console's HTTP routes.
type Server struct {
	cfg        *config.Config
	logger     *observability.Logger
	metrics    *observability.Metrics
	store      sessionstore.Store
	controller *authstate.Controller
	handshake  *sso.Handshake
	urls       *sso.URLBuilder
	tenants    *tenant.Resolver
	sites      SiteLister
	guard      *guard.Guard

	router *mux.Router
}

// NewServer builds the router. metrics may be nil.
func NewServer(
	cfg *config.Config,
	logger *observability.Logger,
	metrics *observability.Metrics,
	store sessionstore.Store,
	controller *authstate.Controller,
	handshake *sso.Handshake,
	urls *sso.URLBuilder,
	tenants *tenant.Resolver,
	sites SiteLister,
) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		store:      store,
		controller: controller,
		handshake:  handshake,
		urls:       urls,
		tenants:    tenants,
		sites:      sites,
	}
	s.guard = guard.New(controller, store, urls, logger, metrics, http.HandlerFunc(s.loadingFallback))
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(httputil.RequestIDMiddleware)
	r.Use(httputil.LoggingMiddleware(s.logger))
	r.Use(httputil.RecoveryMiddleware(s.logger))

	// public auth pages
	r.HandleFunc(s.cfg.Auth.Routes.Login, s.instrumented("/auth/login", s.handleLogin)).Methods(http.MethodGet)
	r.HandleFunc(s.cfg.Auth.Routes.Callback, s.instrumented("/auth/sso-callback", s.handleCallback)).Methods(http.MethodGet)
	r.HandleFunc(s.cfg.Auth.Routes.Unauthorized, s.instrumented("/auth/unauthorized", s.handleUnauthorized)).Methods(http.MethodGet)
	r.HandleFunc("/auth/logout", s.instrumented("/auth/logout", s.handleLogout)).Methods(http.MethodGet, http.MethodPost)

	// guarded console surface
	protected := func(path string, h http.HandlerFunc) http.Handler {
		return s.guard.Middleware(http.HandlerFunc(s.instrumented(path, h)))
	}
	r.Handle("/", protected("/", s.handleRoot)).Methods(http.MethodGet)
	r.Handle("/s/{siteId}/{view}", protected("/s/{siteId}/{view}", s.handleSiteView)).Methods(http.MethodGet)
	r.Handle("/tenant/switch", protected("/tenant/switch", s.handleTenantSwitch)).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/profile", protected("/api/profile", s.handleProfile)).Methods(http.MethodGet)
	api.Handle("/profile/refresh", protected("/api/profile/refresh", s.handleProfileRefresh)).Methods(http.MethodPost)
	api.Handle("/sites", protected("/api/sites", s.handleListSites)).Methods(http.MethodGet)
	api.Handle("/sites", protected("/api/sites", s.handleCreateSite)).Methods(http.MethodPost)

	return r
}

func (s *Server) instrumented(path string, h http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return h
	}
	wrapped := s.metrics.InstrumentHandler(path, h)
	return wrapped.ServeHTTP
}

func (s *Server) loadingFallback(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	loadingPage.Execute(w, map[string]interface{}{
		"Title":   s.cfg.Auth.ProductName,
		"Product": s.cfg.Auth.ProductName,
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
