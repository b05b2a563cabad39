// Package guard gates protected routes on authentication state: signed-in
// requests pass, unresolved ones are held on a neutral page, and everything
// else bounces to the SSO portal.
package guard

import (
	"net/http"

	"github.com/linkai/console/pkg/authstate"
	"github.com/linkai/console/pkg/contextkeys"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
	"github.com/linkai/console/pkg/sso"
)

// Decision is the outcome of guarding one request
type Decision string

const (
	// DecisionAllow serves the protected content
	DecisionAllow Decision = "allow"
	// DecisionFallback serves a neutral holding page while auth state is
	// still resolving
	DecisionFallback Decision = "fallback"
	// DecisionRedirect sends the user to the SSO portal
	DecisionRedirect Decision = "redirect"
)

// Decide applies the guard matrix. hint reports whether the session store
// holds a user id and token pair from an earlier sign-in; it buys an
// optimistic pass only while auth state is still loading, never once
// loading has finished without a session.
func Decide(loading, authenticated, hint bool) Decision {
	if authenticated {
		return DecisionAllow
	}
	if !loading {
		return DecisionRedirect
	}
	if hint {
		return DecisionAllow
	}
	return DecisionFallback
}

// Guard wires the decision matrix into HTTP middleware.
type Guard struct {
	controller *authstate.Controller
	store      sessionstore.Store
	urls       *sso.URLBuilder
	logger     *observability.Logger
	metrics    *observability.Metrics
	fallback   http.Handler
}

// New builds a guard. fallback may be nil; a plain 503 holding response is
// then used.
func New(
	controller *authstate.Controller,
	store sessionstore.Store,
	urls *sso.URLBuilder,
	logger *observability.Logger,
	metrics *observability.Metrics,
	fallback http.Handler,
) *Guard {
	if fallback == nil {
		fallback = http.HandlerFunc(defaultFallback)
	}
	return &Guard{
		controller: controller,
		store:      store,
		urls:       urls,
		logger:     logger,
		metrics:    metrics,
		fallback:   fallback,
	}
}

// Middleware guards next. Redirects carry the request path so the portal
// returns the user to the page they asked for.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := g.controller.Snapshot()
		hint := sessionstore.IsAuthenticated(r.Context(), g.store)

		decision := Decide(state.Loading, state.Authenticated(), hint)
		if g.metrics != nil {
			g.metrics.GuardDecisionsTotal.WithLabelValues(string(decision)).Inc()
		}

		switch decision {
		case DecisionAllow:
			if state.User != nil {
				r = r.WithContext(contextkeys.WithUserID(r.Context(), state.User.ID))
			}
			next.ServeHTTP(w, r)
		case DecisionFallback:
			g.fallback.ServeHTTP(w, r)
		case DecisionRedirect:
			g.logger.WithField("path", r.URL.Path).Info("unauthorized access, redirecting to login")
			http.Redirect(w, r, g.urls.LoginURL(r.URL.Path), http.StatusFound)
		}
	})
}

func defaultFallback(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("Bezig met laden...\n"))
}
