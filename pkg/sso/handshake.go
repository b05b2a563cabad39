package sso

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/linkai/console/pkg/identity"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
)

// State is the phase of a callback handshake
type State string

const (
	StateExtracting State = "extracting"
	StateExchanging State = "exchanging"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Result is the terminal outcome of a handshake run
type Result struct {
	State        State
	RedirectPath string
	Reason       string
	Err          error
}

// Handshake runs the SSO callback exchange: extract the credential pair
// from the redirect, install it at the identity provider, and wait for the
// provider's SIGNED_IN event. Completion of the install call is not
// success; only the event is.
type Handshake struct {
	client          identity.Client
	store           sessionstore.Store
	logger          *observability.Logger
	metrics         *observability.Metrics
	exchangeTimeout time.Duration
	defaultRedirect string
}

// HandshakeOptions configures a Handshake.
type HandshakeOptions struct {
	// ExchangeTimeout bounds the wait for the SIGNED_IN event. Defaults
	// to 10s.
	ExchangeTimeout time.Duration
	// DefaultRedirect is used when the callback carries no redirect_path.
	// Defaults to "/".
	DefaultRedirect string
}

// NewHandshake wires a handshake runner. metrics may be nil.
func NewHandshake(
	client identity.Client,
	store sessionstore.Store,
	logger *observability.Logger,
	metrics *observability.Metrics,
	opts HandshakeOptions,
) *Handshake {
	if opts.ExchangeTimeout <= 0 {
		opts.ExchangeTimeout = 10 * time.Second
	}
	if opts.DefaultRedirect == "" {
		opts.DefaultRedirect = "/"
	}
	return &Handshake{
		client:          client,
		store:           store,
		logger:          logger,
		metrics:         metrics,
		exchangeTimeout: opts.ExchangeTimeout,
		defaultRedirect: opts.DefaultRedirect,
	}
}

// Run executes one handshake. query is the callback's query string and
// fragment the relayed URL fragment, either of which may carry the tokens.
// Run always returns a terminal state, and its event listener is released
// before it returns regardless of outcome.
func (h *Handshake) Run(ctx context.Context, query url.Values, fragment string) Result {
	redirect := h.redirectPath(query)

	creds, err := ExtractCredentials(query, fragment)
	if err != nil {
		h.logger.Warn("callback carried no credentials")
		return h.fail(redirect, "missing_credentials", "Geen inloggegevens gevonden in de link.", err)
	}

	// One-shot listener, registered before the install so the event
	// cannot be missed. Buffered so the dispatcher never blocks on us.
	signedIn := make(chan *identity.Session, 1)
	sub := h.client.OnSessionChange(func(event identity.EventType, sess *identity.Session) {
		if event == identity.EventSignedIn {
			select {
			case signedIn <- sess:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	// Fire and forget: the install's completion is advisory. Its error is
	// decisive only when no SIGNED_IN event arrives.
	installErr := make(chan error, 1)
	go func() {
		installErr <- h.client.SetSession(ctx, creds)
	}()

	timer := time.NewTimer(h.exchangeTimeout)
	defer timer.Stop()

	for {
		select {
		case sess := <-signedIn:
			h.persist(ctx, sess)
			h.logger.WithField("user_id", sess.User.ID).Info("sso handshake succeeded")
			if h.metrics != nil {
				h.metrics.CallbackOutcomesTotal.WithLabelValues("success").Inc()
			}
			return Result{State: StateSuccess, RedirectPath: redirect}

		case err := <-installErr:
			if err == nil {
				// keep waiting for the event
				installErr = nil
				continue
			}
			h.logger.WithError(err).Warn("sso token exchange rejected")
			return h.fail(redirect, "exchange_rejected", "Inloggen mislukt. Probeer het opnieuw.", ErrExchangeFailed)

		case <-timer.C:
			return h.fail(redirect, "timeout", "Inloggen duurde te lang. Probeer het opnieuw.", ErrExchangeFailed)

		case <-ctx.Done():
			return h.fail(redirect, "canceled", "Inloggen afgebroken.", ctx.Err())
		}
	}
}

func (h *Handshake) fail(redirect, outcome, reason string, err error) Result {
	if h.metrics != nil {
		h.metrics.CallbackOutcomesTotal.WithLabelValues(outcome).Inc()
	}
	return Result{State: StateFailed, RedirectPath: redirect, Reason: reason, Err: err}
}

// persist mirrors the fresh session into the session store, including the
// opportunistic company id from user metadata when the provider sent one.
func (h *Handshake) persist(ctx context.Context, sess *identity.Session) {
	if sess == nil {
		return
	}
	err := sessionstore.SetAuthData(ctx, h.store, sessionstore.AuthData{
		UserID:    sess.User.ID,
		AuthToken: sess.AccessToken,
		CompanyID: sess.CompanyID(),
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to persist handshake session")
	}
}

// redirectPath returns the requested post-login destination. Only local
// paths are honored; anything absolute or protocol-relative falls back to
// the default.
func (h *Handshake) redirectPath(query url.Values) string {
	path := query.Get("redirect_path")
	if path == "" || path[0] != '/' || strings.HasPrefix(path, "//") {
		return h.defaultRedirect
	}
	return path
}
