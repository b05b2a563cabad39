package authstate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/linkai/console/pkg/async"
	"github.com/linkai/console/pkg/identity"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
)

// Controller is the process-scoped authentication controller. One instance
// is created at gateway start; it subscribes to the identity client for the
// life of the process.
type Controller struct {
	client   identity.Client
	resolver *ProfileResolver
	store    sessionstore.Store
	logger   *observability.Logger
	metrics  *observability.Metrics

	mu    sync.RWMutex
	state State

	initOnce sync.Once
	sub      *identity.Subscription
	sf       singleflight.Group
}

// NewController builds the controller. Call Init before serving traffic.
func NewController(
	client identity.Client,
	resolver *ProfileResolver,
	store sessionstore.Store,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Controller {
	return &Controller{
		client:   client,
		resolver: resolver,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		state:    State{Loading: true},
	}
}

// Init performs the initial session fetch, resolves the profile, and
// subscribes to session-change events. It runs at most once; later calls
// are no-ops. Fetch failures degrade to the unauthenticated state rather
// than blocking startup, and Loading is false when Init returns.
func (c *Controller) Init(ctx context.Context) {
	c.initOnce.Do(func() {
		defer func() {
			c.mu.Lock()
			c.state.Loading = false
			c.mu.Unlock()
		}()

		sess, err := c.client.CurrentSession(ctx)
		if err != nil {
			c.logger.WithError(err).Warn("initial session fetch failed")
			c.restoreCachedProfile(ctx)
		} else if sess != nil {
			c.adoptSession(ctx, sess, "init")
		} else {
			c.restoreCachedProfile(ctx)
		}

		c.sub = c.client.OnSessionChange(c.handleEvent)
	})
}

// adoptSession installs the session into the snapshot, mirrors it to the
// session store, and resolves the profile synchronously.
func (c *Controller) adoptSession(ctx context.Context, sess *identity.Session, source string) {
	c.persistSession(ctx, sess)

	profile, strategy := c.resolver.Resolve(ctx, sess)

	c.mu.Lock()
	c.state.User = &sess.User
	c.state.Session = sess
	c.state.Profile = profile
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SignInsTotal.WithLabelValues(source).Inc()
	}
	c.logger.WithFields(map[string]interface{}{
		"user_id":  sess.User.ID,
		"strategy": strategy,
	}).Info("session adopted")
}

// restoreCachedProfile serves the last-known profile from the session store
// so returning users see their identity while signed out of the provider.
func (c *Controller) restoreCachedProfile(ctx context.Context) {
	var profile Profile
	err := sessionstore.GetJSON(ctx, c.store, sessionstore.KeyUserProfile, &profile)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.state.Profile = &profile
	c.mu.Unlock()
}

func (c *Controller) handleEvent(event identity.EventType, sess *identity.Session) {
	switch event {
	case identity.EventSignedIn:
		if sess == nil {
			return
		}
		ctx := context.Background()
		c.persistSession(ctx, sess)
		c.mu.Lock()
		c.state.User = &sess.User
		c.state.Session = sess
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.SignInsTotal.WithLabelValues("event").Inc()
		}
		// profile resolution must not block the event dispatcher
		async.Go(ctx, c.logger, 15*time.Second, "resolve-profile", func(taskCtx context.Context) error {
			profile, _ := c.resolver.Resolve(taskCtx, sess)
			c.mu.Lock()
			c.state.Profile = profile
			c.mu.Unlock()
			return nil
		})

	case identity.EventTokenRefreshed:
		if sess == nil {
			return
		}
		ctx := context.Background()
		c.persistSession(ctx, sess)
		c.mu.Lock()
		c.state.Session = sess
		c.mu.Unlock()

	case identity.EventSignedOut:
		c.clearLocal(context.Background())
	}
}

// SignOut terminates the provider session. Remote failures are logged and
// swallowed: local state and the session store are cleared no matter what,
// so the user is signed out of the console even when the provider is down.
func (c *Controller) SignOut(ctx context.Context) {
	if err := c.client.SignOut(ctx); err != nil {
		c.logger.WithError(err).Warn("provider sign-out failed")
		// the provider may not have emitted SIGNED_OUT; clear ourselves
		c.clearLocal(ctx)
	}
}

func (c *Controller) clearLocal(ctx context.Context) {
	c.mu.Lock()
	alreadyClear := c.state.User == nil && c.state.Session == nil && c.state.Profile == nil
	c.state.User = nil
	c.state.Session = nil
	c.state.Profile = nil
	c.mu.Unlock()

	if err := sessionstore.ClearAuthData(ctx, c.store); err != nil {
		c.logger.WithError(err).Warn("failed to clear session store")
	}
	if !alreadyClear && c.metrics != nil {
		c.metrics.SignOutsTotal.Inc()
	}
}

// RefreshProfile re-resolves the profile for the current session.
// Concurrent callers share a single resolution.
func (c *Controller) RefreshProfile(ctx context.Context) (*Profile, error) {
	c.mu.RLock()
	sess := c.state.Session
	c.mu.RUnlock()
	if sess == nil {
		return nil, identity.ErrInvalidCredentials
	}

	result, err, _ := c.sf.Do("refresh-profile", func() (interface{}, error) {
		profile, _ := c.resolver.Resolve(ctx, sess)
		c.mu.Lock()
		c.state.Profile = profile
		c.mu.Unlock()
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Profile), nil
}

// Snapshot returns the current authentication state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Close releases the session-change subscription.
func (c *Controller) Close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
}

func (c *Controller) persistSession(ctx context.Context, sess *identity.Session) {
	err := sessionstore.SetAuthData(ctx, c.store, sessionstore.AuthData{
		UserID:    sess.User.ID,
		AuthToken: sess.AccessToken,
		CompanyID: sess.CompanyID(),
	})
	if err != nil {
		c.logger.WithError(err).Warn("failed to persist auth data")
	}
}
