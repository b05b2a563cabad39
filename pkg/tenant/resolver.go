package tenant

import (
	"context"
	"sync"

	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
)

// SiteLister is the slice of the site directory the resolver needs.
type SiteLister interface {
	List(ctx context.Context, companyID string) ([]directory.Site, error)
}

// Navigator is notified of the destination path after a tenant switch.
// Optional; HTTP handlers usually issue the redirect themselves from the
// returned path.
type Navigator func(path string)

// Resolver is the stateful tenant tracker for one gateway instance.
type Resolver struct {
	sites     SiteLister
	store     sessionstore.Store
	logger    *observability.Logger
	metrics   *observability.Metrics
	navigator Navigator

	mu         sync.RWMutex
	activeID   string
	siteList   []directory.Site
	listLoaded bool
}

// NewResolver builds a tenant resolver. navigator may be nil.
func NewResolver(
	sites SiteLister,
	store sessionstore.Store,
	logger *observability.Logger,
	metrics *observability.Metrics,
	navigator Navigator,
) *Resolver {
	return &Resolver{
		sites:     sites,
		store:     store,
		logger:    logger,
		metrics:   metrics,
		navigator: navigator,
	}
}

// SyncRoute reconciles the active site against the id found in the current
// route (empty when the route carries none) and returns the resolved id.
// A resolved id is written back to the session store so it survives
// navigation away from site-scoped routes.
func (r *Resolver) SyncRoute(ctx context.Context, routeID string) string {
	stored, err := r.store.Get(ctx, sessionstore.KeyActiveWebsite)
	if err != nil && err != sessionstore.ErrNotFound {
		r.logger.WithError(err).Warn("failed to read active website")
	}

	r.mu.Lock()
	resolved := Resolve(routeID, firstNonEmpty(stored, r.activeID), r.siteList, r.listLoaded)
	changed := resolved != "" && resolved != r.activeID
	if resolved != "" {
		r.activeID = resolved
	}
	r.mu.Unlock()

	if changed || (resolved != "" && resolved != stored) {
		r.persist(ctx, resolved)
	}
	return resolved
}

// Refresh reloads the site list. A failing load keeps the previous list
// and default; the resolver never regresses on error. When no site is
// active yet and no route pins one, the first listed site becomes the
// default.
func (r *Resolver) Refresh(ctx context.Context, companyID string) error {
	sites, err := r.sites.List(ctx, companyID)
	if err != nil {
		if r.metrics != nil {
			r.metrics.TenantListRefreshTotal.WithLabelValues("error").Inc()
		}
		r.logger.WithError(err).Warn("site list refresh failed")
		return err
	}
	if r.metrics != nil {
		r.metrics.TenantListRefreshTotal.WithLabelValues("ok").Inc()
	}

	r.mu.Lock()
	r.siteList = sites
	r.listLoaded = true
	var defaulted string
	if r.activeID == "" && len(sites) > 0 {
		stored, storeErr := r.store.Get(ctx, sessionstore.KeyActiveWebsite)
		if storeErr != nil {
			stored = ""
		}
		if stored != "" {
			r.activeID = stored
		} else {
			r.activeID = sites[0].ID
			defaulted = sites[0].ID
		}
	}
	r.mu.Unlock()

	if defaulted != "" {
		r.persist(ctx, defaulted)
	}
	return nil
}

// SetActiveSiteID switches the active site and returns the path the caller
// should navigate to, derived from currentPath.
func (r *Resolver) SetActiveSiteID(ctx context.Context, siteID, currentPath string) string {
	r.mu.Lock()
	r.activeID = siteID
	r.mu.Unlock()

	r.persist(ctx, siteID)
	if r.metrics != nil {
		r.metrics.TenantSwitchesTotal.Inc()
	}

	dest := RewriteSitePath(currentPath, siteID)
	if r.navigator != nil {
		r.navigator(dest)
	}
	return dest
}

// ActiveSiteID returns the currently resolved site id, or "".
func (r *Resolver) ActiveSiteID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Sites returns the last loaded site list and whether a load has completed.
func (r *Resolver) Sites() ([]directory.Site, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]directory.Site(nil), r.siteList...), r.listLoaded
}

func (r *Resolver) persist(ctx context.Context, siteID string) {
	if err := r.store.Set(ctx, sessionstore.KeyActiveWebsite, siteID); err != nil {
		r.logger.WithError(err).Warn("failed to persist active website")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
