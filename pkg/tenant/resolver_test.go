package tenant

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
)

func TestResolvePrecedence(t *testing.T) {
	sites := []directory.Site{{ID: "site-x"}, {ID: "site-y"}}

	cases := []struct {
		name       string
		routeID    string
		storedID   string
		sites      []directory.Site
		listLoaded bool
		want       string
	}{
		{"route wins over everything", "site-a", "site-b", sites, true, "site-a"},
		{"store wins over list", "", "site-b", sites, true, "site-b"},
		{"first of loaded list", "", "", sites, true, "site-x"},
		{"unloaded list yields nothing", "", "", nil, false, ""},
		{"empty loaded list yields nothing", "", "", nil, true, ""},
		{"route without list", "site-a", "", nil, false, "site-a"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.routeID, tc.storedID, tc.sites, tc.listLoaded))
		})
	}
}

func TestRewriteSitePath(t *testing.T) {
	assert.Equal(t, "/s/site-b/keywords", RewriteSitePath("/s/site-a/keywords", "site-b"))
	assert.Equal(t, "/s/site-b/content/briefings", RewriteSitePath("/s/site-a/content/briefings", "site-b"))
	assert.Equal(t, "/s/site-b/dashboard", RewriteSitePath("/settings", "site-b"))
	assert.Equal(t, "/s/site-b/dashboard", RewriteSitePath("/", "site-b"))
	assert.Equal(t, "/s/site-b/dashboard", RewriteSitePath("", "site-b"))
	// trailing /s with no id is not site-scoped
	assert.Equal(t, "/s/site-b/dashboard", RewriteSitePath("/s", "site-b"))
}

type fakeLister struct {
	sites []directory.Site
	err   error
	calls int
}

func (f *fakeLister) List(context.Context, string) ([]directory.Site, error) {
	f.calls++
	return f.sites, f.err
}

func newResolverFixture(lister *fakeLister) (*Resolver, sessionstore.Store) {
	store := sessionstore.NewMemoryStore(time.Hour)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewResolver(lister, store, logger, nil, nil), store
}

func TestSyncRouteAdoptsRouteID(t *testing.T) {
	r, store := newResolverFixture(&fakeLister{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, sessionstore.KeyActiveWebsite, "site-b"))

	got := r.SyncRoute(ctx, "site-a")
	assert.Equal(t, "site-a", got)
	assert.Equal(t, "site-a", r.ActiveSiteID())

	// the store follows the route
	stored, err := store.Get(ctx, sessionstore.KeyActiveWebsite)
	require.NoError(t, err)
	assert.Equal(t, "site-a", stored)
}

func TestSyncRouteFallsBackToStore(t *testing.T) {
	r, store := newResolverFixture(&fakeLister{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, sessionstore.KeyActiveWebsite, "site-b"))

	got := r.SyncRoute(ctx, "")
	assert.Equal(t, "site-b", got)
}

func TestSyncRouteUnresolvedBeforeList(t *testing.T) {
	r, _ := newResolverFixture(&fakeLister{})

	got := r.SyncRoute(context.Background(), "")
	assert.Empty(t, got)
	assert.Empty(t, r.ActiveSiteID())
}

func TestRefreshDefaultsToFirstSite(t *testing.T) {
	lister := &fakeLister{sites: []directory.Site{{ID: "site-x"}, {ID: "site-y"}}}
	r, store := newResolverFixture(lister)
	ctx := context.Background()

	require.NoError(t, r.Refresh(ctx, "comp-1"))
	assert.Equal(t, "site-x", r.ActiveSiteID())

	stored, err := store.Get(ctx, sessionstore.KeyActiveWebsite)
	require.NoError(t, err)
	assert.Equal(t, "site-x", stored)

	sites, loaded := r.Sites()
	assert.True(t, loaded)
	assert.Len(t, sites, 2)
}

func TestRefreshNeverOverridesRouteID(t *testing.T) {
	lister := &fakeLister{sites: []directory.Site{{ID: "site-x"}}}
	r, _ := newResolverFixture(lister)
	ctx := context.Background()

	// route pinned the site before the list arrived
	r.SyncRoute(ctx, "site-a")
	require.NoError(t, r.Refresh(ctx, "comp-1"))

	assert.Equal(t, "site-a", r.ActiveSiteID())
}

func TestRefreshPrefersStoredOverDefault(t *testing.T) {
	lister := &fakeLister{sites: []directory.Site{{ID: "site-x"}, {ID: "site-y"}}}
	r, store := newResolverFixture(lister)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, sessionstore.KeyActiveWebsite, "site-y"))
	require.NoError(t, r.Refresh(ctx, "comp-1"))

	assert.Equal(t, "site-y", r.ActiveSiteID())
}

func TestRefreshFailureKeepsState(t *testing.T) {
	lister := &fakeLister{sites: []directory.Site{{ID: "site-x"}}}
	r, _ := newResolverFixture(lister)
	ctx := context.Background()

	require.NoError(t, r.Refresh(ctx, "comp-1"))
	require.Equal(t, "site-x", r.ActiveSiteID())

	lister.err = fmt.Errorf("backend down")
	err := r.Refresh(ctx, "comp-1")
	assert.Error(t, err)

	assert.Equal(t, "site-x", r.ActiveSiteID())
	sites, loaded := r.Sites()
	assert.True(t, loaded)
	assert.Len(t, sites, 1)
}

func TestSetActiveSiteID(t *testing.T) {
	var navigated string
	store := sessionstore.NewMemoryStore(time.Hour)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	r := NewResolver(&fakeLister{}, store, logger, nil, func(path string) { navigated = path })
	ctx := context.Background()

	dest := r.SetActiveSiteID(ctx, "site-b", "/s/site-a/keywords")
	assert.Equal(t, "/s/site-b/keywords", dest)
	assert.Equal(t, dest, navigated)
	assert.Equal(t, "site-b", r.ActiveSiteID())

	stored, err := store.Get(ctx, sessionstore.KeyActiveWebsite)
	require.NoError(t, err)
	assert.Equal(t, "site-b", stored)
}
