package directory

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkai/console/pkg/observability"
)

type stubSiteDirectory struct {
	sites []Site
	err   error
}

func (s *stubSiteDirectory) List(context.Context, string) ([]Site, error) {
	return s.sites, s.err
}

func (s *stubSiteDirectory) Create(_ context.Context, input CreateSiteInput) (*Site, error) {
	if s.err != nil {
		return nil, s.err
	}
	site := Site{ID: "site-new", CompanyID: input.CompanyID, Name: input.Name}
	return &site, nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestSiteServiceListPassthrough(t *testing.T) {
	stub := &stubSiteDirectory{sites: []Site{{ID: "site-1", Name: "GroenWonen.nl"}}}
	svc := NewSiteService(stub, testLogger())

	sites, err := svc.List(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "site-1", sites[0].ID)
}

func TestSiteServicePlaceholderOnError(t *testing.T) {
	stub := &stubSiteDirectory{err: fmt.Errorf("connection refused")}
	svc := NewSiteService(stub, testLogger())

	sites, err := svc.List(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "OranjeDuurzaam.nl", sites[0].Name)
	assert.Equal(t, "demo-company", sites[0].CompanyID)
	assert.Equal(t, "Verbonden", sites[0].Status)
}

func TestSiteServicePlaceholderOnEmpty(t *testing.T) {
	svc := NewSiteService(&stubSiteDirectory{}, testLogger())

	sites, err := svc.List(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "site-oranjeduurzaam", sites[0].ID)
}

func TestSiteServiceCreateFallback(t *testing.T) {
	stub := &stubSiteDirectory{err: fmt.Errorf("timeout")}
	svc := NewSiteService(stub, testLogger())

	site, err := svc.Create(context.Background(), CreateSiteInput{
		CompanyID: "comp-1",
		Name:      "Nieuw.nl",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nieuw.nl", site.Name)
	assert.Equal(t, "comp-1", site.CompanyID)
	assert.Equal(t, "Verbonden", site.Status)
}
