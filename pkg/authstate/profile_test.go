package authstate

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/identity"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
)

type stubProfileStore struct {
	record *directory.ProfileRecord
	err    error
}

func (s *stubProfileStore) Get(context.Context, string) (*directory.ProfileRecord, error) {
	return s.record, s.err
}

type stubCompanies struct {
	names map[string]string
}

func (s *stubCompanies) Name(_ context.Context, id string) (string, error) {
	return s.names[id], nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func newResolverFixture(profiles directory.ProfileStore, companies *directory.CompanyService) (*ProfileResolver, *sessionstore.MemoryStore) {
	store := sessionstore.NewMemoryStore(time.Hour)
	return NewProfileResolver(profiles, companies, store, testLogger(), nil), store
}

func sessionWith(meta map[string]string) *identity.Session {
	return &identity.Session{
		User: identity.Identity{
			ID:       "user-1",
			Email:    "jan@oranjeduurzaam.nl",
			Metadata: meta,
		},
		AccessToken: "tok-1",
	}
}

func TestResolveFromDirectory(t *testing.T) {
	resolver, store := newResolverFixture(&stubProfileStore{record: &directory.ProfileRecord{
		UserID:          "user-1",
		Email:           "jan@oranjeduurzaam.nl",
		FullName:        "Jan de Vries",
		CompanyID:       "comp-1",
		CompanyName:     "OranjeDuurzaam",
		ProfileRole:     "admin",
		ProfileRoleName: "Beheerder",
	}}, nil)

	profile, strategy := resolver.Resolve(context.Background(), sessionWith(nil))
	assert.Equal(t, StrategyDirectory, strategy)
	assert.Equal(t, "Jan de Vries", profile.Name)
	assert.Equal(t, "comp-1", profile.CompanyID)
	assert.Equal(t, "admin", profile.Role)
	assert.Equal(t, "Beheerder", profile.ProfileRoleName)

	// resolution mirrors profile and company id into the store
	var stored Profile
	require.NoError(t, sessionstore.GetJSON(context.Background(), store, sessionstore.KeyUserProfile, &stored))
	assert.Equal(t, "Jan de Vries", stored.Name)
	companyID, err := store.Get(context.Background(), sessionstore.KeyCompanyID)
	require.NoError(t, err)
	assert.Equal(t, "comp-1", companyID)
}

func TestResolveFromMetadataWhenDirectoryEmpty(t *testing.T) {
	resolver, _ := newResolverFixture(&stubProfileStore{}, nil)

	profile, strategy := resolver.Resolve(context.Background(), sessionWith(map[string]string{
		"full_name":  "Jan de Vries",
		"company_id": "comp-7",
	}))
	assert.Equal(t, StrategyMetadata, strategy)
	assert.Equal(t, "Jan de Vries", profile.Name)
	assert.Equal(t, "comp-7", profile.CompanyID)
	assert.Equal(t, DefaultRole, profile.Role)
}

func TestResolveFallsThroughOnDirectoryError(t *testing.T) {
	resolver, _ := newResolverFixture(&stubProfileStore{err: fmt.Errorf("db down")}, nil)

	profile, strategy := resolver.Resolve(context.Background(), sessionWith(map[string]string{
		"company_id": "comp-7",
	}))
	assert.Equal(t, StrategyMetadata, strategy)
	assert.Equal(t, "comp-7", profile.CompanyID)
}

func TestResolveStub(t *testing.T) {
	resolver, _ := newResolverFixture(&stubProfileStore{}, nil)

	profile, strategy := resolver.Resolve(context.Background(), sessionWith(nil))
	assert.Equal(t, StrategyStub, strategy)
	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, "jan@oranjeduurzaam.nl", profile.Email)
	assert.Equal(t, "jan@oranjeduurzaam.nl", profile.Name)
	assert.Equal(t, DefaultRole, profile.Role)
	assert.Equal(t, DefaultCompanyID, profile.CompanyID)
}

func TestResolveEnrichesCompanyName(t *testing.T) {
	companies := directory.NewCompanyService(&stubCompanies{names: map[string]string{
		"comp-7": "OranjeDuurzaam",
	}}, 8, time.Minute)
	resolver, _ := newResolverFixture(&stubProfileStore{}, companies)

	profile, _ := resolver.Resolve(context.Background(), sessionWith(map[string]string{
		"company_id": "comp-7",
	}))
	assert.Equal(t, "OranjeDuurzaam", profile.CompanyName)
}

func TestResolveSkipsEnrichmentForUnknownCompany(t *testing.T) {
	companies := directory.NewCompanyService(&stubCompanies{names: map[string]string{}}, 8, time.Minute)
	resolver, store := newResolverFixture(&stubProfileStore{}, companies)

	profile, _ := resolver.Resolve(context.Background(), sessionWith(nil))
	assert.Empty(t, profile.CompanyName)

	// the "unknown" placeholder never lands in the store's company_id key
	_, err := store.Get(context.Background(), sessionstore.KeyCompanyID)
	assert.ErrorIs(t, err, sessionstore.ErrNotFound)
}
