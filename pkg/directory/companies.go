package directory

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CompanyService resolves company display names through an expiring LRU
// cache. Company names change rarely; a short TTL keeps renames from
// sticking for long while absorbing the lookup burst at sign-in.
type CompanyService struct {
	directory CompanyDirectory
	cache     *lru.LRU[string, string]
}

// NewCompanyService wraps a CompanyDirectory with caching.
func NewCompanyService(directory CompanyDirectory, size int, ttl time.Duration) *CompanyService {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CompanyService{
		directory: directory,
		cache:     lru.NewLRU[string, string](size, nil, ttl),
	}
}

// Name returns the company's display name, or "" when unknown. Lookup
// failures are returned, not cached.
func (s *CompanyService) Name(ctx context.Context, companyID string) (string, error) {
	if companyID == "" {
		return "", nil
	}
	if name, ok := s.cache.Get(companyID); ok {
		return name, nil
	}

	name, err := s.directory.Name(ctx, companyID)
	if err != nil {
		return "", err
	}
	if name != "" {
		s.cache.Add(companyID, name)
	}
	return name, nil
}
