// Package directory provides read access to the profile, company, and
// website records backing the console: who a user is, which company they
// belong to, and which websites that company operates.
package directory

import (
	"context"
	"time"
)

// ProfileRecord is the raw profile row as stored. Field names mirror the
// directory schema, not the console's presentation shape.
type ProfileRecord struct {
	UserID          string
	Email           string
	FullName        string
	CompanyID       string
	CompanyName     string
	PhoneNumber     string
	ProfileRole     string
	ProfileRoleName string
}

// Site is a managed website belonging to a company
type Site struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	Name          string    `json:"name"`
	PrimaryDomain string    `json:"primary_domain"`
	Status        string    `json:"status"`
	Timezone      string    `json:"timezone"`
	Locale        string    `json:"locale"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateSiteInput is the payload for registering a new website
type CreateSiteInput struct {
	CompanyID     string `json:"company_id"`
	Name          string `json:"name"`
	PrimaryDomain string `json:"primary_domain"`
	Timezone      string `json:"timezone,omitempty"`
	Locale        string `json:"locale,omitempty"`
}

// ProfileStore reads profile records. Get returns (nil, nil) when no
// profile exists for the user; absence is not an error.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*ProfileRecord, error)
}

// CompanyDirectory resolves company display names. Name returns ("", nil)
// when the company is unknown.
type CompanyDirectory interface {
	Name(ctx context.Context, companyID string) (string, error)
}

// SiteDirectory lists and registers a company's websites
type SiteDirectory interface {
	List(ctx context.Context, companyID string) ([]Site, error)
	Create(ctx context.Context, input CreateSiteInput) (*Site, error)
}
