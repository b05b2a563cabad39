package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/google/uuid"
)

// PostgresDirectory implements ProfileStore, CompanyDirectory, and
// SiteDirectory against the shared directory database.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory connects to the directory database and verifies the
// connection.
func NewPostgresDirectory(postgresURL string) (*PostgresDirectory, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDirectory{db: db}, nil
}

// NewPostgresDirectoryFromDB wraps an existing database handle. Used in
// tests and when the caller manages the pool.
func NewPostgresDirectoryFromDB(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// Get returns the profile for a user, or (nil, nil) when none exists.
func (d *PostgresDirectory) Get(ctx context.Context, userID string) (*ProfileRecord, error) {
	query := `
		SELECT user_id, email, full_name, company_id, company_name,
		       phone_number, profile_role, profile_role_name
		FROM profiles
		WHERE user_id = $1
	`

	var rec ProfileRecord
	var email, fullName, companyID, companyName, phone, role, roleName sql.NullString
	err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID,
		&email,
		&fullName,
		&companyID,
		&companyName,
		&phone,
		&role,
		&roleName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	rec.Email = email.String
	rec.FullName = fullName.String
	rec.CompanyID = companyID.String
	rec.CompanyName = companyName.String
	rec.PhoneNumber = phone.String
	rec.ProfileRole = role.String
	rec.ProfileRoleName = roleName.String
	return &rec, nil
}

// Name returns the display name for a company, or ("", nil) when the
// company does not exist.
func (d *PostgresDirectory) Name(ctx context.Context, companyID string) (string, error) {
	query := `SELECT name FROM companies WHERE id = $1`

	var name string
	err := d.db.QueryRowContext(ctx, query, companyID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to get company name: %w", err)
	}
	return name, nil
}

// List returns a company's websites, oldest first.
func (d *PostgresDirectory) List(ctx context.Context, companyID string) ([]Site, error) {
	query := `
		SELECT id, company_id, name, primary_domain, status, timezone, locale, created_at
		FROM websites
		WHERE company_id = $1
		ORDER BY created_at ASC
	`

	rows, err := d.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(
			&s.ID,
			&s.CompanyID,
			&s.Name,
			&s.PrimaryDomain,
			&s.Status,
			&s.Timezone,
			&s.Locale,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan website: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate websites: %w", err)
	}
	return sites, nil
}

// Create registers a new website for a company.
func (d *PostgresDirectory) Create(ctx context.Context, input CreateSiteInput) (*Site, error) {
	if input.CompanyID == "" || input.Name == "" {
		return nil, fmt.Errorf("company_id and name are required")
	}

	site := Site{
		ID:            uuid.New().String(),
		CompanyID:     input.CompanyID,
		Name:          input.Name,
		PrimaryDomain: input.PrimaryDomain,
		Status:        "Verbonden",
		Timezone:      input.Timezone,
		Locale:        input.Locale,
	}
	if site.Timezone == "" {
		site.Timezone = "Europe/Amsterdam"
	}
	if site.Locale == "" {
		site.Locale = "nl-NL"
	}

	query := `
		INSERT INTO websites (id, company_id, name, primary_domain, status, timezone, locale)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := d.db.QueryRowContext(ctx, query,
		site.ID,
		site.CompanyID,
		site.Name,
		site.PrimaryDomain,
		site.Status,
		site.Timezone,
		site.Locale,
	).Scan(&site.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create website: %w", err)
	}

	return &site, nil
}

// DB exposes the underlying pool for health checks.
func (d *PostgresDirectory) DB() *sql.DB {
	return d.db
}

// Close releases the underlying database pool.
func (d *PostgresDirectory) Close() error {
	return d.db.Close()
}
