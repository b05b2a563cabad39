// Package sessionstore is a thin key/value persistence facade mirroring the
// identity session for the lifetime of one gateway session: the current user
// id, bearer token, company id, the cached user profile, and the active
// website selection.
//
// Writes are last-write-wins; callers agree on precedence (route over store
// over list for the active website) and never write the same key from
// independent async chains without that precedence rule.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Logical key namespace. Values are strings; the profile is serialized JSON.
const (
	KeyUserID        = "user_id"
	KeyAuthToken     = "auth_token"
	KeyCompanyID     = "company_id"
	KeyUserProfile   = "user_profile"
	KeyActiveWebsite = "active_website_id"
)

// ErrNotFound is returned when a key has no value (or the value expired)
var ErrNotFound = errors.New("sessionstore: key not found")

// Store is a flat string key/value space with session-scoped lifetime
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// AuthData is the session mirror persisted after a successful sign-in
type AuthData struct {
	UserID    string
	AuthToken string
	CompanyID string
}

// GetAuthData reads the auth mirror. Missing keys come back as empty
// strings, matching the facade's "absent means empty" contract.
func GetAuthData(ctx context.Context, s Store) AuthData {
	return AuthData{
		UserID:    getOrEmpty(ctx, s, KeyUserID),
		AuthToken: getOrEmpty(ctx, s, KeyAuthToken),
		CompanyID: getOrEmpty(ctx, s, KeyCompanyID),
	}
}

// SetAuthData writes the non-empty fields of data. Empty fields are left
// untouched so partial updates (e.g. a late company id) do not clobber
// earlier writes.
func SetAuthData(ctx context.Context, s Store, data AuthData) error {
	if data.UserID != "" {
		if err := s.Set(ctx, KeyUserID, data.UserID); err != nil {
			return err
		}
	}
	if data.AuthToken != "" {
		if err := s.Set(ctx, KeyAuthToken, data.AuthToken); err != nil {
			return err
		}
	}
	if data.CompanyID != "" {
		if err := s.Set(ctx, KeyCompanyID, data.CompanyID); err != nil {
			return err
		}
	}
	return nil
}

// ClearAuthData removes all four auth keys. The active website selection is
// deliberately not part of the auth mirror and survives sign-out.
func ClearAuthData(ctx context.Context, s Store) error {
	var firstErr error
	for _, key := range []string{KeyUserID, KeyAuthToken, KeyCompanyID, KeyUserProfile} {
		if err := s.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsAuthenticated reports whether a session hint is present: a non-empty
// user id and token. This is a cheap storage-only check used to avoid a
// loading flash before the authoritative session check resolves.
func IsAuthenticated(ctx context.Context, s Store) bool {
	data := GetAuthData(ctx, s)
	return data.UserID != "" && data.AuthToken != ""
}

// SetJSON serializes value and stores it under key
func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// GetJSON reads key and unmarshals it into dest. Returns ErrNotFound when
// the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dest interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func getOrEmpty(ctx context.Context, s Store, key string) string {
	val, err := s.Get(ctx, key)
	if err != nil {
		return ""
	}
	return val
}
