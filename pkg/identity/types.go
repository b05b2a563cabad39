// Package identity wraps the external identity provider: one-shot session
// fetch, credential-pair installation, sign-out, and a subscription stream
// of session-change events.
//
// Provider failures never propagate as panics; callers degrade to an
// unauthenticated state instead.
package identity

import "time"

// EventType is the kind of a session-change event
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// CredentialPair is the access/refresh token pair delivered by the SSO
// redirect. It is transient: it exists only between redirect arrival and
// successful session installation.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

// Identity is the user identity embedded in a session
type Identity struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"user_metadata,omitempty"`
}

// Meta returns the first non-empty metadata value among keys
func (i Identity) Meta(keys ...string) string {
	for _, key := range keys {
		if v := i.Metadata[key]; v != "" {
			return v
		}
	}
	return ""
}

// Session is the provider-issued session handle. The auth controller holds
// a read reference and never mutates it.
type Session struct {
	User         Identity  `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CompanyID extracts the company id embedded in the session's user
// metadata, when present. Shared by the SSO callback's opportunistic
// persist and the profile synthesis fallback so the two paths cannot drift.
func (s *Session) CompanyID() string {
	if s == nil {
		return ""
	}
	return s.User.Meta("company_id")
}
