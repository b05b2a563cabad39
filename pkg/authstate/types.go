// Package authstate owns the console's authentication state: it mirrors
// identity provider events into the session store, resolves the signed-in
// user's profile with layered fallbacks, and exposes a snapshot the rest of
// the gateway reads.
package authstate

import (
	"github.com/linkai/console/pkg/identity"
)

// Profile is the console's presentation shape of a user profile. Every
// field is populated even when the directory has no record; the fallback
// chain guarantees it.
type Profile struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	CompanyID       string `json:"company_id"`
	Role            string `json:"role"`
	CompanyName     string `json:"company_name,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	ProfileRoleName string `json:"profile_role_name,omitempty"`
}

const (
	// DefaultRole is assumed when no role is recorded anywhere
	DefaultRole = "user"
	// DefaultCompanyID marks a user with no company affiliation
	DefaultCompanyID = "unknown"
)

// State is an immutable snapshot of the authentication state
type State struct {
	User    *identity.Identity
	Session *identity.Session
	Profile *Profile
	Loading bool
}

// Authenticated reports whether the snapshot carries a signed-in session
func (s State) Authenticated() bool {
	return s.Session != nil && s.User != nil
}
