package sso

import (
	"net/url"

	"github.com/linkai/console/pkg/identity"
)

// ExtractCredentials pulls the access/refresh token pair out of an SSO
// redirect. The query string is checked first; when it carries no access
// token the URL fragment (delivered separately, since fragments never reach
// the server directly) is parsed as form-encoded and checked the same way.
// Both tokens must be present for an extraction to count.
func ExtractCredentials(query url.Values, fragment string) (identity.CredentialPair, error) {
	if creds, ok := credsFromValues(query); ok {
		return creds, nil
	}

	if fragment != "" {
		if vals, err := url.ParseQuery(fragment); err == nil {
			if creds, ok := credsFromValues(vals); ok {
				return creds, nil
			}
		}
	}

	return identity.CredentialPair{}, ErrMissingCredentials
}

func credsFromValues(vals url.Values) (identity.CredentialPair, bool) {
	creds := identity.CredentialPair{
		AccessToken:  vals.Get("access_token"),
		RefreshToken: vals.Get("refresh_token"),
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return identity.CredentialPair{}, false
	}
	return creds, true
}
