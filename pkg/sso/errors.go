package sso

import "errors"

var (
	// ErrMissingCredentials means the redirect carried no token pair in
	// either the query string or the fragment
	ErrMissingCredentials = errors.New("sso: no credentials in callback")

	// ErrExchangeFailed means the provider rejected the credential pair
	ErrExchangeFailed = errors.New("sso: token exchange failed")
)
