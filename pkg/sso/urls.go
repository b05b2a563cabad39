package sso

import (
	"net/url"
	"strings"
)

// URLBuilder produces the login and logout URLs on the central SSO portal.
type URLBuilder struct {
	ssoBaseURL   string
	appBaseURL   string
	callbackPath string
}

// NewURLBuilder builds URLs against the given portal and application bases.
func NewURLBuilder(ssoBaseURL, appBaseURL, callbackPath string) *URLBuilder {
	return &URLBuilder{
		ssoBaseURL:   strings.TrimRight(ssoBaseURL, "/"),
		appBaseURL:   strings.TrimRight(appBaseURL, "/"),
		callbackPath: callbackPath,
	}
}

// LoginURL returns the portal login URL. The portal redirects back to this
// application's callback; redirectPath, when non-empty, rides along so the
// callback can land the user on the page they originally asked for.
func (b *URLBuilder) LoginURL(redirectPath string) string {
	callback := b.appBaseURL + b.callbackPath
	if redirectPath != "" {
		callback += "?redirect_path=" + url.QueryEscape(redirectPath)
	}
	return b.ssoBaseURL + "?redirect_url=" + url.QueryEscape(callback)
}

// LogoutURL returns the portal logout URL, which sends the user back to the
// application root afterwards.
func (b *URLBuilder) LogoutURL() string {
	return b.ssoBaseURL + "/logout?redirect_url=" + url.QueryEscape(b.appBaseURL)
}
