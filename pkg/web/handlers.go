package web

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/linkai/console/pkg/contextkeys"
	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/httputil"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
	"github.com/linkai/console/pkg/sso"
)

// Views the console serves under a site scope.
var siteViews = map[string]bool{
	"dashboard":   true,
	"content":     true,
	"keywords":    true,
	"performance": true,
	"briefings":   true,
	"settings":    true,
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	redirect := httputil.ParseQueryString(r, "redirect", s.cfg.Auth.Routes.Dashboard)

	// already signed in: skip the portal round-trip
	if sessionstore.IsAuthenticated(r.Context(), s.store) && s.controller.Snapshot().Authenticated() {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}

	s.render(w, loginPage, map[string]interface{}{
		"Title":    "Inloggen - " + s.cfg.Auth.ProductName,
		"Product":  s.cfg.Auth.ProductName,
		"LoginURL": s.urls.LoginURL(redirect),
	})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// No tokens in the query and the fragment not yet relayed: the tokens
	// may be hiding in the URL fragment, which only the browser can see.
	if query.Get("access_token") == "" && !query.Has("fragment") {
		s.render(w, relayPage, map[string]interface{}{
			"Title":   "Inloggen - " + s.cfg.Auth.ProductName,
			"Product": s.cfg.Auth.ProductName,
		})
		return
	}

	result := s.handshake.Run(r.Context(), query, query.Get("fragment"))

	if result.State == sso.StateSuccess {
		s.render(w, statusPage, map[string]interface{}{
			"Title":        "Ingelogd - " + s.cfg.Auth.ProductName,
			"Heading":      "Succesvol ingelogd",
			"Message":      "Succesvol ingelogd! Je wordt doorgestuurd...",
			"DelaySeconds": seconds(s.cfg.Auth.SuccessRedirectDelay),
			"Destination":  result.RedirectPath,
			"Failed":       false,
		})
		return
	}

	s.render(w, statusPage, map[string]interface{}{
		"Title":        "Inloggen mislukt - " + s.cfg.Auth.ProductName,
		"Heading":      "Inloggen mislukt",
		"Message":      result.Reason,
		"DelaySeconds": seconds(s.cfg.Auth.FailureRedirectDelay),
		"Destination":  s.cfg.Auth.Routes.Login,
		"Failed":       true,
	})
}

func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	s.render(w, unauthorizedPage, map[string]interface{}{
		"Title":    "Geen toegang - " + s.cfg.Auth.ProductName,
		"Product":  s.cfg.Auth.ProductName,
		"LoginURL": s.urls.LoginURL(""),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.controller.SignOut(r.Context())
	http.Redirect(w, r, s.urls.LogoutURL(), http.StatusFound)
}

// handleRoot lands the user on the active site's dashboard once a tenant
// resolves; until then it holds on the loading page.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	siteID := s.tenants.SyncRoute(r.Context(), "")
	if siteID == "" {
		s.refreshTenants(r)
		siteID = s.tenants.ActiveSiteID()
	}
	if siteID == "" {
		s.render(w, loadingPage, map[string]interface{}{
			"Title":   s.cfg.Auth.ProductName,
			"Product": s.cfg.Auth.ProductName,
		})
		return
	}
	http.Redirect(w, r, "/s/"+siteID+"/dashboard", http.StatusFound)
}

func (s *Server) handleSiteView(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	siteID, view := vars["siteId"], vars["view"]
	if !siteViews[view] {
		httputil.WriteNotFound(w, "unknown view")
		return
	}
	r = r.WithContext(contextkeys.WithSiteID(r.Context(), siteID))

	s.tenants.SyncRoute(r.Context(), siteID)
	sites, loaded := s.tenants.Sites()
	if !loaded {
		s.refreshTenants(r)
		sites, _ = s.tenants.Sites()
	}

	s.render(w, viewPage, map[string]interface{}{
		"Title":        s.cfg.Auth.ProductName,
		"Product":      s.cfg.Auth.ProductName,
		"SiteName":     siteName(sites, siteID),
		"View":         view,
		"Sites":        sites,
		"ActiveSiteID": siteID,
		"CurrentPath":  r.URL.Path,
	})
}

func (s *Server) handleTenantSwitch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteBadRequest(w, "invalid form")
		return
	}
	siteID := r.PostFormValue("site_id")
	if siteID == "" {
		httputil.WriteBadRequest(w, "site_id is required")
		return
	}
	currentPath := r.PostFormValue("current_path")

	dest := s.tenants.SetActiveSiteID(r.Context(), siteID, currentPath)
	http.Redirect(w, r, dest, http.StatusFound)
}

// JSON API consumed by the console front-end.

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	state := s.controller.Snapshot()
	if state.Profile == nil {
		httputil.WriteNotFound(w, "no profile resolved")
		return
	}
	httputil.WriteSuccess(w, state.Profile)
}

func (s *Server) handleProfileRefresh(w http.ResponseWriter, r *http.Request) {
	profile, err := s.controller.RefreshProfile(r.Context())
	if err != nil {
		httputil.WriteUnauthorized(w, "no active session")
		return
	}
	httputil.WriteSuccess(w, profile)
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.sites.List(r.Context(), s.companyID(r))
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, sites)
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var input directory.CreateSiteInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}
	if input.CompanyID == "" {
		input.CompanyID = s.companyID(r)
	}
	if input.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}

	site, err := s.sites.Create(r.Context(), input)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, site)
}

// companyID prefers the resolved profile's company, falling back to the
// session store mirror.
func (s *Server) companyID(r *http.Request) string {
	if profile := s.controller.Snapshot().Profile; profile != nil {
		return profile.CompanyID
	}
	return sessionstore.GetAuthData(r.Context(), s.store).CompanyID
}

func (s *Server) refreshTenants(r *http.Request) {
	if err := s.tenants.Refresh(r.Context(), s.companyID(r)); err != nil {
		observability.FromContext(r.Context()).WithError(err).Debug("tenant refresh failed")
	}
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data map[string]interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.WithError(err).Error("template render failed")
	}
}

func siteName(sites []directory.Site, siteID string) string {
	for _, site := range sites {
		if site.ID == siteID {
			if site.Name != "" {
				return site.Name
			}
			return site.PrimaryDomain
		}
	}
	return siteID
}

// seconds rounds a delay up to whole seconds for the meta-refresh header.
func seconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
