package tenant

import "strings"

// RewriteSitePath returns the path to navigate to after switching to
// siteID. A path already scoped as /s/{siteId}/... keeps its view with the
// id swapped; any other path lands on the site's dashboard.
func RewriteSitePath(currentPath, siteID string) string {
	if currentPath == "" {
		return "/s/" + siteID + "/dashboard"
	}

	parts := make([]string, 0, 8)
	for _, p := range strings.Split(currentPath, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	for i, p := range parts {
		if p == "s" && i+1 < len(parts) {
			parts[i+1] = siteID
			return "/" + strings.Join(parts, "/")
		}
	}
	return "/s/" + siteID + "/dashboard"
}
