// Package tenant tracks the active website: which of the company's sites
// the console is currently scoped to, reconciled from the route, the
// session store, and the site list.
package tenant

import "github.com/linkai/console/pkg/directory"

// Resolve reconciles the active website id. Precedence is strict: an id in
// the route always wins, then a previously stored id, and only when both
// are absent does the first site of a loaded list become the default. An
// unloaded list never produces a default; resolution stays empty until the
// list arrives.
func Resolve(routeID, storedID string, sites []directory.Site, listLoaded bool) string {
	if routeID != "" {
		return routeID
	}
	if storedID != "" {
		return storedID
	}
	if listLoaded && len(sites) > 0 {
		return sites[0].ID
	}
	return ""
}
