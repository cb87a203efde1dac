package resolver

import "strings"

// DefaultAPIName is returned when nothing in the catalog matches.
const DefaultAPIName = "Fetch API"

// Catalog is the fixed list of well-known web platform APIs used when the
// documentation search is unavailable.
var Catalog = []string{
	"Fetch API",
	"WebSocket API",
	"Geolocation API",
	"Web Audio API",
	"WebRTC API",
	"Service Workers API",
	"Push API",
	"Notifications API",
	"File API",
	"IndexedDB API",
	"Web Storage API",
	"WebGL API",
	"Canvas API",
	"Web Animations API",
	"Intersection Observer API",
	"Resize Observer API",
	"Mutation Observer API",
	"Performance API",
	"Web Crypto API",
	"Web Assembly API",
}

// MatchCatalog returns the first catalog entry that contains the query, or
// whose name without " api" is contained in the query. It falls back to
// DefaultAPIName.
func MatchCatalog(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	for _, name := range Catalog {
		lower := strings.ToLower(name)
		if strings.Contains(lower, normalized) {
			return name
		}
		if strings.Contains(normalized, strings.Replace(lower, " api", "", 1)) {
			return name
		}
	}
	return DefaultAPIName
}
