package ratelimit

import (
	"strings"
)

// unlimited is returned for the health check.
var unlimited = EndpointConfig{Path: "/status", Method: "GET"}

// MatchEndpoint returns the config for path and method, or nil when none applies.
// An exact path wins; otherwise the longest matching prefix does, so
// /api/v1/user/routine/single/ is preferred over /api/v1/user/.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == unlimited.Path && method == unlimited.Method {
		match := unlimited
		return &match
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
