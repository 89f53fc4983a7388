package middleware

import (
	"sort"
	"strings"
)

// RouteClass tells the session gate how to treat a path.
type RouteClass string

const (
	// RoutePublic attaches identity when present but never rotates or denies.
	RoutePublic RouteClass = "public"
	// RouteGuestOnly pages redirect authenticated callers to "/".
	RouteGuestOnly RouteClass = "guest-only"
	// RouteProtected requires an authenticated session.
	RouteProtected RouteClass = "protected"
)

// RouteRule classifies a path prefix. Exact rules match only the path itself.
type RouteRule struct {
	Pattern string
	Class   RouteClass
	Exact   bool
}

// RouteTable resolves a request path to its class. The longest matching
// pattern wins; unmatched paths are protected.
type RouteTable struct {
	rules       []RouteRule
	apiPrefixes []string
}

// NewRouteTable builds a table from rules.
func NewRouteTable(rules ...RouteRule) *RouteTable {
	sorted := append([]RouteRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Pattern) > len(sorted[j].Pattern)
	})
	return &RouteTable{rules: sorted, apiPrefixes: []string{"/api"}}
}

// DefaultRouteTable is the route classification of the DevScout frontend and
// this API mounted under apiPrefix.
func DefaultRouteTable(apiPrefix string) *RouteTable {
	apiPrefix = "/" + strings.Trim(apiPrefix, "/")
	rules := []RouteRule{
		{Pattern: "/", Class: RoutePublic, Exact: true},
		{Pattern: "/health", Class: RoutePublic},
		{Pattern: "/ready", Class: RoutePublic},
		{Pattern: "/metrics", Class: RoutePublic},
		{Pattern: "/docs", Class: RoutePublic},
		{Pattern: "/repos", Class: RoutePublic},
		{Pattern: "/login", Class: RouteGuestOnly},
		{Pattern: "/register", Class: RouteGuestOnly},
		{Pattern: "/forgot-password", Class: RouteGuestOnly},
	}
	for _, endpoint := range []string{"login", "register", "logout", "forgot-password", "reset-password"} {
		rules = append(rules, RouteRule{Pattern: apiPrefix + "/" + endpoint, Class: RoutePublic, Exact: true})
	}
	table := NewRouteTable(rules...)
	if apiPrefix != "/" && !table.IsAPIPath(apiPrefix) {
		table.apiPrefixes = append(table.apiPrefixes, apiPrefix)
	}
	return table
}

// Classify returns the class of path.
func (t *RouteTable) Classify(path string) RouteClass {
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	for _, rule := range t.rules {
		if path == rule.Pattern {
			return rule.Class
		}
		if !rule.Exact && strings.HasPrefix(path, rule.Pattern+"/") {
			return rule.Class
		}
	}
	return RouteProtected
}

// IsAPIPath reports whether path belongs to the JSON API rather than a page:
// anything under /api or under the prefix the table was built for.
func (t *RouteTable) IsAPIPath(path string) bool {
	for _, prefix := range t.apiPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
