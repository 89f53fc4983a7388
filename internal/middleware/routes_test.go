package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRouteTableClassify(t *testing.T) {
	table := DefaultRouteTable("/api/auth")
	cases := map[string]RouteClass{
		"/":                          RoutePublic,
		"/health":                    RoutePublic,
		"/metrics":                   RoutePublic,
		"/docs/index.html":           RoutePublic,
		"/repos/octocat":             RoutePublic,
		"/login":                     RouteGuestOnly,
		"/register/":                 RouteGuestOnly,
		"/forgot-password":           RouteGuestOnly,
		"/api/auth/login":            RoutePublic,
		"/api/auth/logout":           RoutePublic,
		"/api/auth/reset-password":   RoutePublic,
		"/api/auth/verify":           RouteProtected,
		"/api/auth/profile/avatar":   RouteProtected,
		"/api/auth/login/extra":      RouteProtected,
		"/candidates":                RouteProtected,
		"/review":                    RouteProtected,
		"/admin/users/1/sessions":    RouteProtected,
		"/healthcheck":               RouteProtected,
		"/something-new":             RouteProtected,
	}
	for path, want := range cases {
		assert.Equal(t, want, table.Classify(path), path)
	}
}

func TestLongestPrefixWins(t *testing.T) {
	table := NewRouteTable(
		RouteRule{Pattern: "/docs", Class: RoutePublic},
		RouteRule{Pattern: "/docs/internal", Class: RouteProtected},
	)
	assert.Equal(t, RoutePublic, table.Classify("/docs/api"))
	assert.Equal(t, RouteProtected, table.Classify("/docs/internal/x"))
}

func TestIsAPIPath(t *testing.T) {
	table := DefaultRouteTable("/api/auth")
	assert.True(t, table.IsAPIPath("/api/auth/verify"))
	assert.True(t, table.IsAPIPath("/api"))
	assert.False(t, table.IsAPIPath("/apiary"))
	assert.False(t, table.IsAPIPath("/candidates"))
}

func TestIsAPIPathFollowsCustomPrefix(t *testing.T) {
	table := DefaultRouteTable("/v1/auth/")
	assert.True(t, table.IsAPIPath("/v1/auth/verify"))
	assert.True(t, table.IsAPIPath("/v1/auth"))
	assert.True(t, table.IsAPIPath("/api/other"))
	assert.False(t, table.IsAPIPath("/v1/authors"))
	assert.False(t, table.IsAPIPath("/candidates"))
	assert.Equal(t, RoutePublic, table.Classify("/v1/auth/login"))
	assert.Equal(t, RouteProtected, table.Classify("/v1/auth/verify"))
}
