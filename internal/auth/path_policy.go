package auth

import (
	"net/http"
	"strings"
)

// PathPolicy decides which request paths may be served without credentials.
// Exact and prefix rules win outright; conditional rules only open GET access
// to paths that would otherwise be protected.
type PathPolicy struct {
	publicPaths    map[string]struct{}
	publicPrefixes []string
}

// NewPathPolicy returns the service's fixed public-path rules.
func NewPathPolicy() *PathPolicy {
	return &PathPolicy{
		publicPaths: map[string]struct{}{
			"/": {},
		},
		publicPrefixes: []string{
			"/api/users/login",
			"/api/users/register",
			"/api/users/oauth-providers/check",
			"/api/users/check-email",
			"/api/oauth/",
			"/api/oauth2/",
			"/openapi",
			"/swagger",
			"/health",
		},
	}
}

// RequiresAuthentication reports whether the path and method need an
// authenticated caller. An empty path always does.
func (p *PathPolicy) RequiresAuthentication(path, method string) bool {
	path = strings.ToLower(path)
	if path == "" {
		return true
	}

	if _, ok := p.publicPaths[path]; ok {
		return false
	}

	for _, prefix := range p.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}

	if isConditionallyPublic(path, method) {
		return false
	}

	return true
}

func isConditionallyPublic(path, method string) bool {
	if !strings.EqualFold(method, http.MethodGet) {
		return false
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })

	// Bookmarks stay private wherever they appear below a user, even when a
	// later rule would open the path.
	if strings.HasPrefix(path, "/api/users/") && hasSegment(segments, "bookmarks") {
		return false
	}

	// Lookup by email during sign-in.
	if strings.HasPrefix(path, "/api/users/email/") {
		return true
	}

	// Provider lookups during sign-in address a specific provider below the
	// collection; listing a user's providers stays protected.
	if i := segmentIndex(segments, "oauth-providers"); i >= 0 && i < len(segments)-1 {
		return true
	}

	if !strings.HasPrefix(path, "/api/users/") {
		return false
	}

	// Portfolio cards render user info for anonymous visitors.
	if hasSegment(segments, "portfolio-info") {
		return true
	}

	return !hasSegment(segments, "oauth-providers")
}

func hasSegment(segments []string, name string) bool {
	return segmentIndex(segments, name) >= 0
}

func segmentIndex(segments []string, name string) int {
	for i, s := range segments {
		if s == name {
			return i
		}
	}
	return -1
}
