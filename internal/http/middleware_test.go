package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"userauth/internal/auth"
)

type authenticatorStub struct {
	identity *auth.Identity
	calls    int
}

func (a *authenticatorStub) Authenticate(*http.Request) *auth.Identity {
	a.calls++
	return a.identity
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewarePassesPublicPaths(t *testing.T) {
	authenticator := &authenticatorStub{}
	next := newAuthMiddleware(auth.NewPathPolicy(), authenticator, discardLogger())(okHandler())

	for _, path := range []string{"/", "/health", "/api/oauth/refresh", "/api/users/email/a@b.com"} {
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected %s to pass, got %d", path, rec.Code)
		}
	}
	if authenticator.calls != 0 {
		t.Fatalf("expected no authentication on public paths, got %d calls", authenticator.calls)
	}
}

func TestAuthMiddlewareRejectsMissingCredentials(t *testing.T) {
	next := newAuthMiddleware(auth.NewPathPolicy(), &authenticatorStub{}, discardLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users/123/bookmarks", nil)
	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header, got %q", rec.Header().Get("WWW-Authenticate"))
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected JSON response, got %q", rec.Header().Get("Content-Type"))
	}
	if body := decodeBody(t, rec); body["error"] != "Unauthorized: Authentication failed" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAuthMiddlewareInjectsIdentity(t *testing.T) {
	expected := &auth.Identity{AuthType: auth.DefaultAuthType, Claims: []auth.Claim{{Type: auth.ClaimEmail, Value: "ada@example.com"}}}
	next := newAuthMiddleware(auth.NewPathPolicy(), &authenticatorStub{identity: expected}, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()) != expected {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/123", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestAuthMiddlewareLetsPreflightThrough(t *testing.T) {
	authenticator := &authenticatorStub{}
	next := newAuthMiddleware(auth.NewPathPolicy(), authenticator, discardLogger())(okHandler())

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/identity", nil))
	if rec.Code != http.StatusOK || authenticator.calls != 0 {
		t.Fatalf("expected preflight to bypass authentication, got %d after %d calls", rec.Code, authenticator.calls)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	newSecurityHeadersMiddleware("production")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	expected := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Cross-Origin-Resource-Policy": "same-origin",
		"Strict-Transport-Security":    "max-age=31536000; includeSubDomains",
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}

	rec = httptest.NewRecorder()
	newSecurityHeadersMiddleware("development")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("expected no HSTS header in development")
	}
}
