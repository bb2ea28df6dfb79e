package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"userauth/internal/auth"
	"userauth/internal/config"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Tokens        tokenService
	Providers     providerLookup
	Policy        *auth.PathPolicy
	Authenticator *auth.Authenticator
	HealthChecks  []HealthCheck
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, deps Dependencies, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.APIKeyHeader},
		ExposedHeaders:   []string{"Link", "WWW-Authenticate"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSlogMiddleware(logger))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newAuthMiddleware(deps.Policy, deps.Authenticator, logger))

	health := NewHealthHandler(cfg.Environment, deps.HealthChecks, logger)
	r.Get("/health", health.Health)

	oauth := NewOAuthHandler(deps.Tokens, deps.Providers, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/oauth", func(r chi.Router) {
			r.Post("/validate", oauth.Validate)
			r.Post("/refresh", oauth.Refresh)
			r.Get("/me", oauth.Me)
		})
		r.Get("/users/oauth-providers/check", oauth.CheckProvider)
		r.Get("/identity", Identity)
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
