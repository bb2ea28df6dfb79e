package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Strategy is one pluggable authentication scheme.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// CanHandle reports whether the request carries this scheme's credential.
	CanHandle(r *http.Request) bool
	// Authenticate returns the caller's identity, or nil when the credential
	// is not accepted. Errors are reserved for faults.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

// Authenticator tries its strategies in registration order until one yields
// an identity.
type Authenticator struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewAuthenticator registers strategies in the order given.
func NewAuthenticator(logger *slog.Logger, strategies ...Strategy) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	registered := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			registered = append(registered, s)
		}
	}
	return &Authenticator{strategies: registered, logger: logger}
}

// Authenticate returns the first identity any handling strategy produces, or
// nil. A strategy that fails is logged and skipped; this method never panics.
func (a *Authenticator) Authenticate(r *http.Request) *Identity {
	if r == nil {
		return nil
	}

	for _, strategy := range a.strategies {
		if !a.canHandle(strategy, r) {
			continue
		}

		identity, err := a.run(strategy, r)
		if err != nil {
			a.logger.Warn("authentication strategy failed",
				"strategy", strategy.Name(),
				"path", r.URL.Path,
				"error", err,
			)
			continue
		}
		if identity != nil {
			return identity
		}
	}

	a.logger.Debug("request not authenticated", "method", r.Method, "path", r.URL.Path)
	return nil
}

func (a *Authenticator) canHandle(strategy Strategy, r *http.Request) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("authentication strategy panicked in CanHandle",
				"strategy", strategy.Name(),
				"panic", fmt.Sprint(rec),
			)
			ok = false
		}
	}()
	return strategy.CanHandle(r)
}

func (a *Authenticator) run(strategy Strategy, r *http.Request) (identity *Identity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			identity = nil
			err = fmt.Errorf("%w: %v", ErrStrategyFault, rec)
		}
	}()
	return strategy.Authenticate(r.Context(), r)
}
