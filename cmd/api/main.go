package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"userauth/internal/auth"
	"userauth/internal/config"
	transporthttp "userauth/internal/http"
	"userauth/internal/platform/database"
	"userauth/internal/platform/logging"
	"userauth/internal/platform/migrate"
	platformredis "userauth/internal/platform/redis"
	"userauth/internal/providers"
	"userauth/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	stores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer stores.close()

	refreshers, err := buildRefreshers(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize token refreshers", "error", err)
		os.Exit(1)
	}

	tokenOpts, healthChecks, closeRedis, err := buildRefreshCoordination(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize refresh coordination", "error", err)
		os.Exit(1)
	}
	defer closeRedis()
	healthChecks = append(healthChecks, stores.checks...)

	tokens := auth.NewTokenService(stores.providers, stores.users, refreshers, logger, tokenOpts...)

	strategies := []auth.Strategy{auth.NewBearerStrategy(tokens, logger)}
	if apiKey := auth.NewAPIKeyStrategy(cfg.APIToken); apiKey != nil {
		strategies = append(strategies, apiKey)
	} else {
		logger.Warn("API token authentication disabled; only bearer tokens are accepted")
	}

	router := transporthttp.NewRouter(cfg, transporthttp.Dependencies{
		Tokens:        tokens,
		Providers:     stores.providers,
		Policy:        auth.NewPathPolicy(),
		Authenticator: auth.NewAuthenticator(logger, strategies...),
		HealthChecks:  healthChecks,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("user auth API listening", "addr", srv.Addr, "store", cfg.DataStore, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

type repositories struct {
	providers providers.Repository
	users     users.Repository
	checks    []transporthttp.HealthCheck
	close     func()
}

func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (repositories, error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repository")
		demoUsers, demoProviders := seedLocalAccounts(time.Now().UTC())
		return repositories{
			providers: providers.NewInMemoryRepository(demoProviders),
			users:     users.NewInMemoryRepository(demoUsers),
			close:     func() {},
		}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return repositories{}, err
	}

	logger.Info("connected to postgres")
	return repositories{
		providers: providers.NewPostgresRepository(db),
		users:     users.NewPostgresRepository(db),
		checks:    []transporthttp.HealthCheck{database.NewChecker(db)},
		close:     cleanup,
	}, nil
}

func buildRefreshers(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.RefresherRegistry, error) {
	creds := auth.ProviderCredentials{
		GoogleClientID:       cfg.GoogleClientID,
		GoogleClientSecret:   cfg.GoogleClientSecret,
		LinkedInClientID:     cfg.LinkedInClientID,
		LinkedInClientSecret: cfg.LinkedInClientSecret,
	}
	opts := []auth.RefresherOption{auth.WithRefreshTimeout(cfg.RefreshTimeout)}
	registry := auth.NewDefaultRegistry(creds, opts...)

	if creds.GoogleClientID == "" {
		logger.Warn("Google credentials not configured; Google refreshes will fail")
	}
	if creds.LinkedInClientID == "" {
		logger.Warn("LinkedIn credentials not configured; LinkedIn refreshes will fail")
	}

	if cfg.VerifyGoogleIDToken {
		verifier, err := auth.NewGoogleIDTokenVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			return nil, err
		}
		registry[providers.TypeGoogle] = auth.NewGoogleRefresher(creds.GoogleClientID, creds.GoogleClientSecret,
			append(opts, auth.WithIDTokenVerifier(verifier))...)
		logger.Info("Google ID token verification enabled for refreshes")
	}

	return registry, nil
}

func buildRefreshCoordination(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]auth.TokenServiceOption, []transporthttp.HealthCheck, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("refresh coordination is in-process only")
		return nil, nil, func() {}, nil
	}

	client, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Info("refresh leases stored in redis", "ttl", cfg.RefreshLeaseTTL.String())
	lock := auth.NewRedisRefreshLock(client, cfg.RefreshLeaseTTL, logger)
	return []auth.TokenServiceOption{auth.WithRefreshLock(lock)},
		[]transporthttp.HealthCheck{platformredis.NewChecker(client)},
		func() { _ = client.Close() },
		nil
}
