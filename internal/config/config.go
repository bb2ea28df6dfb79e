package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the user auth service.
type Config struct {
	Environment    string
	HTTPPort       int
	DatabaseURL    string
	DataStore      string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	APIToken       string

	GoogleClientID       string
	GoogleClientSecret   string
	LinkedInClientID     string
	LinkedInClientSecret string
	RefreshTimeout       time.Duration
	VerifyGoogleIDToken  bool

	RedisURL        string
	RefreshLeaseTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/userauth_database_url")
	if err != nil {
		return Config{}, err
	}

	apiToken, err := getEnvOrFile("API_TOKEN", "/run/secrets/userauth_api_token")
	if err != nil {
		return Config{}, err
	}

	googleSecret, err := getEnvOrFile("AUTH_GOOGLE_SECRET", "/run/secrets/userauth_google_secret")
	if err != nil {
		return Config{}, err
	}

	linkedInSecret, err := getEnvOrFile("AUTH_LINKEDIN_SECRET", "/run/secrets/userauth_linkedin_secret")
	if err != nil {
		return Config{}, err
	}

	redisURL, err := getEnvOrFile("REDIS_URL", "")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL:          databaseURL,
		DataStore:            strings.ToLower(getEnv("DATA_STORE", "memory")),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "text")),
		APIToken:             strings.TrimSpace(apiToken),
		GoogleClientID:       strings.TrimSpace(os.Getenv("AUTH_GOOGLE_ID")),
		GoogleClientSecret:   strings.TrimSpace(googleSecret),
		LinkedInClientID:     strings.TrimSpace(os.Getenv("AUTH_LINKEDIN_ID")),
		LinkedInClientSecret: strings.TrimSpace(linkedInSecret),
		RedisURL:             strings.TrimSpace(redisURL),
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == "" {
		// A deployment that carries provider credentials is treated as production.
		if cfg.GoogleClientID != "" || cfg.LinkedInClientID != "" {
			env = "production"
		} else {
			env = "development"
		}
	}
	cfg.Environment = env

	defaultOrigins := ""
	if cfg.IsDevelopment() {
		defaultOrigins = "http://localhost:4200,http://localhost:8080"
	}
	cfg.AllowedOrigins = parseCSV(getEnv("ALLOWED_ORIGINS", defaultOrigins))

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	if cfg.RefreshTimeout, err = getDuration("AUTH_REFRESH_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RefreshLeaseTTL, err = getDuration("AUTH_REFRESH_LEASE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.VerifyGoogleIDToken, err = getBool("AUTH_VERIFY_GOOGLE_ID_TOKEN", false); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.DataStore != "memory" && c.DataStore != "postgres" {
		return fmt.Errorf("DATA_STORE must be memory or postgres, got %q", c.DataStore)
	}
	if c.DataStore == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	if err := requirePair("AUTH_GOOGLE_ID", c.GoogleClientID, "AUTH_GOOGLE_SECRET", c.GoogleClientSecret); err != nil {
		return err
	}
	if err := requirePair("AUTH_LINKEDIN_ID", c.LinkedInClientID, "AUTH_LINKEDIN_SECRET", c.LinkedInClientSecret); err != nil {
		return err
	}

	// A lease that can lapse mid-request lets a second instance refresh the
	// same token.
	if c.RedisURL != "" && c.RefreshTimeout >= c.RefreshLeaseTTL {
		return fmt.Errorf("AUTH_REFRESH_TIMEOUT (%s) must be shorter than AUTH_REFRESH_LEASE_TTL (%s)", c.RefreshTimeout, c.RefreshLeaseTTL)
	}

	if c.VerifyGoogleIDToken && c.GoogleClientID == "" {
		return fmt.Errorf("AUTH_VERIFY_GOOGLE_ID_TOKEN requires AUTH_GOOGLE_ID")
	}

	if c.IsDevelopment() {
		return nil
	}

	if c.GoogleClientID == "" {
		return fmt.Errorf("AUTH_GOOGLE_ID is required when APP_ENV=%s", c.Environment)
	}
	if c.LinkedInClientID == "" {
		return fmt.Errorf("AUTH_LINKEDIN_ID is required when APP_ENV=%s", c.Environment)
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS must define at least one origin when APP_ENV=%s", c.Environment)
	}
	for _, origin := range c.AllowedOrigins {
		if strings.Contains(origin, "*") {
			return fmt.Errorf("ALLOWED_ORIGINS cannot contain wildcard when APP_ENV=%s", c.Environment)
		}
	}
	return nil
}

// requirePair rejects a half-configured credential pair.
func requirePair(idKey, id, secretKey, secret string) error {
	switch {
	case id != "" && secret == "":
		return fmt.Errorf("%s is set but %s is missing", idKey, secretKey)
	case id == "" && secret != "":
		return fmt.Errorf("%s is set but %s is missing", secretKey, idKey)
	}
	return nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory repository should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// IsDevelopment reports whether relaxed local defaults apply.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
