package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

const maxJSONBodyBytes int64 = 64 << 10

var errPayloadTooLarge = errors.New("payload too large")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	limited := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() {
		_ = limited.Close()
	}()

	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w (max %d bytes)", errPayloadTooLarge, maxErr.Limit)
		}
		return err
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, err error) {
	if errors.Is(err, errPayloadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	// Return generic message to avoid leaking internal JSON parsing details
	writeError(w, http.StatusBadRequest, "invalid request body")
}

// HealthCheck is a dependency probed by GET /health.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of backing services.
type HealthHandler struct {
	environment string
	checks      []HealthCheck
	logger      *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(environment string, checks []HealthCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{environment: environment, checks: checks, logger: logger}
}

// Health responds 200 when every check passes and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(r.Context()); err != nil {
			h.logger.Warn("health check failed", "check", check.Name(), "error", err)
			results[check.Name()] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[check.Name()] = "ok"
	}

	body := map[string]any{
		"status":      "ok",
		"environment": h.environment,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(results) > 0 {
		body["checks"] = results
	}
	writeJSON(w, status, body)
}
