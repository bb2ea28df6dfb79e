package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"userauth/internal/auth"
	"userauth/internal/providers"
	"userauth/internal/users"
)

// tokenService is the slice of auth.TokenService the handlers call.
type tokenService interface {
	GetUserByAccessToken(ctx context.Context, accessToken string) (*users.User, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*providers.Record, error)
}

// providerLookup finds provider links by external subject.
type providerLookup interface {
	FindByProviderID(ctx context.Context, provider providers.Type, providerID string) (*providers.Record, error)
}

// OAuthHandler exposes token validation, refresh and profile endpoints.
type OAuthHandler struct {
	tokens    tokenService
	providers providerLookup
	logger    *slog.Logger
}

// NewOAuthHandler creates an OAuthHandler.
func NewOAuthHandler(tokens tokenService, providerRepo providerLookup, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{tokens: tokens, providers: providerRepo, logger: logger}
}

type validateTokenResponse struct {
	UserID            uuid.UUID  `json:"userId"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	ProfessionalTitle string     `json:"professionalTitle,omitempty"`
	Bio               string     `json:"bio,omitempty"`
	Location          string     `json:"location,omitempty"`
	AvatarURL         string     `json:"avatarUrl,omitempty"`
	IsActive          bool       `json:"isActive"`
	IsAdmin           bool       `json:"isAdmin"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
}

func summaryResponse(u *users.User) validateTokenResponse {
	return validateTokenResponse{
		UserID:    u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
	}
}

func profileResponse(u *users.User) validateTokenResponse {
	resp := summaryResponse(u)
	resp.ProfessionalTitle = u.ProfessionalTitle
	resp.Bio = u.Bio
	resp.Location = u.Location
	resp.AvatarURL = u.AvatarURL
	resp.LastLoginAt = u.LastLoginAt
	return resp
}

// Validate checks an access token supplied in the body.
func (h *OAuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	user, err := h.tokens.GetUserByAccessToken(r.Context(), strings.TrimSpace(payload.AccessToken))
	if err != nil {
		h.logger.Error("validate access token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate access token")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired access token")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse(user))
}

// Refresh exchanges a stored refresh token for a new access token.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	record, err := h.tokens.RefreshAccessToken(r.Context(), strings.TrimSpace(payload.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrProviderMisconfigured) {
			writeError(w, http.StatusInternalServerError, "token refresh is not configured for this provider")
			return
		}
		h.logger.Error("refresh access token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh access token")
		return
	}
	if record == nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired refresh token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Token refreshed successfully",
		"provider":  record.Provider,
		"expiresAt": record.TokenExpiresAt,
	})
}

// Me returns the profile of the bearer token's owner.
func (h *OAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r)
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return
	}

	user, err := h.tokens.GetUserByAccessToken(r.Context(), token)
	if err != nil {
		h.logger.Error("resolve current user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve current user")
		return
	}
	if user == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Invalid or expired access token")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse(user))
}

// CheckProvider reports whether an external identity is already linked.
func (h *OAuthHandler) CheckProvider(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	provider, err := providers.ParseType(query.Get("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "provider must be one of google, github, facebook, linkedin")
		return
	}
	providerID := strings.TrimSpace(query.Get("providerId"))
	if providerID == "" {
		writeError(w, http.StatusBadRequest, "providerId is required")
		return
	}

	record, err := h.providers.FindByProviderID(r.Context(), provider, providerID)
	if err != nil {
		h.logger.Error("check provider link", "provider", provider, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check provider")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": record != nil})
}

// Identity echoes the authenticated caller's claims.
func Identity(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}
