package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"

	"userauth/internal/providers"
)

const (
	defaultTokenLifetime  = time.Hour
	defaultRefreshTimeout = 10 * time.Second
)

// RefreshResult is what a provider returns from a refresh grant.
// RefreshToken is empty when the provider kept the existing one.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Refresher exchanges a record's refresh token with its provider.
type Refresher interface {
	Refresh(ctx context.Context, record providers.Record) (*RefreshResult, error)
}

// RefresherRegistry dispatches refreshes by provider.
type RefresherRegistry map[providers.Type]Refresher

// ProviderCredentials holds OAuth client credentials per provider.
type ProviderCredentials struct {
	GoogleClientID       string
	GoogleClientSecret   string
	LinkedInClientID     string
	LinkedInClientSecret string
}

// NewDefaultRegistry wires every known provider. Options apply to the
// refreshers that talk to a token endpoint.
func NewDefaultRegistry(creds ProviderCredentials, opts ...RefresherOption) RefresherRegistry {
	return RefresherRegistry{
		providers.TypeGoogle:   NewGoogleRefresher(creds.GoogleClientID, creds.GoogleClientSecret, opts...),
		providers.TypeLinkedIn: NewLinkedInRefresher(creds.LinkedInClientID, creds.LinkedInClientSecret, opts...),
		providers.TypeFacebook: UnsupportedRefresher{Provider: providers.TypeFacebook},
		providers.TypeGitHub:   UnsupportedRefresher{Provider: providers.TypeGitHub},
	}
}

// RefresherOption customises an OAuth2Refresher.
type RefresherOption func(*OAuth2Refresher)

// WithTokenURL points the refresher at a different token endpoint.
func WithTokenURL(tokenURL string) RefresherOption {
	return func(r *OAuth2Refresher) {
		r.config.Endpoint.TokenURL = tokenURL
	}
}

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(client *http.Client) RefresherOption {
	return func(r *OAuth2Refresher) {
		if client != nil {
			r.client = client
		}
	}
}

// WithRefreshTimeout bounds each outbound token request. It applies to the
// client in use, including one passed through WithHTTPClient.
func WithRefreshTimeout(timeout time.Duration) RefresherOption {
	return func(r *OAuth2Refresher) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithIDTokenVerifier checks any id_token in the refresh response against the
// record's provider id.
func WithIDTokenVerifier(verifier IDTokenVerifier) RefresherOption {
	return func(r *OAuth2Refresher) {
		r.verifier = verifier
	}
}

// OAuth2Refresher performs the standard refresh_token grant.
type OAuth2Refresher struct {
	provider providers.Type
	config   oauth2.Config
	client   *http.Client
	timeout  time.Duration
	verifier IDTokenVerifier
	now      func() time.Time
}

// NewGoogleRefresher creates a refresher for Google's token endpoint.
func NewGoogleRefresher(clientID, clientSecret string, opts ...RefresherOption) *OAuth2Refresher {
	return newOAuth2Refresher(providers.TypeGoogle, google.Endpoint, clientID, clientSecret, opts...)
}

// NewLinkedInRefresher creates a refresher for LinkedIn's token endpoint.
func NewLinkedInRefresher(clientID, clientSecret string, opts ...RefresherOption) *OAuth2Refresher {
	return newOAuth2Refresher(providers.TypeLinkedIn, linkedin.Endpoint, clientID, clientSecret, opts...)
}

func newOAuth2Refresher(provider providers.Type, endpoint oauth2.Endpoint, clientID, clientSecret string, opts ...RefresherOption) *OAuth2Refresher {
	// Credentials travel in the form body for both providers.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	r := &OAuth2Refresher{
		provider: provider,
		config: oauth2.Config{
			ClientID:     strings.TrimSpace(clientID),
			ClientSecret: strings.TrimSpace(clientSecret),
			Endpoint:     endpoint,
		},
		client: &http.Client{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Copy so an injected client is not mutated.
	client := *r.client
	switch {
	case r.timeout > 0:
		client.Timeout = r.timeout
	case client.Timeout == 0:
		client.Timeout = defaultRefreshTimeout
	}
	r.client = &client
	return r
}

// Refresh implements Refresher. It makes at most one request and never retries.
func (r *OAuth2Refresher) Refresh(ctx context.Context, record providers.Record) (*RefreshResult, error) {
	if r.config.ClientID == "" || r.config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s client id or secret not set", ErrProviderMisconfigured, r.provider)
	}
	if !record.HasRefreshToken() {
		return nil, ErrRefreshTokenAbsent
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	token, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: record.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRefreshTransport, r.provider, err)
	}

	if r.verifier != nil {
		if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
			subject, err := r.verifier.VerifySubject(ctx, rawIDToken)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: verify id token: %w", ErrRefreshTransport, r.provider, err)
			}
			if subject != record.ProviderID {
				return nil, fmt.Errorf("%w: %s: id token subject does not match provider id", ErrRefreshTransport, r.provider)
			}
		}
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = r.now().Add(defaultTokenLifetime)
	}

	result := &RefreshResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}
	// The oauth2 package echoes the old refresh token back when the provider
	// omits one.
	if token.RefreshToken != record.RefreshToken {
		result.RefreshToken = token.RefreshToken
	}
	return result, nil
}

// UnsupportedRefresher is registered for providers with no refresh grant.
type UnsupportedRefresher struct {
	Provider providers.Type
}

// Refresh implements Refresher.
func (u UnsupportedRefresher) Refresh(context.Context, providers.Record) (*RefreshResult, error) {
	return nil, fmt.Errorf("%w: %s", ErrRefreshUnsupported, u.Provider)
}
