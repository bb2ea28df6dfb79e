package auth

import "errors"

// Failure classes. Only ErrProviderMisconfigured is returned to callers of
// TokenService; the rest resolve to a nil result and a log line.
var (
	// ErrMissingCredential marks an absent or empty bearer token.
	ErrMissingCredential = errors.New("missing or malformed credential")
	// ErrInvalidToken marks an unknown or expired access token.
	ErrInvalidToken = errors.New("invalid or expired access token")
	// ErrRefreshTokenAbsent marks a record that has no refresh token. Not retriable.
	ErrRefreshTokenAbsent = errors.New("refresh token absent")
	// ErrRefreshUnsupported is returned by providers that cannot refresh; the
	// caller must send the user through a full re-authorization.
	ErrRefreshUnsupported = errors.New("provider does not support token refresh")
	// ErrRefreshTransport wraps network, HTTP and provider-side auth failures. Retriable.
	ErrRefreshTransport = errors.New("provider token refresh failed")
	// ErrRefreshInProgress is returned when another instance holds the refresh lease.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrStrategyFault wraps a panic recovered from an authentication strategy.
	ErrStrategyFault = errors.New("authentication strategy fault")
	// ErrProviderMisconfigured marks missing client credentials for a provider.
	ErrProviderMisconfigured = errors.New("provider is misconfigured")

	// ErrNilUser is returned by ClaimsBuilder when no user is supplied.
	ErrNilUser = errors.New("user is required")
	// ErrEmptyAuthType is returned by ClaimsBuilder for a blank authentication type.
	ErrEmptyAuthType = errors.New("authentication type is required")
)
