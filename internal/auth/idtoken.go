package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const googleIssuer = "https://accounts.google.com"

// IDTokenVerifier verifies a raw ID token and returns its subject.
type IDTokenVerifier interface {
	VerifySubject(ctx context.Context, rawIDToken string) (string, error)
}

// OIDCVerifier adapts an oidc.IDTokenVerifier.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier wraps an existing verifier.
func NewOIDCVerifier(verifier *oidc.IDTokenVerifier) *OIDCVerifier {
	return &OIDCVerifier{verifier: verifier}
}

// NewGoogleIDTokenVerifier discovers Google's signing keys and returns a
// verifier bound to the client id.
func NewGoogleIDTokenVerifier(ctx context.Context, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}
	return NewOIDCVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

// VerifySubject implements IDTokenVerifier.
func (v *OIDCVerifier) VerifySubject(ctx context.Context, rawIDToken string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	return idToken.Subject, nil
}
