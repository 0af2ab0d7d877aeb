// Package operator authenticates support staff calling the operator
// surfaces with an OIDC ID token.
package operator

import (
	"context"
	"errors"
	"fmt"

	"checkout-arbiter/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Operator is the verified caller of an operator surface.
type Operator struct {
	Subject string
	Email   string
}

// TokenVerifier turns a raw bearer token into an Operator.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Operator, error)
}

// OIDCVerifier checks ID tokens against an issuer discovered at startup.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier initializes the verifier using discovery. issuer must be
// the issuer URL the tokens carry, e.g.
// http://localhost:8081/realms/checkout
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	if issuer == "" || clientID == "" {
		return nil, errors.New("operator oidc config missing required fields")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init operator oidc provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// NewVerifierWithKeySet builds a verifier without discovery.
func NewVerifierWithKeySet(issuer, clientID string, keys oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*Operator, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		logger.Warn("operator id_token verification failed", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("operator id_token claims parse failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("operator id_token missing subject")
	}

	return &Operator{Subject: claims.Subject, Email: claims.Email}, nil
}
