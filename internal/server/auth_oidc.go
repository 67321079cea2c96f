package server

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/user/scribe/internal/store"
)

type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

// OIDCVerifier validates bearer tokens against an OIDC issuer and maps the
// standard claims onto the audit identity.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, cfg OIDCConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, strings.TrimSpace(cfg.IssuerURL))
	if err != nil {
		return nil, err
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: strings.TrimSpace(cfg.ClientID)})
	return &OIDCVerifier{verifier: verifier}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (store.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return store.Identity{}, err
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Subject       string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return store.Identity{}, err
	}
	return store.Identity{
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		UID:           claims.Subject,
	}, nil
}
