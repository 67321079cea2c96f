package server

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/scribe/internal/store"
)

// HMACVerifier validates HS256-signed tokens with a shared secret. Used by
// self-hosted deployments that run without an OIDC issuer.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret []byte) *HMACVerifier {
	return &HMACVerifier{secret: secret}
}

func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (store.Identity, error) {
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return store.Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return store.Identity{}, fmt.Errorf("unexpected claims type")
	}
	identity := store.Identity{}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	if sub, ok := claims["sub"].(string); ok {
		identity.UID = sub
	}
	return identity, nil
}
