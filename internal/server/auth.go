package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/user/scribe/internal/store"
)

// TokenVerifier checks a bearer token and yields the verified identity
// recorded into audit trails.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (store.Identity, error)
}

// bearerToken extracts the token from an Authorization header. Empty when
// the header is missing or not a bearer scheme.
func bearerToken(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("Bearer "):])
}

// resolveIdentity verifies the request's bearer token.
func (s *Server) resolveIdentity(r *http.Request) (store.Identity, error) {
	if s.verifier == nil {
		return store.Identity{}, store.NewUnauthorizedError("no token verifier configured")
	}
	raw := bearerToken(r)
	if raw == "" {
		return store.Identity{}, store.NewUnauthorizedError("missing bearer token")
	}
	identity, err := s.verifier.Verify(r.Context(), raw)
	if err != nil {
		return store.Identity{}, store.NewUnauthorizedError("invalid token")
	}
	return identity, nil
}

// StaticVerifier accepts exactly the tokens it was constructed with. Test
// and single-operator use only.
type StaticVerifier map[string]store.Identity

func (v StaticVerifier) Verify(_ context.Context, rawToken string) (store.Identity, error) {
	identity, ok := v[rawToken]
	if !ok {
		return store.Identity{}, store.NewUnauthorizedError("unknown token")
	}
	return identity, nil
}
