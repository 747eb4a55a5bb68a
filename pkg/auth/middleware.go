package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mindburn-Labs/pact-conformance/pkg/api"
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// NewMiddleware rejects requests without a valid bearer token and stores the
// verified client id in the request context.
// If verifier is nil, every request is rejected.
func NewMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				api.WriteUnauthorized(w, "Missing or malformed bearer token")
				return
			}
			if verifier == nil {
				api.WriteUnauthorized(w, "Authentication not configured")
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				api.WriteTokenExpired(w)
				return
			case err != nil:
				api.WriteUnauthorized(w, "Invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), claims.ClientID)))
		})
	}
}
