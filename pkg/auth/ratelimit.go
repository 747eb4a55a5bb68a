package auth

import (
	"log/slog"
	"math"
	"net"
	"net/http"

	"github.com/Mindburn-Labs/pact-conformance/pkg/api"
	"github.com/Mindburn-Labs/pact-conformance/pkg/limiter"
)

// RateLimitMiddleware enforces per-client rate limiting. The key is the
// authenticated client id, falling back to the remote IP.
// On rate limit exceeded, it returns 429 with a Retry-After header.
// Limiter errors let the request through.
func RateLimitMiddleware(store limiter.Store, policy limiter.Policy) func(http.Handler) http.Handler {
	retryAfter := max(1, int(math.Ceil(policy.RetryAfter().Seconds())))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := store.Allow(r.Context(), rateKey(r), policy, 1)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				api.WriteTooManyRequests(w, retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if id := GetClientID(r.Context()); id != "" {
		return "client:" + id
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
