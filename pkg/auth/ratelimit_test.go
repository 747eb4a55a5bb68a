package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mindburn-Labs/pact-conformance/pkg/auth"
	"github.com/Mindburn-Labs/pact-conformance/pkg/limiter"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_UnderLimit(t *testing.T) {
	handler := auth.RateLimitMiddleware(limiter.NewInMemoryStore(), limiter.Policy{RPM: 60, Burst: 10})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/3/footprints", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_OverLimit(t *testing.T) {
	handler := auth.RateLimitMiddleware(limiter.NewInMemoryStore(), limiter.Policy{RPM: 1, Burst: 1})(okHandler())

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, httptest.NewRequest("GET", "/3/footprints", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, httptest.NewRequest("GET", "/3/footprints", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w2.Code)
	}
	if ra := w2.Header().Get("Retry-After"); ra != "60" {
		t.Errorf("expected Retry-After 60, got %q", ra)
	}
}

func TestRateLimitMiddleware_KeysByClient(t *testing.T) {
	handler := auth.RateLimitMiddleware(limiter.NewInMemoryStore(), limiter.Policy{RPM: 1, Burst: 1})(okHandler())

	for _, client := range []string{"alpha", "beta"} {
		req := httptest.NewRequest("GET", "/3/footprints", nil)
		req = req.WithContext(auth.WithClientID(req.Context(), client))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("client %s: expected 200, got %d", client, w.Code)
		}
	}
}

type brokenStore struct{}

func (brokenStore) Allow(context.Context, string, limiter.Policy, int) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	for name, store := range map[string]limiter.Store{"nil store": nil, "broken store": brokenStore{}} {
		handler := auth.RateLimitMiddleware(store, limiter.Policy{RPM: 1, Burst: 1})(okHandler())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/3/footprints", nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", name, w.Code)
		}
	}
}
