package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mindburn-Labs/pact-conformance/pkg/auth"
)

func protected(t *testing.T, iss *auth.Issuer) (http.Handler, *string) {
	t.Helper()
	var seen string
	h := auth.NewMiddleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetClientID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestMiddleware_ValidToken(t *testing.T) {
	iss := auth.NewIssuer(auth.Credentials{ClientID: "id", ClientSecret: "secret"}, "key", time.Hour, nil)
	handler, seen := protected(t, iss)

	token, err := iss.Issue("id")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest("GET", "/3/footprints", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if *seen != "id" {
		t.Errorf("expected client id in context, got %q", *seen)
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	iss := auth.NewIssuer(auth.Credentials{ClientID: "id", ClientSecret: "secret"}, "key", time.Hour, nil)
	expired := auth.NewIssuer(auth.Credentials{ClientID: "id", ClientSecret: "secret"}, "key", time.Nanosecond, nil)
	stale, err := expired.Issue("id")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "AccessDenied"},
		{"basic scheme", "Basic abc", "AccessDenied"},
		{"empty bearer", "Bearer ", "AccessDenied"},
		{"garbage token", "Bearer not.a.jwt", "AccessDenied"},
		{"expired token", "Bearer " + stale, "TokenExpired"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, seen := protected(t, iss)
			req := httptest.NewRequest("GET", "/2/footprints", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, body["code"])
			}
			if *seen != "" {
				t.Error("handler must not run for rejected requests")
			}
		})
	}
}

func TestMiddleware_NilVerifierFailsClosed(t *testing.T) {
	handler := auth.NewMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))
	req := httptest.NewRequest("GET", "/3/footprints", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := auth.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != "req-123" || w.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("client request id not propagated: ctx=%q header=%q", seen, w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if len(seen) != 36 || w.Header().Get("X-Request-ID") != seen {
		t.Errorf("expected generated uuid, got %q", seen)
	}
}
