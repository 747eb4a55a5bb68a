package tokenclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

func TestRegistryResolver(t *testing.T) {
	resolve := RegistryResolver(pact.DefaultRegistry())

	cases := []struct{ in, want string }{
		{"https://host.example", "https://host.example/auth/token"},
		{"https://host.example/", "https://host.example/auth/token"},
		{"https://host.example/3/events", "https://host.example/auth/token"},
		{"https://host.example/2/events", "https://host.example/auth/token"},
		{"https://host.example/prod/3/events?x=1", "https://host.example/prod/auth/token"},
		{"https://host.example/prod?session=abc#f", "https://host.example/prod/auth/token"},
		{"http://127.0.0.1:9000/conformance/", "http://127.0.0.1:9000/conformance/auth/token"},
		{"https://host.example/3/events/3/events", "https://host.example/3/events/auth/token"},
		{"https://host.example/events", "https://host.example/events/auth/token"},
	}
	for _, tc := range cases {
		got, err := resolve(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := resolve("//EventHostname/EventSubpath")
	assert.Error(t, err)
	_, err = resolve("::not a url")
	assert.Error(t, err)
}

func TestClient_Token(t *testing.T) {
	var gotAuthUser, gotAuthPass, gotContentType, gotGrant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/token", r.URL.Path)
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		gotContentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotGrant = r.PostForm.Get("grant_type")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "token_type": "bearer"})
	}))
	defer srv.Close()

	c := New("test_client_id", "test_client_secret")
	tok, err := c.Token(context.Background(), srv.URL+"/3/events?ignored=1")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
	assert.Equal(t, "test_client_id", gotAuthUser)
	assert.Equal(t, "test_client_secret", gotAuthPass)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "client_credentials", gotGrant)
}

func TestClient_TokenFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"Invalid credentials"}`, http.StatusUnauthorized)
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"token":"wrong-field"}`))
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>nope</html>`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New("id", "secret").Token(context.Background(), srv.URL)
			require.Error(t, err)
			assert.ErrorIs(t, err, pact.ErrTokenAcquisition)

			var te *pact.TokenError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.status, te.Status)
			assert.Equal(t, srv.URL+"/auth/token", te.Endpoint)
		})
	}
}

func TestClient_TokenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New("id", "secret").Token(context.Background(), url)
	assert.ErrorIs(t, err, pact.ErrTokenAcquisition)
}

func TestClient_TokenTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New("id", "secret", WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.Token(context.Background(), srv.URL)
	assert.ErrorIs(t, err, pact.ErrTokenAcquisition)
}

func TestClient_CustomResolver(t *testing.T) {
	c := New("id", "secret", WithResolver(func(string) (string, error) {
		return "https://auth.example/oauth/token", nil
	}))
	ep, err := c.Endpoint("https://host.example/3/events")
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example/oauth/token", ep)
}
