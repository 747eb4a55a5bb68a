package exchange

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// counterparty is a fake host exposing a token endpoint and events endpoints.
type counterparty struct {
	*httptest.Server

	tokenStatus int
	eventStatus int

	mu          sync.Mutex
	tokenCalls  int
	events      []pact.Event
	eventPaths  []string
	bearers     []string
	contentType string
}

func newCounterparty(t *testing.T) *counterparty {
	t.Helper()
	cp := &counterparty{tokenStatus: http.StatusOK, eventStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		cp.mu.Lock()
		cp.tokenCalls++
		status := cp.tokenStatus
		cp.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "counterparty-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var ev pact.Event
		_ = json.Unmarshal(body, &ev)
		cp.mu.Lock()
		cp.events = append(cp.events, ev)
		cp.eventPaths = append(cp.eventPaths, r.URL.Path)
		cp.bearers = append(cp.bearers, r.Header.Get("Authorization"))
		cp.contentType = r.Header.Get("Content-Type")
		status := cp.eventStatus
		cp.mu.Unlock()
		w.WriteHeader(status)
	})
	cp.Server = httptest.NewServer(mux)
	t.Cleanup(cp.Close)
	return cp
}

func (cp *counterparty) received() []pact.Event {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return append([]pact.Event(nil), cp.events...)
}

func (cp *counterparty) tokens() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.tokenCalls
}

func (cp *counterparty) requests() (paths, bearers []string, contentType string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return append([]string(nil), cp.eventPaths...), append([]string(nil), cp.bearers...), cp.contentType
}

// respond sets the statuses returned by the token and events endpoints.
func (cp *counterparty) respond(token, event int) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.tokenStatus, cp.eventStatus = token, event
}
