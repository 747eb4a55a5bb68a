// Package limiter provides the token-bucket stores behind inbound rate
// limiting.
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy defines a per-key budget.
type Policy struct {
	RPM   int
	Burst int
}

// PerSecond is the refill rate of the policy. Non-positive RPM refills one
// token per second.
func (p Policy) PerSecond() float64 {
	if p.RPM <= 0 {
		return 1
	}
	return float64(p.RPM) / 60.0
}

// RetryAfter is how long a caller should wait for one token to refill.
func (p Policy) RetryAfter() time.Duration {
	return time.Duration(float64(time.Second) / p.PerSecond())
}

func (p Policy) burst() int {
	return max(p.Burst, 1)
}

// Store abstracts the storage for rate limiting buckets.
type Store interface {
	// Allow reports whether key may spend cost tokens under policy.
	Allow(ctx context.Context, key string, policy Policy, cost int) (bool, error)
}

// InMemoryStore keeps one limiter per key in process memory. It suits
// single-instance deployments and tests.
type InMemoryStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow implements Store.
func (s *InMemoryStore) Allow(_ context.Context, key string, policy Policy, cost int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(policy.PerSecond()), policy.burst())}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, cost), nil
}

// Len reports how many keys are tracked.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// Sweep drops keys not seen within idle.
func (s *InMemoryStore) Sweep(idle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	for key, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, key)
		}
	}
}

// Run sweeps idle keys every interval until ctx is done.
func (s *InMemoryStore) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(idle)
		}
	}
}
