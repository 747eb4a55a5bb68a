// Package footprint holds the product footprint models of each protocol
// revision and the read-only store the query engine and exchanges read from.
package footprint

import (
	"fmt"
	"slices"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
	"github.com/Mindburn-Labs/pact-conformance/pkg/query"
)

// Record is a footprint of any revision.
type Record interface {
	query.Subject
	RecordID() string
	RecordSpecVersion() string
}

// Store is an ordered collection of records seeded once at startup. It is
// never mutated afterwards, so concurrent readers need no locking.
type Store[T Record] struct {
	revision pact.Revision
	records  []T
	index    map[string]int
}

// NewStore builds a store. Record ids must be unique.
func NewStore[T Record](rev pact.Revision, records []T) (*Store[T], error) {
	s := &Store[T]{
		revision: rev,
		records:  slices.Clone(records),
		index:    make(map[string]int, len(records)),
	}
	for i, r := range s.records {
		id := r.RecordID()
		if id == "" {
			return nil, fmt.Errorf("record %d has no id", i)
		}
		if prev, dup := s.index[id]; dup {
			return nil, fmt.Errorf("duplicate footprint id %s at positions %d and %d", id, prev, i)
		}
		s.index[id] = i
	}
	return s, nil
}

// Revision is the protocol revision the store serves.
func (s *Store[T]) Revision() pact.Revision { return s.revision }

// Len is the number of records.
func (s *Store[T]) Len() int { return len(s.records) }

// All returns the records in seed order. The slice must not be modified.
func (s *Store[T]) All() []T { return slices.Clip(s.records) }

// Get finds a record by id.
func (s *Store[T]) Get(id string) (T, bool) {
	i, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.records[i], true
}

// Head returns up to n leading records, boxed for event payloads.
func (s *Store[T]) Head(n int) []any {
	n = min(max(n, 0), len(s.records))
	out := make([]any, n)
	for i := range n {
		out[i] = s.records[i]
	}
	return out
}
