// Package pact holds the protocol registry for the PACT data exchange: event
// type strings, payload paths and error codes for every supported revision.
package pact

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Revision is a protocol major version as it appears in route prefixes
// ("/2/events", "/3/footprints").
type Revision string

const (
	RevisionV2 Revision = "2"
	RevisionV3 Revision = "3"
)

// SentinelProductID is the single-element product id list meaning "no such product".
const SentinelProductID = "urn:pact:null"

// SpecVersion10 is the envelope specversion used for fixed outbound events.
const SpecVersion10 = "1.0"

// EventKind is the closed set of event types a revision knows about.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindPublished
	KindRequestCreated
	KindRequestFulfilled
	KindRequestRejected
)

func (k EventKind) String() string {
	switch k {
	case KindPublished:
		return "published"
	case KindRequestCreated:
		return "request_created"
	case KindRequestFulfilled:
		return "request_fulfilled"
	case KindRequestRejected:
		return "request_rejected"
	default:
		return "unknown"
	}
}

// Protocol is the registry entry for one revision.
type Protocol struct {
	Revision   Revision
	EventTypes map[EventKind]string

	// PublishedIDPaths are tried in order; the first one present in data wins.
	PublishedIDPaths [][]string
	// SentinelPath locates the requested product ids compared against SentinelProductID.
	SentinelPath []string

	// EchoSpecVersion makes RequestFulfilled events carry the inbound specversion.
	EchoSpecVersion bool

	// NotFoundCode is the error code for a footprint lookup miss.
	NotFoundCode string

	// SpecVersions constrains the specVersion of footprint records served under this revision.
	SpecVersions string

	constraint *semver.Constraints
	kinds      map[string]EventKind
}

// EventType returns the wire type string for kind, or "" if the revision has none.
func (p *Protocol) EventType(kind EventKind) string {
	return p.EventTypes[kind]
}

// Kind maps an inbound type string to its kind. Unregistered types are KindUnknown.
func (p *Protocol) Kind(eventType string) EventKind {
	if k, ok := p.kinds[eventType]; ok {
		return k
	}
	return KindUnknown
}

// EventsPath is the counterparty path events of this revision are posted to.
func (p *Protocol) EventsPath() string {
	return "/" + string(p.Revision) + "/events"
}

// AcceptsSpecVersion reports whether a footprint specVersion belongs to this revision.
func (p *Protocol) AcceptsSpecVersion(v string) (bool, error) {
	ver, err := semver.NewVersion(v)
	if err != nil {
		return false, fmt.Errorf("parse specVersion %q: %w", v, err)
	}
	return p.constraint.Check(ver), nil
}

func (p *Protocol) compile() error {
	c, err := semver.NewConstraint(p.SpecVersions)
	if err != nil {
		return fmt.Errorf("revision %s: invalid specVersion constraint %q: %w", p.Revision, p.SpecVersions, err)
	}
	p.constraint = c
	p.kinds = make(map[string]EventKind, len(p.EventTypes))
	for k, t := range p.EventTypes {
		if prev, dup := p.kinds[t]; dup {
			return fmt.Errorf("revision %s: event type %q registered for both %s and %s", p.Revision, t, prev, k)
		}
		p.kinds[t] = k
	}
	return nil
}

// V2 is the Pathfinder 2.x revision.
func V2() *Protocol {
	return &Protocol{
		Revision: RevisionV2,
		EventTypes: map[EventKind]string{
			KindPublished:        "org.wbcsd.pathfinder.ProductFootprint.Published.v1",
			KindRequestCreated:   "org.wbcsd.pathfinder.ProductFootprintRequest.Created.v1",
			KindRequestFulfilled: "org.wbcsd.pathfinder.ProductFootprintRequest.Fulfilled.v1",
			KindRequestRejected:  "org.wbcsd.pathfinder.ProductFootprintRequest.Rejected.v1",
		},
		PublishedIDPaths: [][]string{{"pfIds"}, {"pf", "productIds"}},
		SentinelPath:     []string{"pf", "productIds"},
		EchoSpecVersion:  true,
		NotFoundCode:     CodeNoSuchFootprint,
		SpecVersions:     ">= 2.0.0-0, < 3.0.0-0",
	}
}

// V3 is the PACT 3.x revision. Lookup misses use the 3.x code NotFound,
// not the 2.x NoSuchFootprint.
func V3() *Protocol {
	return &Protocol{
		Revision: RevisionV3,
		EventTypes: map[EventKind]string{
			KindPublished:        "org.wbcsd.pact.ProductFootprint.PublishedEvent.3",
			KindRequestCreated:   "org.wbcsd.pact.ProductFootprint.RequestCreatedEvent.3",
			KindRequestFulfilled: "org.wbcsd.pact.ProductFootprint.RequestFulfilledEvent.3",
			KindRequestRejected:  "org.wbcsd.pact.ProductFootprint.RequestRejectedEvent.3",
		},
		PublishedIDPaths: [][]string{{"pfIds"}},
		SentinelPath:     []string{"productId"},
		NotFoundCode:     CodeNotFound,
		SpecVersions:     ">= 3.0.0-0, < 4.0.0-0",
	}
}

// Registry is the immutable table of supported revisions.
type Registry struct {
	protocols map[Revision]*Protocol
}

// NewRegistry compiles the given protocols into a registry.
func NewRegistry(protocols ...*Protocol) (*Registry, error) {
	r := &Registry{protocols: make(map[Revision]*Protocol, len(protocols))}
	for _, p := range protocols {
		if _, dup := r.protocols[p.Revision]; dup {
			return nil, fmt.Errorf("revision %s registered twice", p.Revision)
		}
		if err := p.compile(); err != nil {
			return nil, err
		}
		r.protocols[p.Revision] = p
	}
	return r, nil
}

// DefaultRegistry returns the registry with revisions 2 and 3.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(V2(), V3())
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the protocol for a revision.
func (r *Registry) Lookup(rev Revision) (*Protocol, bool) {
	p, ok := r.protocols[rev]
	return p, ok
}

// Revisions lists the registered revisions in ascending order.
func (r *Registry) Revisions() []Revision {
	out := make([]Revision, 0, len(r.protocols))
	for rev := range r.protocols {
		out = append(out, rev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
