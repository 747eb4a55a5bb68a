// Package exchange implements the event side of the PACT data exchange:
// classifying inbound events and answering requests with correlated
// outbound events.
package exchange

import (
	"fmt"
	"slices"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// NotFoundMessage is the human-readable message of a sentinel rejection.
const NotFoundMessage = "The requested footprint could not be found."

// Decision is the outcome of classifying a valid inbound event. It is one of
// Acknowledge, Reject or Fulfill.
type Decision interface {
	// Name is a stable label for logs and metrics.
	Name() string
	isDecision()
}

// Acknowledge accepts the event without any outbound call.
type Acknowledge struct{}

// Reject answers the request with a RequestRejected event. Sending is best
// effort: the inbound call succeeds even when the send fails.
type Reject struct {
	Error pact.ErrorBody
}

// Fulfill answers the request with a RequestFulfilled event. A failed send
// fails the inbound call.
type Fulfill struct{}

func (Acknowledge) Name() string { return "acknowledge" }
func (Reject) Name() string      { return "reject" }
func (Fulfill) Name() string     { return "fulfill" }

func (Acknowledge) isDecision() {}
func (Reject) isDecision()      {}
func (Fulfill) isDecision()     {}

// Classify decides how to answer ev under protocol p. Published events are
// acknowledged only when every footprint id is canonical; requests for the
// sentinel product are rejected; everything else is fulfilled.
// Payload problems wrap pact.ErrInvalidPayload.
func Classify(p *pact.Protocol, ev *pact.Event) (Decision, error) {
	if p.Kind(ev.Type) == pact.KindPublished {
		ids, ok := publishedIDs(p, ev)
		if !ok {
			return nil, fmt.Errorf("%w: published event carries no footprint ids", pact.ErrInvalidPayload)
		}
		for _, id := range ids {
			if !pact.IsCanonicalID(id) {
				return nil, fmt.Errorf("%w: footprint id %q is not a UUID", pact.ErrInvalidPayload, id)
			}
		}
		return Acknowledge{}, nil
	}

	if requested, ok := ev.Strings(p.SentinelPath...); ok && slices.Equal(requested, []string{pact.SentinelProductID}) {
		return Reject{Error: pact.ErrorBody{Code: pact.CodeNotFound, Message: NotFoundMessage}}, nil
	}
	return Fulfill{}, nil
}

func publishedIDs(p *pact.Protocol, ev *pact.Event) ([]string, bool) {
	for _, path := range p.PublishedIDPaths {
		if ids, ok := ev.Strings(path...); ok {
			return ids, true
		}
	}
	return nil, false
}
