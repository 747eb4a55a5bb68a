package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mindburn-Labs/pact-conformance/pkg/metrics"
	"github.com/Mindburn-Labs/pact-conformance/pkg/observability"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// Outcome labels reported for each handled event.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeSendFailed = "send_failed"
)

// Catalog supplies the footprints attached to fulfilled requests.
type Catalog interface {
	Head(n int) []any
}

// Result describes a handled inbound event.
type Result struct {
	Inbound  *pact.Event
	Decision Decision
	// Outbound is the response event, nil when the event was only acknowledged.
	Outbound *pact.Event
	// SendErr is a delivery failure that was absorbed on the rejection path.
	SendErr error
}

// Service answers inbound events. It holds no per-exchange state and is
// safe for concurrent use.
type Service struct {
	registry   *pact.Registry
	catalogs   map[pact.Revision]Catalog
	correlator *Correlator
	telemetry  *observability.Provider
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCatalog sets the footprints served for rev.
func WithCatalog(rev pact.Revision, c Catalog) ServiceOption {
	return func(s *Service) { s.catalogs[rev] = c }
}

// WithTelemetry enables tracing of each exchange.
func WithTelemetry(p *observability.Provider) ServiceOption {
	return func(s *Service) { s.telemetry = p }
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates the exchange service.
func NewService(reg *pact.Registry, correlator *Correlator, opts ...ServiceOption) *Service {
	s := &Service{
		registry:   reg,
		catalogs:   make(map[pact.Revision]Catalog),
		correlator: correlator,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle parses, classifies and answers one inbound event under revision rev.
//
// Errors wrap pact.ErrInvalidEvent or pact.ErrInvalidPayload for bad input.
// On the fulfillment path a failed delivery is returned as *pact.TokenError
// or *pact.ForwardingError. On the rejection path delivery failures are
// logged and reported only through Result.SendErr.
func (s *Service) Handle(ctx context.Context, rev pact.Revision, body []byte) (*Result, error) {
	p, ok := s.registry.Lookup(rev)
	if !ok {
		return nil, fmt.Errorf("%w: revision %q", pact.ErrNotFound, rev)
	}

	ev, err := pact.ParseEvent(body)
	if err != nil {
		s.metrics.Exchange(string(rev), "none", OutcomeInvalid)
		return nil, err
	}
	s.logger.InfoContext(ctx, "event received",
		"revision", rev, "type", ev.Type, "id", ev.ID, "source", ev.Source)

	ctx, done := s.telemetry.TrackOperation(ctx, "pact.exchange",
		observability.ExchangeOperation(string(rev), ev.Type, ev.ID)...)

	res, err := s.dispatch(ctx, p, ev)
	done(err)
	return res, err
}

func (s *Service) dispatch(ctx context.Context, p *pact.Protocol, ev *pact.Event) (*Result, error) {
	rev := string(p.Revision)

	decision, err := Classify(p, ev)
	if err != nil {
		s.metrics.Exchange(rev, "none", OutcomeInvalid)
		observability.SetAttributes(ctx, observability.AttrOutcome.String(OutcomeInvalid))
		return nil, err
	}
	observability.SetAttributes(ctx, observability.AttrDecision.String(decision.Name()))

	res := &Result{Inbound: ev, Decision: decision}
	switch d := decision.(type) {
	case Acknowledge:
		s.finish(ctx, rev, decision, OutcomeOK)
		return res, nil

	case Reject:
		res.Outbound, res.SendErr = s.reject(ctx, p, ev, d)
		if res.SendErr != nil {
			s.logger.ErrorContext(ctx, "rejection not delivered",
				"revision", rev, "request_id", ev.ID, "source", ev.Source, "status", StatusOf(res.SendErr), "error", res.SendErr)
			s.finish(ctx, rev, decision, OutcomeSendFailed)
			return res, nil
		}
		s.finish(ctx, rev, decision, OutcomeOK)
		return res, nil

	case Fulfill:
		res.Outbound, err = s.fulfill(ctx, p, ev)
		if err != nil {
			s.finish(ctx, rev, decision, OutcomeSendFailed)
			return res, err
		}
		s.finish(ctx, rev, decision, OutcomeOK)
		return res, nil
	}
	return nil, fmt.Errorf("unhandled decision %T", decision)
}

// reject sends a RequestRejected event. The caller absorbs any error.
func (s *Service) reject(ctx context.Context, p *pact.Protocol, ev *pact.Event, d Reject) (*pact.Event, error) {
	out, err := s.correlator.Build(p.EventType(pact.KindRequestRejected), pact.SpecVersion10, pact.RequestRejectedData{
		RequestEventID: ev.ID,
		Error:          d.Error,
	})
	if err != nil {
		return nil, err
	}
	return out, s.correlator.Send(ctx, p, ev.Source, out)
}

// fulfill sends a RequestFulfilled event carrying the leading catalog record.
func (s *Service) fulfill(ctx context.Context, p *pact.Protocol, ev *pact.Event) (*pact.Event, error) {
	specVersion := pact.SpecVersion10
	if p.EchoSpecVersion {
		specVersion = ev.SpecVersion
	}

	pfs := []any{}
	if c, ok := s.catalogs[p.Revision]; ok {
		pfs = append(pfs, c.Head(1)...)
	}

	out, err := s.correlator.Build(p.EventType(pact.KindRequestFulfilled), specVersion, pact.RequestFulfilledData{
		RequestEventID: ev.ID,
		Pfs:            pfs,
	})
	if err != nil {
		return nil, err
	}
	return out, s.correlator.Send(ctx, p, ev.Source, out)
}

func (s *Service) finish(ctx context.Context, rev string, d Decision, outcome string) {
	s.metrics.Exchange(rev, d.Name(), outcome)
	observability.SetAttributes(ctx, observability.AttrOutcome.String(outcome))
}

// StatusOf returns the counterparty HTTP status carried by a delivery
// error, or 0 when no response was received.
func StatusOf(err error) int {
	var te *pact.TokenError
	if errors.As(err, &te) {
		return te.Status
	}
	var fe *pact.ForwardingError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}
