package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/pact-conformance/pkg/observability"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// DefaultSource is the canonical source used when none is configured.
const DefaultSource = "//EventHostname/EventSubpath"

// timeLayout renders event times in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const defaultSendTimeout = 10 * time.Second

// TokenSource fetches a bearer token for the host that owns eventURL.
type TokenSource interface {
	Token(ctx context.Context, eventURL string) (string, error)
}

// Correlator builds outbound response events and posts them to the
// requesting host.
type Correlator struct {
	tokens     TokenSource
	httpClient *http.Client
	source     string
	newID      func() string
	now        func() time.Time
	logger     *slog.Logger
}

// CorrelatorOption configures a Correlator.
type CorrelatorOption func(*Correlator)

// WithHTTPClient sets the client used for event POSTs.
func WithHTTPClient(hc *http.Client) CorrelatorOption {
	return func(c *Correlator) { c.httpClient = hc }
}

// WithSource sets the source identity stamped on every outbound event.
func WithSource(source string) CorrelatorOption {
	return func(c *Correlator) {
		if source != "" {
			c.source = source
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CorrelatorOption {
	return func(c *Correlator) { c.now = now }
}

// WithIDGenerator overrides event id generation.
func WithIDGenerator(newID func() string) CorrelatorOption {
	return func(c *Correlator) { c.newID = newID }
}

// WithCorrelatorLogger sets the logger.
func WithCorrelatorLogger(l *slog.Logger) CorrelatorOption {
	return func(c *Correlator) { c.logger = l }
}

// NewCorrelator creates a correlator that authenticates with tokens.
func NewCorrelator(tokens TokenSource, opts ...CorrelatorOption) *Correlator {
	c := &Correlator{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultSendTimeout},
		source:     DefaultSource,
		newID:      uuid.NewString,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the identity stamped on outbound events.
func (c *Correlator) Source() string { return c.source }

// Build wraps data in a fresh envelope of the given type.
func (c *Correlator) Build(eventType, specVersion string, data any) (*pact.Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", eventType, err)
	}
	return &pact.Event{
		Type:        eventType,
		SpecVersion: specVersion,
		ID:          c.newID(),
		Source:      c.source,
		Time:        c.now().UTC().Format(timeLayout),
		Data:        raw,
	}, nil
}

// Destination derives the counterparty events endpoint from an inbound
// source: query and fragment are dropped and the revision's events path is
// appended unless already present.
func Destination(p *pact.Protocol, source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse source %q: %w", source, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("source %q is not an absolute URL", source)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""

	path := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(path, p.EventsPath()) {
		path += p.EventsPath()
	}
	u.Path = path
	u.RawPath = ""
	return u.String(), nil
}

// Send delivers ev to the host behind inboundSource. It fetches a fresh
// token first and posts only once the token is in hand.
// Failures are *pact.TokenError or *pact.ForwardingError.
func (c *Correlator) Send(ctx context.Context, p *pact.Protocol, inboundSource string, ev *pact.Event) error {
	dest, err := Destination(p, inboundSource)
	if err != nil {
		return &pact.ForwardingError{Destination: inboundSource, Err: err}
	}
	observability.SetAttributes(ctx, observability.AttrDestination.String(dest))

	token, err := c.tokens.Token(ctx, dest)
	if err != nil {
		var te *pact.TokenError
		if errors.As(err, &te) {
			return err
		}
		return &pact.TokenError{Endpoint: dest, Err: err}
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return &pact.ForwardingError{Destination: dest, Err: fmt.Errorf("marshal event: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(body))
	if err != nil {
		return &pact.ForwardingError{Destination: dest, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &pact.ForwardingError{Destination: dest, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WarnContext(ctx, "counterparty refused event",
			"destination", dest, "type", ev.Type, "status", resp.StatusCode, "body", string(snippet))
		return &pact.ForwardingError{Destination: dest, Status: resp.StatusCode}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	observability.AddSpanEvent(ctx, "event delivered", observability.AttrEventType.String(ev.Type))
	c.logger.DebugContext(ctx, "event delivered", "destination", dest, "type", ev.Type, "id", ev.ID)
	return nil
}
