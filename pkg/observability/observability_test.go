package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, "pact-conformance", config.ServiceName)
	require.Equal(t, "localhost:4317", config.OTLPEndpoint)
	require.Equal(t, 1.0, config.SampleRate)
	require.False(t, config.Enabled)
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderNilConfig(t *testing.T) {
	p, err := New(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "pact-conformance", p.config.ServiceName)
}

func TestTrackOperation(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	ctx, done := p.TrackOperation(context.Background(), "exchange.handle",
		ExchangeOperation("3", "org.wbcsd.pact.ProductFootprint.RequestCreatedEvent.3", "evt-1")...)
	require.NotNil(t, ctx)
	AddSpanEvent(ctx, "classified", AttrDecision.String("fulfill"))
	SetAttributes(ctx, AttrOutcome.String("failed"))
	done(errors.New("boom"))

	_, done = p.TrackOperation(context.Background(), "exchange.handle")
	done(nil)
}

func TestNilProviderIsUsable(t *testing.T) {
	var p *Provider
	_, done := p.TrackOperation(context.Background(), "noop")
	done(nil)
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestWrapHandlerAndTransport(t *testing.T) {
	srv := httptest.NewServer(WrapHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), "test"))
	defer srv.Close()

	client := &http.Client{Transport: WrapTransport(nil)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
