// Package metrics exposes Prometheus collectors for exchanges, outbound calls
// and footprint queries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets for outbound latency (in seconds).
var defaultBuckets = []float64{
	.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// Outbound call kinds.
const (
	KindToken = "token"
	KindEvent = "event"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	exchangesTotal   *prometheus.CounterVec
	outboundTotal    *prometheus.CounterVec
	outboundDuration *prometheus.HistogramVec
	queryResults     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pact_exchanges_total",
			Help: "Inbound events handled, by decision and outcome",
		}, []string{"revision", "decision", "outcome"}),

		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pact_outbound_requests_total",
			Help: "Outbound calls to counterparty hosts, by HTTP status code",
		}, []string{"kind", "code"}),

		outboundDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pact_outbound_duration_seconds",
			Help:    "Outbound call latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"kind"}),

		queryResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pact_query_results",
			Help:    "Footprints matched by list queries before pagination",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"revision"}),
	}

	reg.MustRegister(
		m.exchangesTotal,
		m.outboundTotal,
		m.outboundDuration,
		m.queryResults,
	)
	return m
}

// Exchange counts one handled inbound event.
func (m *Metrics) Exchange(revision, decision, outcome string) {
	if m == nil {
		return
	}
	m.exchangesTotal.WithLabelValues(revision, decision, outcome).Inc()
}

// QueryResults records how many footprints a list query matched.
func (m *Metrics) QueryResults(revision string, n int) {
	if m == nil {
		return
	}
	m.queryResults.WithLabelValues(revision).Observe(float64(n))
}

// InstrumentTransport wraps next so each round trip is counted and timed
// under the given kind.
func (m *Metrics) InstrumentTransport(kind string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	labels := prometheus.Labels{"kind": kind}
	return promhttp.InstrumentRoundTripperCounter(m.outboundTotal.MustCurryWith(labels),
		promhttp.InstrumentRoundTripperDuration(m.outboundDuration.MustCurryWith(labels), next))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
