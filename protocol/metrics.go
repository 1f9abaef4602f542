package protocol

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	metrics "github.com/hashicorp/go-metrics"
	promsink "github.com/hashicorp/go-metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CefBoud/minikafka/serde"
)

// MetricsServiceName prefixes every metric key.
const MetricsServiceName = "minikafka"

// decodeErrorKinds names each decode failure for the "kind" metric label.
var decodeErrorKinds = []struct {
	err  error
	name string
}{
	{ErrFrameTooSmall, "frame_too_small"},
	{ErrFrameTooLarge, "frame_too_large"},
	{ErrTruncated, "truncated_frame"},
	{ErrInvalidCursor, "invalid_cursor"},
	{ErrUnsupportedAPI, "unsupported_api_key"},
	{serde.ErrUnexpectedEOF, "unexpected_eof"},
	{serde.ErrMalformedVarint, "malformed_varint"},
	{serde.ErrUnexpectedTagBuffer, "unexpected_tagged_fields"},
}

func decodeErrorKind(err error) string {
	for _, k := range decodeErrorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "other"
}

// Metrics records broker activity on a go-metrics sink.
type Metrics struct {
	m                 *metrics.Metrics
	activeConnections atomic.Int64
}

// NewMetrics creates broker metrics on sink. A nil sink discards everything.
func NewMetrics(sink metrics.MetricSink) (*Metrics, error) {
	if sink == nil {
		sink = &metrics.BlackholeSink{}
	}
	conf := metrics.DefaultConfig(MetricsServiceName)
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false
	m, err := metrics.New(conf, sink)
	if err != nil {
		return nil, fmt.Errorf("could not create metrics: %w", err)
	}
	return &Metrics{m: m}, nil
}

func (m *Metrics) connectionOpened() {
	n := m.activeConnections.Add(1)
	m.m.IncrCounter([]string{"connections", "accepted"}, 1)
	m.m.SetGauge([]string{"connections", "active"}, float32(n))
}

func (m *Metrics) connectionClosed() {
	n := m.activeConnections.Add(-1)
	m.m.SetGauge([]string{"connections", "active"}, float32(n))
}

func (m *Metrics) requestServed(key APIKey, start time.Time) {
	labels := []metrics.Label{{Name: "api", Value: key.Name}}
	m.m.IncrCounterWithLabels([]string{"requests"}, 1, labels)
	m.m.MeasureSinceWithLabels([]string{"request", "latency"}, start, labels)
}

func (m *Metrics) decodeFailed(err error) {
	m.m.IncrCounterWithLabels([]string{"decode", "errors"}, 1, []metrics.Label{{Name: "kind", Value: decodeErrorKind(err)}})
}

// ActiveConnections returns the number of connections currently being served.
func (m *Metrics) ActiveConnections() int64 {
	return m.activeConnections.Load()
}

// NewPrometheusSink returns a go-metrics sink registered on reg.
func NewPrometheusSink(reg prometheus.Registerer) (metrics.MetricSink, error) {
	sink, err := promsink.NewPrometheusSinkFrom(promsink.PrometheusOpts{
		Expiration: 5 * time.Minute,
		Registerer: reg,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create prometheus sink: %w", err)
	}
	return sink, nil
}

// MetricsHandler serves the metrics gathered by g in the Prometheus exposition format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
