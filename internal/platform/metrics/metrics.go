package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the process registry and every instrument the service emits.
// It is constructed once at startup and injected where needed so tests can
// create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	BroadcastsSent     prometheus.Counter
	SendFailures       prometheus.Counter
	NotificationsQueue prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacon_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		BroadcastsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_ws_broadcast_deliveries_total",
			Help: "Frames handed to websocket connections by broadcasts.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_ws_send_failures_total",
			Help: "Failed websocket send attempts.",
		}),
		NotificationsQueue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_notifications_enqueued_total",
			Help: "Notifications accepted for asynchronous delivery.",
		}),
	}
	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.BroadcastsSent,
		m.SendFailures,
		m.NotificationsQueue,
	)
	return m
}

// RegisterConnectionGauge exposes the registry's live connection count as a
// gauge without coupling the registry to prometheus.
func (m *Metrics) RegisterConnectionGauge(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "beacon_ws_connections",
		Help: "Currently registered websocket connections.",
	}, func() float64 { return float64(count()) }))
}

// Delivered and Failed satisfy the broadcast sink the connection registry
// reports into.
func (m *Metrics) Delivered(n int) { m.BroadcastsSent.Add(float64(n)) }
func (m *Metrics) Failed(n int)    { m.SendFailures.Add(float64(n)) }

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
