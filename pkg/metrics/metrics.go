// Package metrics provides Prometheus instrumentation: the standard HTTP
// metrics plus the storefront's domain counters (orders, webhooks, realtime
// broadcasts).
//
// Wire once in the server bootstrap:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks HTTP request latency by method, path and status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sehatly",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sehatly",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sehatly",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// OrdersPlaced counts placed orders by payment method.
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sehatly",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total orders placed.",
		},
		[]string{"method"}, // "COD" | "Stripe"
	)

	// OrdersRejected counts checkout attempts rejected before any write.
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sehatly",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Checkout attempts rejected by validation or stock guard.",
		},
		[]string{"reason"}, // "validation" | "stock"
	)

	// WebhookEvents counts payment provider webhook deliveries by outcome.
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sehatly",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries received.",
		},
		[]string{"outcome"}, // "confirmed" | "replay" | "bad_signature" | "ignored"
	)

	// WSBroadcasts counts realtime events pushed to dashboard clients.
	WSBroadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sehatly",
		Subsystem: "realtime",
		Name:      "broadcasts_total",
		Help:      "Order events broadcast over the websocket channel.",
	})

	// WSClients tracks connected dashboard clients.
	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sehatly",
		Subsystem: "realtime",
		Name:      "clients_connected",
		Help:      "Currently connected websocket clients.",
	})
)

// DefaultRegistry is the Prometheus registry used by the application.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		OrdersPlaced,
		OrdersRejected,
		WebhookEvents,
		WSBroadcasts,
		WSClients,
	)
}

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records the HTTP metrics for every request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path // raw path; low-cardinality API surface

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			status := strconv.Itoa(rr.status)
			RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// Handler exposes the Prometheus metrics page. Mount on GET /metrics.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}
