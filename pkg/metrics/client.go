package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cart push outcomes.
const (
	PushApplied  = "applied"
	PushRejected = "rejected"
	PushFailed   = "failed"
	PushStale    = "stale"
)

// Reconcile outcomes.
const (
	ReconcileApplied = "applied"
	ReconcileStale   = "stale"
	ReconcileCleared = "cleared"
	ReconcileFailed  = "failed"
)

// ClientMetrics records backend traffic and cart synchronisation outcomes.
// A nil *ClientMetrics is valid and records nothing.
type ClientMetrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	pushes    *prometheus.CounterVec
	reconcile *prometheus.CounterVec
	cartItems prometheus.Gauge
}

// NewClientMetrics registers the client metrics on the provided registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greencart_http_requests_total",
		Help: "Backend requests issued by the client.",
	}, []string{"endpoint", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "greencart_http_request_duration_seconds",
		Help:    "Latency of backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method"})
	pushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greencart_cart_push_total",
		Help: "Cart snapshot pushes by outcome.",
	}, []string{"outcome"})
	reconcile := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greencart_session_reconcile_total",
		Help: "Session refetches by outcome.",
	}, []string{"outcome"})
	cartItems := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greencart_cart_items",
		Help: "Units in the local cart after the last state change.",
	})
	reg.MustRegister(requests, latency, pushes, reconcile, cartItems)
	return &ClientMetrics{
		requests:  requests,
		latency:   latency,
		pushes:    pushes,
		reconcile: reconcile,
		cartItems: cartItems,
	}
}

// ObserveRequest records one backend round trip. status 0 means the request
// never produced a response.
func (c *ClientMetrics) ObserveRequest(endpoint, method string, status int, duration time.Duration) {
	if c == nil || c.requests == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	method = normalizeLabel(method)
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	c.requests.WithLabelValues(endpoint, method, statusLabel).Inc()
	c.latency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// IncPush counts a cart push outcome.
func (c *ClientMetrics) IncPush(outcome string) {
	if c == nil || c.pushes == nil {
		return
	}
	c.pushes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReconcile counts a session refetch outcome.
func (c *ClientMetrics) IncReconcile(outcome string) {
	if c == nil || c.reconcile == nil {
		return
	}
	c.reconcile.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetCartItems records the current number of units in the cart.
func (c *ClientMetrics) SetCartItems(n int) {
	if c == nil || c.cartItems == nil {
		return
	}
	c.cartItems.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
