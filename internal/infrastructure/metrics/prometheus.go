// Package metrics exposes HTTP and checkout metrics in the Prometheus text format.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	orderapp "github.com/shopfront/backend/internal/application/order"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopspring/decimal"
)

var (
	_ orderapp.BusinessRecorder = (*PrometheusRegistry)(nil)
	_ event.DispatchObserver    = (*PrometheusRegistry)(nil)
)

// Prometheus metric names, without namespace.
const (
	MetricHTTPRequestsTotal    = "http_requests_total"
	MetricHTTPRequestDuration  = "http_request_duration_seconds"
	MetricHTTPInFlight         = "http_inflight_requests"
	MetricOrdersPlacedTotal    = "orders_placed_total"
	MetricOrderRevenueTotal    = "order_revenue_total"
	MetricOrdersRejectedTotal  = "orders_rejected_total"
	MetricOrdersCancelledTotal = "orders_cancelled_total"
	MetricPaymentsTotal        = "payments_total"
	MetricOutboxDispatchTotal  = "outbox_dispatch_total"
	MetricOutboxDispatchTime   = "outbox_dispatch_duration_seconds"
)

// PrometheusConfig holds configuration for the registry.
type PrometheusConfig struct {
	// Namespace prefixes every metric. Default: "shop"
	Namespace string

	// HistogramBuckets are the buckets for request duration.
	// Default: 5ms to ~5s exponential
	HistogramBuckets []float64

	// RuntimeCollectors adds Go runtime and process collectors.
	RuntimeCollectors bool
}

// DefaultPrometheusConfig returns default configuration.
func DefaultPrometheusConfig() PrometheusConfig {
	return PrometheusConfig{
		Namespace:         "shop",
		HistogramBuckets:  prometheus.ExponentialBuckets(0.005, 2, 11),
		RuntimeCollectors: true,
	}
}

// PrometheusRegistry owns a private Prometheus registry with the HTTP RED
// metrics and the checkout counters.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type PrometheusRegistry struct {
	config   PrometheusConfig
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	ordersPlaced    *prometheus.CounterVec
	orderRevenue    *prometheus.CounterVec
	ordersRejected  *prometheus.CounterVec
	ordersCancelled *prometheus.CounterVec
	payments        *prometheus.CounterVec

	outboxDispatch     *prometheus.CounterVec
	outboxDispatchTime *prometheus.HistogramVec
}

// NewPrometheusRegistry creates a registry with every collector registered.
func NewPrometheusRegistry(config PrometheusConfig) *PrometheusRegistry {
	if config.Namespace == "" {
		config.Namespace = "shop"
	}
	if len(config.HistogramBuckets) == 0 {
		config.HistogramBuckets = DefaultPrometheusConfig().HistogramBuckets
	}

	r := &PrometheusRegistry{
		config:   config,
		registry: prometheus.NewRegistry(),
	}
	r.initMetrics()
	return r
}

func (r *PrometheusRegistry) initMetrics() {
	ns := r.config.Namespace

	r.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      MetricHTTPRequestsTotal,
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)
	r.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      MetricHTTPRequestDuration,
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   r.config.HistogramBuckets,
		},
		[]string{"method", "route"},
	)
	r.httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ns,
			Name:      MetricHTTPInFlight,
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	r.ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      MetricOrdersPlacedTotal,
			Help:      "Total number of orders placed.",
		},
		[]string{"payment_method"},
	)
	r.orderRevenue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      MetricOrderRevenueTotal,
			Help:      "Sum of placed order totals in the store currency.",
		},
		[]string{"payment_method"},
	)
	r.ordersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      MetricOrdersRejectedTotal,
			Help:      "Total number of rejected checkouts by error code.",
		},
		[]string{"reason"},
	)
	r.ordersCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      MetricOrdersCancelledTotal,
			Help:      "Total number of cancelled orders.",
		},
		[]string{"restocked"},
	)
	r.payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      MetricPaymentsTotal,
			Help:      "Total number of orders marked paid.",
		},
		[]string{"payment_method"},
	)

	r.outboxDispatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      MetricOutboxDispatchTotal,
			Help:      "Outbox dispatch attempts by event type and outcome.",
		},
		[]string{"event_type", "outcome"},
	)
	r.outboxDispatchTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      MetricOutboxDispatchTime,
			Help:      "Time spent running the handlers of one outbox entry.",
			Buckets:   r.config.HistogramBuckets,
		},
		[]string{"event_type"},
	)

	r.registry.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.httpInFlight,
		r.ordersPlaced,
		r.orderRevenue,
		r.ordersRejected,
		r.ordersCancelled,
		r.payments,
		r.outboxDispatch,
		r.outboxDispatchTime,
	)
	if r.config.RuntimeCollectors {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// Registry returns the underlying registry, e.g. to register extra collectors.
func (r *PrometheusRegistry) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns the HTTP handler serving the scrape endpoint.
func (r *PrometheusRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// =============================================================================
// HTTP metrics
// =============================================================================

// RequestStarted marks a request in flight. Call the returned func when it completes.
func (r *PrometheusRegistry) RequestStarted() func() {
	r.httpInFlight.Inc()
	return r.httpInFlight.Dec
}

// ObserveRequest records a completed request. route must be the route
// template, not the raw path, to keep label cardinality bounded.
func (r *PrometheusRegistry) ObserveRequest(method, route string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// =============================================================================
// Checkout metrics
// =============================================================================

// RecordOrderPlaced implements orderapp.BusinessRecorder.
func (r *PrometheusRegistry) RecordOrderPlaced(_ context.Context, paymentMethod string, total decimal.Decimal, _ int) {
	r.ordersPlaced.WithLabelValues(paymentMethod).Inc()
	r.orderRevenue.WithLabelValues(paymentMethod).Add(total.InexactFloat64())
}

// RecordOrderRejected implements orderapp.BusinessRecorder.
func (r *PrometheusRegistry) RecordOrderRejected(_ context.Context, reason string) {
	r.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordOrderCancelled implements orderapp.BusinessRecorder.
func (r *PrometheusRegistry) RecordOrderCancelled(_ context.Context, restocked bool) {
	r.ordersCancelled.WithLabelValues(strconv.FormatBool(restocked)).Inc()
}

// RecordPayment implements orderapp.BusinessRecorder.
func (r *PrometheusRegistry) RecordPayment(_ context.Context, paymentMethod string) {
	r.payments.WithLabelValues(paymentMethod).Inc()
}

// =============================================================================
// Outbox metrics
// =============================================================================

// ObserveDispatch implements event.DispatchObserver.
func (r *PrometheusRegistry) ObserveDispatch(eventType, outcome string, elapsed time.Duration) {
	r.outboxDispatch.WithLabelValues(eventType, outcome).Inc()
	r.outboxDispatchTime.WithLabelValues(eventType).Observe(elapsed.Seconds())
}
