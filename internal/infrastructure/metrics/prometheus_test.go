package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *PrometheusRegistry {
	return NewPrometheusRegistry(PrometheusConfig{Namespace: "test"})
}

func TestNewPrometheusRegistry_Defaults(t *testing.T) {
	r := NewPrometheusRegistry(PrometheusConfig{})

	assert.Equal(t, "shop", r.config.Namespace)
	assert.Equal(t, DefaultPrometheusConfig().HistogramBuckets, r.config.HistogramBuckets)
	assert.False(t, r.config.RuntimeCollectors)
	assert.NotNil(t, r.Registry())
}

func TestPrometheusRegistry_ObserveRequest(t *testing.T) {
	r := newTestRegistry()

	r.ObserveRequest(http.MethodGet, "/api/v1/products/:id", http.StatusOK, 12*time.Millisecond)
	r.ObserveRequest(http.MethodGet, "/api/v1/products/:id", http.StatusOK, 30*time.Millisecond)
	r.ObserveRequest(http.MethodGet, "/api/v1/products/:id", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/v1/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/v1/products/:id", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.httpDuration))
}

func TestPrometheusRegistry_RequestStarted(t *testing.T) {
	r := newTestRegistry()

	done1 := r.RequestStarted()
	done2 := r.RequestStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpInFlight))

	done1()
	done2()
	assert.Equal(t, 0.0, testutil.ToFloat64(r.httpInFlight))
}

func TestPrometheusRegistry_CheckoutCounters(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	r.RecordOrderPlaced(ctx, "card", decimal.RequireFromString("10.50"), 2)
	r.RecordOrderPlaced(ctx, "card", decimal.RequireFromString("4.50"), 1)
	r.RecordOrderRejected(ctx, "INSUFFICIENT_STOCK")
	r.RecordOrderCancelled(ctx, true)
	r.RecordPayment(ctx, "card")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ordersPlaced.WithLabelValues("card")))
	assert.InDelta(t, 15.0, testutil.ToFloat64(r.orderRevenue.WithLabelValues("card")), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ordersRejected.WithLabelValues("INSUFFICIENT_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ordersCancelled.WithLabelValues("true")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ordersCancelled.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.payments.WithLabelValues("card")))
}

func TestPrometheusRegistry_ObserveDispatch(t *testing.T) {
	r := newTestRegistry()

	r.ObserveDispatch("order.placed", "sent", 3*time.Millisecond)
	r.ObserveDispatch("order.placed", "failed", time.Millisecond)
	r.ObserveDispatch("order.placed", "sent", 2*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.outboxDispatch.WithLabelValues("order.placed", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outboxDispatch.WithLabelValues("order.placed", "failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.outboxDispatchTime))
}

func TestPrometheusRegistry_Handler(t *testing.T) {
	r := newTestRegistry()
	r.RecordOrderRejected(context.Background(), "EMPTY_CART")

	server := httptest.NewServer(r.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `test_orders_rejected_total{reason="EMPTY_CART"} 1`))
}
