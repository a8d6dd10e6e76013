// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides checkout business metrics for the shop.
// It tracks placed and cancelled orders, payments and catalog stock health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderPlacedTotal    *Counter
	orderAmountTotal    *Counter
	orderLinesTotal     *Counter
	orderRejectedTotal  *Counter
	orderCancelledTotal *Counter
	paymentTotal        *Counter

	// Gauge metrics (point-in-time values)
	lowStockCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider LowStockCounter
}

// LowStockCounter reports how many active products are below the low stock threshold.
// ProductRepository satisfies it.
type LowStockCounter interface {
	CountLowStock(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider LowStockCounter
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.orderPlacedTotal, "shop_order_placed_total", "Total number of orders placed", "{orders}"},
		{&bm.orderAmountTotal, "shop_order_amount_total", "Total order amount in cents", "{cents}"},
		{&bm.orderLinesTotal, "shop_order_lines_total", "Total number of order lines placed", "{lines}"},
		{&bm.orderRejectedTotal, "shop_order_rejected_total", "Total number of rejected checkouts", "{orders}"},
		{&bm.orderCancelledTotal, "shop_order_cancelled_total", "Total number of cancelled orders", "{orders}"},
		{&bm.paymentTotal, "shop_payment_total", "Total number of orders marked paid", "{payments}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"shop_product_low_stock_count",
		"Number of active products below the low stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderPlaced records a successfully placed order with its total and line count.
func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, paymentMethod string, total decimal.Decimal, lines int) {
	method := AttrPaymentMethod.String(paymentMethod)
	bm.orderPlacedTotal.Inc(ctx, method)
	bm.orderAmountTotal.Add(ctx, ToCents(total), method)
	bm.orderLinesTotal.Add(ctx, int64(lines), method)
}

// RecordOrderRejected records a checkout that failed validation or stock checks.
// reason is the domain error code, e.g. INSUFFICIENT_STOCK.
func (bm *BusinessMetrics) RecordOrderRejected(ctx context.Context, reason string) {
	bm.orderRejectedTotal.Inc(ctx, AttrRejectReason.String(reason))
}

// RecordOrderCancelled records a cancellation and whether stock was returned.
func (bm *BusinessMetrics) RecordOrderCancelled(ctx context.Context, restocked bool) {
	bm.orderCancelledTotal.Inc(ctx, AttrRestocked.String(strconv.FormatBool(restocked)))
}

// RecordPayment records an order moving to paid.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, paymentMethod string) {
	bm.paymentTotal.Inc(ctx, AttrPaymentMethod.String(paymentMethod))
}

// ToCents converts a currency amount to its smallest unit, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// =============================================================================
// Catalog Metrics
// =============================================================================

// RecordLowStockCount records the number of products below the low stock threshold.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.lowStockCount.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics
// (default interval: 5 minutes). It is non-blocking; use Stop to end it.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.CollectOnce(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.CollectOnce(ctx)
		}
	}
}

// CollectOnce refreshes every gauge a single time.
func (bm *BusinessMetrics) CollectOnce(ctx context.Context) {
	if bm.stockProvider == nil {
		bm.logger.Debug("No stock provider configured, skipping catalog metrics collection")
		return
	}

	count, err := bm.stockProvider.CountLowStock(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count low stock products", zap.Error(err))
		return
	}
	bm.RecordLowStockCount(ctx, count)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
