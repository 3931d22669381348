// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the storefront.
// It tracks checkouts, order lifecycle, cart activity and the chat assistant.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderPlacedTotal        *Counter
	orderAmountTotal        *Counter
	orderStatusChangedTotal *Counter
	cartMutationTotal       *Counter
	chatReplyTotal          *Counter

	// Histogram metrics
	chatReplyDuration *Histogram

	// Gauge metrics (point-in-time values)
	lowStockCount     *Gauge
	pendingOrderCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	storeProvider StoreMetricsProvider
}

// StoreMetricsProvider provides store data for periodic metrics collection.
// It lets the telemetry layer read store state without depending on the domain.
type StoreMetricsProvider interface {
	// GetLowStockCount returns the number of active products with stock below threshold
	GetLowStockCount(ctx context.Context, threshold int) (int64, error)

	// GetPendingOrderCount returns the number of orders waiting to be processed
	GetPendingOrderCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StoreProvider StoreMetricsProvider
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
		storeProvider: cfg.StoreProvider,
	}

	var err error

	bm.orderPlacedTotal, err = NewCounter(cfg.Meter,
		"shop_order_placed_total", "Total number of orders placed", "{orders}")
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(cfg.Meter,
		"shop_order_amount_total", "Total final amount of placed orders in dong", "{VND}")
	if err != nil {
		return nil, err
	}

	bm.orderStatusChangedTotal, err = NewCounter(cfg.Meter,
		"shop_order_status_changed_total", "Total number of order status transitions", "{transitions}")
	if err != nil {
		return nil, err
	}

	bm.cartMutationTotal, err = NewCounter(cfg.Meter,
		"shop_cart_mutation_total", "Total number of cart changes", "{mutations}")
	if err != nil {
		return nil, err
	}

	bm.chatReplyTotal, err = NewCounter(cfg.Meter,
		"shop_chat_reply_total", "Total number of chat assistant replies", "{replies}")
	if err != nil {
		return nil, err
	}

	bm.chatReplyDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "shop_chat_reply_duration_seconds",
		Description: "Time taken to answer a chat message",
		Unit:        "s",
		Boundaries:  []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
	if err != nil {
		return nil, err
	}

	bm.lowStockCount, err = NewGauge(cfg.Meter,
		"shop_catalog_low_stock_count", "Number of active products running out of stock", "{products}")
	if err != nil {
		return nil, err
	}

	bm.pendingOrderCount, err = NewGauge(cfg.Meter,
		"shop_order_pending_count", "Number of orders waiting to be processed", "{orders}")
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderPlaced records a checkout with its final amount.
func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, paymentMethod string, finalTotal decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrPaymentMethod.String(paymentMethod)}
	bm.orderPlacedTotal.Inc(ctx, attrs...)
	bm.orderAmountTotal.Add(ctx, finalTotal.IntPart(), attrs...)
}

// RecordOrderStatusChanged records an order status transition.
func (bm *BusinessMetrics) RecordOrderStatusChanged(ctx context.Context, status, paymentStatus string) {
	bm.orderStatusChangedTotal.Inc(ctx,
		AttrOrderStatus.String(status),
		AttrPaymentStatus.String(paymentStatus),
	)
}

// =============================================================================
// Cart Metrics
// =============================================================================

// CartOperation labels a cart change.
type CartOperation string

const (
	CartOperationAdd    CartOperation = "add"
	CartOperationUpdate CartOperation = "update"
	CartOperationRemove CartOperation = "remove"
	CartOperationClear  CartOperation = "clear"
)

// RecordCartMutation records a cart change.
func (bm *BusinessMetrics) RecordCartMutation(ctx context.Context, op CartOperation) {
	bm.cartMutationTotal.Inc(ctx, AttrCartOperation.String(string(op)))
}

// =============================================================================
// Chat Metrics
// =============================================================================

// ChatOutcome labels how a chat message was answered.
type ChatOutcome string

const (
	ChatOutcomeAnswered ChatOutcome = "answered"
	ChatOutcomeFallback ChatOutcome = "fallback"
)

// RecordChatReply records an answered chat message and its latency.
func (bm *BusinessMetrics) RecordChatReply(ctx context.Context, outcome ChatOutcome, d time.Duration) {
	attr := AttrChatOutcome.String(string(outcome))
	bm.chatReplyTotal.Inc(ctx, attr)
	bm.chatReplyDuration.RecordDuration(ctx, d, attr)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration, lowStockBelow int) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		if lowStockBelow <= 0 {
			lowStockBelow = 5
		}
		go bm.runPeriodicCollection(ctx, interval, lowStockBelow)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration, lowStockBelow int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectStoreMetrics(ctx, lowStockBelow)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectStoreMetrics(ctx, lowStockBelow)
		}
	}
}

func (bm *BusinessMetrics) collectStoreMetrics(ctx context.Context, lowStockBelow int) {
	if bm.storeProvider == nil {
		bm.logger.Debug("No store provider configured, skipping store metrics collection")
		return
	}

	lowStock, err := bm.storeProvider.GetLowStockCount(ctx, lowStockBelow)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count", zap.Error(err))
	} else {
		bm.lowStockCount.Record(ctx, lowStock)
	}

	pending, err := bm.storeProvider.GetPendingOrderCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get pending order count", zap.Error(err))
	} else {
		bm.pendingOrderCount.Record(ctx, pending)
	}
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
