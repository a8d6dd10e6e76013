package event

import (
	"context"
	"sync/atomic"

	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats is a snapshot of idempotent dispatch counters
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotencyMetrics counts idempotent dispatch outcomes
type IdempotencyMetrics struct {
	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// Stats returns a snapshot
func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: m.processed.Load(),
		EventsDuplicate: m.duplicate.Load(),
		EventsFailed:    m.failed.Load(),
	}
}

// IdempotentHandler runs the wrapped handler at most once per event.
// The claim key is scoped by handler name, and a failed run releases it so the
// next outbox retry re-attempts only the handlers that failed.
type IdempotentHandler struct {
	handler shared.EventHandler
	name    string
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides TTL and enablement
func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = cfg }
}

// WithIdempotencyMetrics shares a metrics collector between handlers
func WithIdempotencyMetrics(m *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.metrics = m }
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		name:    handlerName(handler),
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes implements shared.EventHandler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// HandlerName implements shared.NamedEventHandler
func (h *IdempotentHandler) HandlerName() string {
	return h.name
}

// Handle implements shared.EventHandler
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, ev)
	}

	key := h.name + ":" + ev.EventID().String()
	fields := []zap.Field{
		zap.String("handler", h.name),
		zap.String("event_id", ev.EventID().String()),
		zap.String("event_type", ev.EventType()),
	}

	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("Idempotency check failed, handling anyway", append(fields, zap.Error(err))...)
	case !claimed:
		h.metrics.duplicate.Add(1)
		h.logger.Debug("Duplicate event skipped", fields...)
		return nil
	}

	if err := h.handler.Handle(ctx, ev); err != nil {
		h.metrics.failed.Add(1)
		if claimed {
			if rerr := h.store.Release(ctx, key); rerr != nil {
				h.logger.Warn("Failed to release idempotency key", append(fields, zap.Error(rerr))...)
			}
		}
		return err
	}

	h.metrics.processed.Add(1)
	return nil
}

// Metrics returns the handler's counters
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}

var _ shared.NamedEventHandler = (*IdempotentHandler)(nil)
