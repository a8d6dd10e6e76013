package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	MaxRetries       int
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
	// ClaimTimeout is how long an entry may stay in PROCESSING before it is
	// handed back to the retry path
	ClaimTimeout time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     2 * time.Second,
		MaxRetries:       shared.DefaultMaxRetries,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
		ClaimTimeout:     5 * time.Minute,
	}
}

// DispatchObserver is notified after each dispatch attempt.
// outcome is one of "sent", "failed" or "dead".
type DispatchObserver interface {
	ObserveDispatch(eventType, outcome string, elapsed time.Duration)
}

// OutboxProcessor drains the outbox into the event bus in the background
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger
	observer   DispatchObserver

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	bus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}
	if config.ClaimTimeout <= 0 {
		config.ClaimTimeout = 5 * time.Minute
	}
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		config:     config,
		logger:     logger,
	}
}

// SetObserver attaches a dispatch observer, typically the metrics collector
func (p *OutboxProcessor) SetObserver(o DispatchObserver) {
	p.observer = o
}

// Start starts the poll loop and, if enabled, the cleanup loop
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("Outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for the in-flight batch
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce dispatches one batch of pending and due entries and
// returns how many entries were claimed
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	claimed := 0

	cutoff := time.Now().UTC().Add(-p.config.ClaimTimeout)
	if released, err := p.repo.ReleaseStale(ctx, cutoff); err != nil {
		p.logger.Error("Failed to release stale outbox claims", zap.Error(err))
	} else if released > 0 {
		p.logger.Warn("Released stale outbox claims", zap.Int64("released", released))
	}

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to find pending outbox entries", zap.Error(err))
		return 0
	}
	claimed += p.processEntries(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now().UTC(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to find retryable outbox entries", zap.Error(err))
		return claimed
	}
	return claimed + p.processEntries(ctx, retryable)
}

func (p *OutboxProcessor) processEntries(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("Failed to claim outbox entries", zap.Error(err))
		return 0
	}
	for _, entry := range claimed {
		p.processEntry(ctx, entry)
	}
	return len(claimed)
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry *shared.OutboxEntry) {
	start := time.Now()
	if p.config.MaxRetries > 0 {
		entry.MaxRetries = p.config.MaxRetries
	}

	ev, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.bus.Publish(ctx, ev)
	}
	if err != nil {
		p.fail(ctx, entry, err, time.Since(start))
		return
	}

	entry.MarkSent()
	if err := p.repo.Update(context.WithoutCancel(ctx), entry); err != nil {
		p.logger.Error("Failed to mark outbox entry as sent",
			zap.String("event_id", entry.EventID.String()),
			zap.Error(err),
		)
	}
	p.observe(entry.EventType, "sent", time.Since(start))
}

func (p *OutboxProcessor) fail(ctx context.Context, entry *shared.OutboxEntry, cause error, elapsed time.Duration) {
	entry.MarkFailed(cause.Error())

	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_id", entry.AggregateID.String()),
		zap.Int("retry_count", entry.RetryCount),
		zap.Error(cause),
	}
	outcome := "failed"
	if entry.IsDead() {
		outcome = "dead"
		p.logger.Warn("Outbox entry moved to dead letter", fields...)
	} else {
		p.logger.Error("Outbox dispatch failed", append(fields, zap.Timep("next_retry_at", entry.NextRetryAt))...)
	}

	// the outcome is recorded even when shutdown cancelled ctx mid-dispatch
	if err := p.repo.Update(context.WithoutCancel(ctx), entry); err != nil {
		p.logger.Error("Failed to update outbox entry", zap.Error(err))
	}
	p.observe(entry.EventType, outcome, elapsed)
}

func (p *OutboxProcessor) observe(eventType, outcome string, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.ObserveDispatch(eventType, outcome, elapsed)
	}
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup(ctx)
		}
	}
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("Failed to clean up outbox", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("Cleaned up sent outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
