package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxService exposes dead letter inspection and replay to admins
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{
		repo:   repo,
		logger: logger,
	}
}

// OutboxEntryDTO is a side-effect job as shown to admins
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxFilter pages through dead letters
type OutboxFilter struct {
	Page     int `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

// OutboxListResult is a page of dead letters
type OutboxListResult struct {
	Entries    []OutboxEntryDTO `json:"entries"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// OutboxStatsDTO counts jobs per status
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// RetryAllResult reports how many dead letters were requeued
type RetryAllResult struct {
	Requeued int64 `json:"requeued"`
}

// GetDeadLetterEntries lists jobs that exhausted their retries
func (s *OutboxService) GetDeadLetterEntries(ctx context.Context, filter OutboxFilter) (*OutboxListResult, error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()

	entries, total, err := s.repo.FindDead(ctx, f.Page, f.PageSize)
	if err != nil {
		s.logger.Error("Failed to find dead letter entries", zap.Error(err))
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "Failed to retrieve dead letter entries", err)
	}

	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toOutboxEntryDTO(entry)
	}
	return &OutboxListResult{
		Entries:    dtos,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: int((total + int64(f.PageSize) - 1) / int64(f.PageSize)),
	}, nil
}

// RetryDeadEntry moves one dead letter back to pending with a fresh retry budget
func (s *OutboxService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && entry == nil) {
		return nil, shared.NewDomainError("NOT_FOUND", "Outbox entry not found")
	}
	if err != nil {
		s.logger.Error("Failed to find outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "Failed to retrieve outbox entry", err)
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError("INVALID_STATE", err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to update outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "Failed to retry entry", err)
	}

	s.logger.Info("Dead letter entry requeued",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
	)
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries requeues every dead letter in one statement
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context) (*RetryAllResult, error) {
	n, err := s.repo.ResetAllDead(ctx)
	if err != nil {
		s.logger.Error("Failed to requeue dead letter entries", zap.Error(err))
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "Failed to retry dead letter entries", err)
	}
	s.logger.Info("Dead letter entries requeued", zap.Int64("count", n))
	return &RetryAllResult{Requeued: n}, nil
}

// GetStats returns job counts per status
func (s *OutboxService) GetStats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to get outbox stats", zap.Error(err))
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "Failed to get outbox stats", err)
	}

	stats := &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// ReportDead logs a warning when dead letters are waiting. Used by the scheduler.
func (s *OutboxService) ReportDead(ctx context.Context) (int64, error) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		return 0, err
	}
	if stats.Dead > 0 {
		s.logger.Warn("Outbox has dead letter entries",
			zap.Int64("dead", stats.Dead),
			zap.Int64("failed", stats.Failed))
	}
	return stats.Dead, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
