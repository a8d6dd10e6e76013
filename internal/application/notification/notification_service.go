package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/notification"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ServiceConfig holds notification settings
type ServiceConfig struct {
	// BatchSize is how many notifications a broadcast inserts at once
	BatchSize int

	// Retention is how long read notifications are kept
	Retention time.Duration
}

// Service manages in-app notifications and pushes them to live sockets
type Service struct {
	repo   notification.Repository
	users  identity.UserRepository
	pusher Pusher
	config ServiceConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new notification Service
func NewService(repo notification.Repository, users identity.UserRepository, pusher Pusher, config ServiceConfig, logger *zap.Logger) *Service {
	if pusher == nil {
		pusher = noopPusher{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	if config.Retention <= 0 {
		config.Retention = 90 * 24 * time.Hour
	}
	return &Service{
		repo:   repo,
		users:  users,
		pusher: pusher,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the user's notifications, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) (*shared.Paginated[Response], error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	items, total, err := s.repo.FindByUser(ctx, userID, filter.UnreadOnly, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list notifications", err)
	}
	out := make([]Response, len(items))
	for i := range items {
		out[i] = ToResponse(&items[i])
	}
	page := shared.NewPaginated(out, total, f.Page, f.PageSize)
	return &page, nil
}

// UnreadCount returns the user's unread badge count
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (*UnreadCountResponse, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to count notifications", err)
	}
	return &UnreadCountResponse{Unread: count}, nil
}

// MarkRead marks one of the user's notifications as read
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id, s.now().UTC()); err != nil {
		return internalError(s.logger, "Failed to mark notification read", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, internalError(s.logger, "Failed to mark notifications read", err)
	}
	return n, nil
}

// Delete removes one of the user's notifications
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return internalError(s.logger, "Failed to delete notification", err)
	}
	return nil
}

// Notify stores a notification for one user and pushes it
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, typ notification.Type, title, body, link string, data map[string]string) error {
	n, err := notification.New(userID, typ, title, body, link, data)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.pusher.Push(ctx, userID, FrameNotification, ToResponse(n))
	return nil
}

// NotifyAdmins stores the same notification for every active admin
func (s *Service) NotifyAdmins(ctx context.Context, typ notification.Type, title, body, link string, data map[string]string) error {
	admins, err := s.users.FindActiveIDsByRole(ctx, identity.RoleAdmin)
	if err != nil {
		return err
	}
	_, err = s.fanOut(ctx, admins, typ, title, body, link, data)
	return err
}

// Broadcast notifies every active user, optionally limited to one role
func (s *Service) Broadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResult, error) {
	recipients, err := s.users.FindActiveIDsByRole(ctx, identity.Role(req.Role))
	if err != nil {
		return nil, internalError(s.logger, "Failed to load broadcast recipients", err)
	}
	sent, err := s.fanOut(ctx, recipients, notification.TypeBroadcast, req.Title, req.Body, req.Link, nil)
	if err != nil {
		return nil, internalError(s.logger, "Failed to broadcast notification", err)
	}
	s.logger.Info("Broadcast sent", zap.Int("recipients", sent), zap.String("role", req.Role))
	return &BroadcastResult{Recipients: sent}, nil
}

// fanOut inserts one notification per user in batches and pushes each batch
// after it is stored
func (s *Service) fanOut(ctx context.Context, userIDs []uuid.UUID, typ notification.Type, title, body, link string, data map[string]string) (int, error) {
	sent := 0
	for start := 0; start < len(userIDs); start += s.config.BatchSize {
		end := min(start+s.config.BatchSize, len(userIDs))
		batch := make([]*notification.Notification, 0, end-start)
		for _, id := range userIDs[start:end] {
			n, err := notification.New(id, typ, title, body, link, data)
			if err != nil {
				return sent, err
			}
			batch = append(batch, n)
		}
		if err := s.repo.CreateBatch(ctx, batch); err != nil {
			return sent, err
		}
		for _, n := range batch {
			s.pusher.Push(ctx, n.UserID, FrameNotification, ToResponse(n))
		}
		sent += len(batch)
	}
	return sent, nil
}

// Purge deletes read notifications older than the retention period
func (s *Service) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.config.Retention)
	n, err := s.repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		return 0, internalError(s.logger, "Failed to purge notifications", err)
	}
	if n > 0 {
		s.logger.Info("Purged read notifications", zap.Int64("count", n))
	}
	return n, nil
}

func internalError(logger *zap.Logger, message string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.WrapDomainError("INTERNAL_ERROR", message, err)
}
