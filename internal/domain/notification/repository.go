package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Repository defines the interface for notification persistence.
// Every per-user method is scoped to the owner.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	CreateBatch(ctx context.Context, ns []*Notification) error
	FindByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]Notification, int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkRead returns ErrNotFound if the notification is not the user's
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)

	// Delete returns ErrNotFound if the notification is not the user's
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// DeleteReadOlderThan purges read notifications created before the cutoff
	DeleteReadOlderThan(ctx context.Context, before time.Time) (int64, error)
}
