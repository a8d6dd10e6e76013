package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/notification"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

const notificationBatchSize = 200

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// CreateBatch inserts notifications in chunks
func (r *GormNotificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(ns, notificationBatchSize).Error
}

// FindByUser lists the user's notifications, newest first
func (r *GormNotificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]notification.Notification, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&notification.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []notification.Notification
	if err := paginate(query.Order("created_at DESC").Order("id"), filter).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkRead returns ErrNotFound if the notification is not the user's.
// Marking an already read notification is a no-op.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	var n notification.Notification
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return notFound(err)
	}
	if n.IsRead() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at.UTC()).Error
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at.UTC())
	return result.RowsAffected, result.Error
}

// Delete returns ErrNotFound if the notification is not the user's
func (r *GormNotificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&notification.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteReadOlderThan purges read notifications created before the cutoff
func (r *GormNotificationRepository) DeleteReadOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", before.UTC()).
		Delete(&notification.Notification{})
	return result.RowsAffected, result.Error
}

var _ notification.Repository = (*GormNotificationRepository)(nil)
