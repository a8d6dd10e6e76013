package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/wishlist"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWishlistRepository implements wishlist.Repository using GORM
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a new GormWishlistRepository
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// Add inserts the item; an existing (user, product) pair is left as is
func (r *GormWishlistRepository) Add(ctx context.Context, item *wishlist.Item) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item).Error
}

// Remove returns ErrNotFound when the product is not in the wishlist
func (r *GormWishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&wishlist.Item{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormWishlistRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&wishlist.Item{}).Error
}

// FindByUser returns items newest first
func (r *GormWishlistRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]wishlist.Item, error) {
	var items []wishlist.Item
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id").
		Find(&items).Error
	return items, err
}

func (r *GormWishlistRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&wishlist.Item{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormWishlistRepository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&wishlist.Item{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

var _ wishlist.Repository = (*GormWishlistRepository)(nil)
