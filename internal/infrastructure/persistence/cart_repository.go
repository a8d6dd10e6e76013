package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser returns the user's cart with its items, or ErrNotFound
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("name").Order("id") }).
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Save upserts the cart and replaces its items
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(c).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("cart_id = ?", c.ID).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return nil
		}
		for i := range c.Items {
			c.Items[i].CartID = c.ID
		}
		return tx.Create(&c.Items).Error
	})
}

// ClearByUser deletes every item in the user's cart
func (r *GormCartRepository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id IN (?)", r.db.Model(&cart.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&cart.CartItem{}).Error
}

var _ cart.CartRepository = (*GormCartRepository)(nil)
