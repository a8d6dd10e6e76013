package wishlist

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// MaxItems caps how many products one wishlist holds
const MaxItems = 200

// Item is a saved product in a user's wishlist
type Item struct {
	shared.BaseEntity
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product,priority:2"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "wishlist_items"
}

// NewItem creates a wishlist entry
func NewItem(userID, productID uuid.UUID) *Item {
	return &Item{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		ProductID:  productID,
	}
}

// CheckCapacity rejects adding beyond MaxItems
func CheckCapacity(current int64) error {
	if current >= MaxItems {
		return shared.NewDomainError("INVALID_STATE", "Wishlist is full")
	}
	return nil
}
