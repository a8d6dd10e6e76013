package wishlist

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for wishlist persistence
type Repository interface {
	// Add inserts the item; an existing (user, product) pair is left as is
	Add(ctx context.Context, item *Item) error

	// Remove returns ErrNotFound when the product is not in the wishlist
	Remove(ctx context.Context, userID, productID uuid.UUID) error

	Clear(ctx context.Context, userID uuid.UUID) error

	// FindByUser returns items newest first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Item, error)

	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}
