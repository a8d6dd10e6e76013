package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByUser returns the user's cart with its items, or ErrNotFound
	FindByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// Save upserts the cart and replaces its items
	Save(ctx context.Context, cart *Cart) error

	// ClearByUser deletes every item in the user's cart
	ClearByUser(ctx context.Context, userID uuid.UUID) error
}
