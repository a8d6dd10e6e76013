package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Filter narrows order listings
type Filter struct {
	shared.Filter
	UserID *uuid.UUID
	Status Status
	From   *time.Time
	To     *time.Time
}

// DailySales is one row of the sales report
type DailySales struct {
	Day        string          `json:"day"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Repository defines order persistence outside of checkout transactions
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByUserAndIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error)
	FindAll(ctx context.Context, filter Filter) ([]Order, int64, error)

	// FindStalePending returns IDs of unpaid online orders created before the cutoff
	FindStalePending(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error)

	// HasDeliveredPurchase reports whether the user received an order containing the product
	HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// Revenue sums totals of paid orders that were not cancelled
	Revenue(ctx context.Context) (decimal.Decimal, error)

	FindRecent(ctx context.Context, limit int) ([]Order, error)
	DailySales(ctx context.Context, from, to time.Time) ([]DailySales, error)
}

// TxRepository is order persistence inside a checkout or status transaction
type TxRepository interface {
	Create(ctx context.Context, o *Order) error

	// FindByIDForUpdate loads the order and locks its row until commit
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// Update saves order fields, failing with ErrConcurrencyConflict on a stale version
	Update(ctx context.Context, o *Order) error
}

// StockLedger moves stock for order lines inside a transaction
type StockLedger interface {
	// Reserve decrements stock and bumps sold count when the product is
	// active and has at least qty units. Returns false when nothing was updated.
	Reserve(ctx context.Context, productID uuid.UUID, qty int) (bool, error)

	// Restore returns qty units to stock and reverses the sold count
	Restore(ctx context.Context, productID uuid.UUID, qty int) error
}
