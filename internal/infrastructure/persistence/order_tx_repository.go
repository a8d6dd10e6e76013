package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderTxRepository implements order.TxRepository on a transaction handle
type GormOrderTxRepository struct {
	tx *gorm.DB
}

// NewGormOrderTxRepository creates a new GormOrderTxRepository
func NewGormOrderTxRepository(tx *gorm.DB) *GormOrderTxRepository {
	return &GormOrderTxRepository{tx: tx}
}

// Create inserts the order and its items
func (r *GormOrderTxRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.tx.WithContext(ctx).Create(o).Error; err != nil {
		return translateError(err)
	}
	o.MarkPersisted()
	return nil
}

// FindByIDForUpdate loads the order and locks its row until commit.
// sqlite has no row locks and ignores the clause.
func (r *GormOrderTxRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.tx.WithContext(ctx).Where("order_id = ?", o.ID).Order("name").Order("id").Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// Update saves order fields, failing with ErrConcurrencyConflict on a stale version
func (r *GormOrderTxRepository) Update(ctx context.Context, o *order.Order) error {
	return saveVersioned(ctx, r.tx, o)
}

// GormStockLedger implements order.StockLedger with conditional updates
type GormStockLedger struct {
	tx *gorm.DB
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(tx *gorm.DB) *GormStockLedger {
	return &GormStockLedger{tx: tx}
}

// Reserve decrements stock only when the product is active and holds qty units
func (l *GormStockLedger) Reserve(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	if qty < 1 {
		return false, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	result := l.tx.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ? AND is_active = ? AND stock >= ?", productID, true, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"sold_count": gorm.Expr("sold_count + ?", qty),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Restore returns qty units to stock. ErrNotFound means the product was deleted.
func (l *GormStockLedger) Restore(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	result := l.tx.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"sold_count": gorm.Expr("CASE WHEN sold_count >= ? THEN sold_count - ? ELSE 0 END", qty, qty),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ order.TxRepository = (*GormOrderTxRepository)(nil)
	_ order.StockLedger  = (*GormStockLedger)(nil)
)
