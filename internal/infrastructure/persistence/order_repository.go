package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("name").Order("id") })
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := preloadItems(r.db.WithContext(ctx)).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// FindByUserAndIdempotencyKey finds the order a client already placed with key
func (r *GormOrderRepository) FindByUserAndIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	var o order.Order
	err := preloadItems(r.db.WithContext(ctx)).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// FindAll returns orders matching the filter, newest first by default
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]order.Order, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&order.Order{})
	query = searchAny(query, filter.Search, "order_number", "ship_full_name")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", filter.To.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	query = orderBy(preloadItems(query), filter.Filter, OrderSortFields, "created_at")
	if err := paginate(query, filter.Filter).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindStalePending returns IDs of unpaid online orders created before the cutoff
func (r *GormOrderRepository) FindStalePending(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("status = ? AND payment_status = ? AND payment_method <> ? AND created_at < ?",
			order.StatusPending, order.PaymentStatusPending, order.PaymentMethodCOD, before.UTC()).
		Order("created_at").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// HasDeliveredPurchase reports whether the user received an order containing the product
func (r *GormOrderRepository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, order.StatusDelivered, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&count).Error
	return count, err
}

// CountByStatus returns order counts keyed by status, with every status present
func (r *GormOrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	var rows []struct {
		Status order.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[order.Status]int64{
		order.StatusPending:    0,
		order.StatusProcessing: 0,
		order.StatusShipped:    0,
		order.StatusDelivered:  0,
		order.StatusCancelled:  0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Revenue sums totals of paid orders that were not cancelled
func (r *GormOrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var row struct{ Revenue decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS revenue").
		Where("payment_status = ? AND status <> ?", order.PaymentStatusPaid, order.StatusCancelled).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Revenue.Round(2), nil
}

// FindRecent returns the newest orders with their items
func (r *GormOrderRepository) FindRecent(ctx context.Context, limit int) ([]order.Order, error) {
	var orders []order.Order
	err := preloadItems(r.db.WithContext(ctx)).
		Order("created_at DESC").Order("id").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// DailySales groups orders in [from, to) by UTC day.
// Revenue counts paid orders that were not cancelled; days without orders are absent.
func (r *GormOrderRepository) DailySales(ctx context.Context, from, to time.Time) ([]order.DailySales, error) {
	day := "to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	if r.db.Dialector.Name() == "sqlite" {
		day = "substr(created_at, 1, 10)"
	}

	var rows []struct {
		Day        string
		OrderCount int64
		Revenue    decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select(fmt.Sprintf(`%s AS day, COUNT(*) AS order_count,
			COALESCE(SUM(CASE WHEN payment_status = ? AND status <> ? THEN total_price ELSE 0 END), 0) AS revenue`, day),
			order.PaymentStatusPaid, order.StatusCancelled).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Group("day").
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sales := make([]order.DailySales, 0, len(rows))
	for _, row := range rows {
		sales = append(sales, order.DailySales{Day: row.Day, OrderCount: row.OrderCount, Revenue: row.Revenue.Round(2)})
	}
	return sales, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
