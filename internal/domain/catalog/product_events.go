package catalog

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductStockAdjusted = "ProductStockAdjusted"
	EventTypeProductStockLow      = "ProductStockLow"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	CategoryID uuid.UUID       `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		Slug:            product.Slug,
		CategoryID:      product.CategoryID,
		Price:           product.Price,
		Stock:           product.Stock,
	}
}

// ProductStockAdjustedEvent records a manual stock correction
type ProductStockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	StockBefore int       `json:"stock_before"`
	Delta       int       `json:"delta"`
	StockAfter  int       `json:"stock_after"`
	Reason      string    `json:"reason"`
}

// NewProductStockAdjustedEvent creates a new ProductStockAdjustedEvent
func NewProductStockAdjustedEvent(product *Product, before, delta int, reason string) *ProductStockAdjustedEvent {
	return &ProductStockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStockAdjusted, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		StockBefore:     before,
		Delta:           delta,
		StockAfter:      product.Stock,
		Reason:          reason,
	}
}

// ProductStockLowEvent is published when stock falls to the low-stock threshold
type ProductStockLowEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
}

// NewProductStockLowEvent creates a new ProductStockLowEvent
func NewProductStockLowEvent(productID uuid.UUID, name string, stock, threshold int) *ProductStockLowEvent {
	return &ProductStockLowEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStockLow, AggregateTypeProduct, productID),
		ProductID:       productID,
		Name:            name,
		Stock:           stock,
		Threshold:       threshold,
	}
}
