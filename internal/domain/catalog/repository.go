package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Category, int64, error)

	// ExistsByName checks for a case-insensitive name clash, ignoring excludeID
	ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)

	// CountProducts counts products referencing the category
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	CategoryID      *uuid.UUID
	Brand           string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Featured        *bool
	InStock         bool
	IncludeInactive bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error

	// Update saves the product, failing with ErrConcurrencyConflict on a stale version
	Update(ctx context.Context, product *Product) error

	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// FindFeatured returns active featured products, best sellers first
	FindFeatured(ctx context.Context, limit int) ([]Product, error)

	// FindRelated returns active products in the same category, excluding the product itself
	FindRelated(ctx context.Context, product *Product, limit int) ([]Product, error)

	// FindTopSellers returns products ordered by sold count
	FindTopSellers(ctx context.Context, limit int) ([]Product, error)

	// ExistsBySlug checks for a slug clash, ignoring excludeID
	ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)

	// UpdateRating stores recomputed review aggregates
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, count int) error

	Count(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context) (int64, error)
}

// ReviewRepository defines the interface for review persistence
type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Review, int64, error)
	ExistsByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (bool, error)

	// Stats returns the average rating and review count of a product
	Stats(ctx context.Context, productID uuid.UUID) (float64, int, error)
}
