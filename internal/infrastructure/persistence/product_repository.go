package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

const effectivePriceExpr = "COALESCE(discount_price, price)"

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create creates a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	// Select("*") so a false IsActive is written instead of the column default
	return translateError(r.db.WithContext(ctx).Select("*").Create(product).Error)
}

// Update saves the product, failing with ErrConcurrencyConflict on a stale version
func (r *GormProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	return saveVersioned(ctx, r.db, product)
}

// Delete deletes a product by ID
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindBySlug finds a product by slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindByIDs loads the products that exist among ids, in no particular order
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindAll returns products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	field := ValidateSortField(filter.OrderBy, ProductSortFields, "created_at")
	if field == "price" {
		field = effectivePriceExpr
	}
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir)).Order("id")

	var products []catalog.Product
	if err := paginate(query, filter.Filter).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, f catalog.ProductFilter) *gorm.DB {
	query = searchAny(query, f.Search, "name", "brand", "description")
	if !f.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.Brand != "" {
		query = query.Where("LOWER(brand) = LOWER(?)", f.Brand)
	}
	if f.MinPrice != nil {
		query = query.Where(effectivePriceExpr+" >= CAST(? AS DECIMAL(12,2))", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		query = query.Where(effectivePriceExpr+" <= CAST(? AS DECIMAL(12,2))", f.MaxPrice.String())
	}
	if f.Featured != nil {
		query = query.Where("is_featured = ?", *f.Featured)
	}
	if f.InStock {
		query = query.Where("stock > 0")
	}
	return query
}

// FindFeatured returns active featured products, best sellers first
func (r *GormProductRepository) FindFeatured(ctx context.Context, limit int) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("sold_count DESC").Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// FindRelated returns active products in the same category, excluding the product itself
func (r *GormProductRepository) FindRelated(ctx context.Context, product *catalog.Product, limit int) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND id <> ? AND is_active = ?", product.CategoryID, product.ID, true).
		Order("rating DESC").Order("sold_count DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// FindTopSellers returns products ordered by sold count
func (r *GormProductRepository) FindTopSellers(ctx context.Context, limit int) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("sold_count > 0").
		Order("sold_count DESC").Order("name").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// ExistsBySlug checks for a slug clash, ignoring excludeID
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateRating stores recomputed review aggregates.
// The version moves so that stale admin edits cannot overwrite it.
func (r *GormProductRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, count int) error {
	result := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":       catalog.RoundRating(rating),
			"review_count": count,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the number of products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).Count(&count).Error
	return count, err
}

// CountLowStock counts active products at or below their threshold
func (r *GormProductRepository) CountLowStock(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("is_active = ? AND stock <= low_stock_threshold", true).
		Count(&count).Error
	return count, err
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
