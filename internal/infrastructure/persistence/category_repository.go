package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	return translateError(r.db.WithContext(ctx).Create(category).Error)
}

func (r *GormCategoryRepository) Update(ctx context.Context, category *catalog.Category) error {
	return saveVersioned(ctx, r.db, category)
}

func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

func (r *GormCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// FindAll returns categories ordered by name unless the filter says otherwise
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, int64, error) {
	filter = filter.Normalize()
	query := searchAny(r.db.WithContext(ctx).Model(&catalog.Category{}), filter.Search, "name", "description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "name", "asc"
	}
	var categories []catalog.Category
	query = orderBy(query, filter, CategorySortFields, "name")
	if err := paginate(query, filter).Find(&categories).Error; err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// ExistsByName checks for a case-insensitive name clash, ignoring excludeID
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Category{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountProducts counts products referencing the category
func (r *GormCategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
