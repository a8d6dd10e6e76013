package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReviewRepository implements catalog.ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Create(ctx context.Context, review *catalog.Review) error {
	return translateError(r.db.WithContext(ctx).Create(review).Error)
}

func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Review{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Review, error) {
	var review catalog.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &review, nil
}

// FindByProduct lists a product's reviews, newest first by default
func (r *GormReviewRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]catalog.Review, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&catalog.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []catalog.Review
	query = orderBy(query, filter, ReviewSortFields, "created_at")
	if err := paginate(query, filter).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *GormReviewRepository) ExistsByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Stats returns the average rating and review count of a product
func (r *GormReviewRepository) Stats(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	var row struct {
		Avg   float64
		Count int
	}
	err := r.db.WithContext(ctx).Model(&catalog.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Count, nil
}

var _ catalog.ReviewRepository = (*GormReviewRepository)(nil)
