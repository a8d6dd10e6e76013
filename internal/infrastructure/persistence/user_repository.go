package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

// Update saves the user if nobody changed it since it was loaded
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return saveVersioned(ctx, r.db, user)
}

// Delete deletes a user by ID
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByEmail finds a user by normalized email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.ErrNotFound
	}
	var user identity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByResetTokenHash finds the user holding a password reset token
func (r *GormUserRepository) FindByResetTokenHash(ctx context.Context, hash string) (*identity.User, error) {
	if hash == "" {
		return nil, shared.ErrNotFound
	}
	var user identity.User
	if err := r.db.WithContext(ctx).Where("password_reset_hash = ?", hash).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindAll returns users matching the filter
func (r *GormUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&identity.User{})
	query = searchAny(query, filter.Search, "name", "email")
	if role, ok := filter.Filters["role"].(string); ok && role != "" {
		query = query.Where("role = ?", role)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []identity.User
	query = orderBy(query, filter, UserSortFields, "created_at")
	if err := paginate(query, filter).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// FindActiveIDsByRole returns IDs of active users. An empty role matches everyone.
func (r *GormUserRepository) FindActiveIDsByRole(ctx context.Context, role identity.Role) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).Model(&identity.User{}).Where("status = ?", identity.UserStatusActive)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var ids []uuid.UUID
	if err := query.Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ExistsByEmail checks if an email already exists
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&identity.User{}).
		Where("email = ?", identity.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the total number of users
func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.User{}).Count(&count).Error
	return count, err
}

// CountByRole returns the number of users with a role
func (r *GormUserRepository) CountByRole(ctx context.Context, role identity.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
