package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CategoryService handles category-related business operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// List returns categories, alphabetical by default
func (s *CategoryService) List(ctx context.Context, filter CategoryListFilter) (*shared.Paginated[CategoryResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   strings.TrimSpace(filter.Search),
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	if f.OrderBy == "" {
		f.OrderBy = "name"
		f.OrderDir = "asc"
	}
	f = f.Normalize()

	categories, total, err := s.categoryRepo.FindAll(ctx, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list categories", err)
	}
	items := make([]CategoryResponse, len(categories))
	for i := range categories {
		items[i] = ToCategoryResponse(&categories[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Get returns a category by ID
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load category", err)
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Create creates a new category
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	if err := s.ensureUniqueName(ctx, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	category, err := catalog.NewCategory(req.Name, req.Description, req.ImageURL)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, internalError(s.logger, "Failed to create category", err)
	}

	s.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("name", category.Name))
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Update updates a category
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load category", err)
	}
	if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.Description, req.ImageURL); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, internalError(s.logger, "Failed to update category", err)
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete deletes a category that no product references
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return internalError(s.logger, "Failed to load category", err)
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return internalError(s.logger, "Failed to count category products", err)
	}
	if count > 0 {
		return shared.NewDomainError("CONFLICT", "Category still has products")
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return internalError(s.logger, "Failed to delete category", err)
	}
	s.logger.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name string, excludeID uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsByName(ctx, strings.TrimSpace(name), excludeID)
	if err != nil {
		return internalError(s.logger, "Failed to check category name", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}
	return nil
}
