package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductServiceConfig holds storefront listing limits
type ProductServiceConfig struct {
	FeaturedLimit int
	RelatedLimit  int
}

// DefaultProductServiceConfig returns the default configuration
func DefaultProductServiceConfig() ProductServiceConfig {
	return ProductServiceConfig{
		FeaturedLimit: 8,
		RelatedLimit:  4,
	}
}

// ProductService handles product-related business operations
type ProductService struct {
	scope        transaction.Scope
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	images       ImageStorage
	config       ProductServiceConfig
	logger       *zap.Logger
}

// NewProductService creates a new ProductService.
// images may be nil when object storage is disabled.
func NewProductService(
	scope transaction.Scope,
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	images ImageStorage,
	config ProductServiceConfig,
	logger *zap.Logger,
) *ProductService {
	if config.FeaturedLimit <= 0 {
		config.FeaturedLimit = DefaultProductServiceConfig().FeaturedLimit
	}
	if config.RelatedLimit <= 0 {
		config.RelatedLimit = DefaultProductServiceConfig().RelatedLimit
	}
	return &ProductService{
		scope:        scope,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		images:       images,
		config:       config,
		logger:       logger,
	}
}

// List returns a page of products. Only admins may ask for inactive ones;
// the handler clears IncludeInactive for everybody else.
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   strings.TrimSpace(filter.Search),
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		CategoryID:      filter.CategoryID,
		Brand:           strings.TrimSpace(filter.Brand),
		MinPrice:        filter.MinPrice,
		MaxPrice:        filter.MaxPrice,
		Featured:        filter.Featured,
		InStock:         filter.InStock,
		IncludeInactive: filter.IncludeInactive,
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, shared.NewDomainError("INVALID_PRICE_RANGE", "min_price cannot exceed max_price")
	}

	products, total, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list products", err)
	}
	page := shared.NewPaginated(ToProductResponses(products), total, f.Page, f.PageSize)
	return &page, nil
}

// Get returns a product by ID or slug. Inactive products are only
// visible with includeInactive.
func (s *ProductService) Get(ctx context.Context, idOrSlug string, includeInactive bool) (*ProductResponse, error) {
	product, err := s.load(ctx, idOrSlug, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Featured returns active featured products
func (s *ProductService) Featured(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.productRepo.FindFeatured(ctx, s.config.FeaturedLimit)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load featured products", err)
	}
	return ToProductResponses(products), nil
}

// Related returns other active products from the same category
func (s *ProductService) Related(ctx context.Context, idOrSlug string) ([]ProductResponse, error) {
	product, err := s.load(ctx, idOrSlug, false)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindRelated(ctx, product, s.config.RelatedLimit)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load related products", err)
	}
	return ToProductResponses(products), nil
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(catalog.ProductDetails{
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		CategoryID:  req.CategoryID,
	}, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if req.DiscountPrice != nil {
		if err := product.SetPricing(req.Price, req.DiscountPrice); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	for _, url := range req.Images {
		if err := product.AddImage(url); err != nil {
			return nil, err
		}
	}
	product.SetFeatured(req.IsFeatured)

	if err := s.ensureUniqueSlug(ctx, product.Slug, uuid.Nil); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		if err := repos.Products().Create(ctx, product); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("ALREADY_EXISTS", "A product with this name already exists")
			}
			return err
		}
		return repos.Events().Write(ctx, product.PullDomainEvents()...)
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to create product", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug))

	resp := ToProductResponse(product)
	return &resp, nil
}

// Update applies the non-nil fields of req
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load product", err)
	}

	details := catalog.ProductDetails{
		Name:        product.Name,
		Description: product.Description,
		Brand:       product.Brand,
		CategoryID:  product.CategoryID,
	}
	if req.Name != nil {
		details.Name = *req.Name
	}
	if req.Description != nil {
		details.Description = *req.Description
	}
	if req.Brand != nil {
		details.Brand = *req.Brand
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		details.CategoryID = *req.CategoryID
	}

	oldSlug := product.Slug
	if err := product.Update(details); err != nil {
		return nil, err
	}
	if product.Slug != oldSlug {
		if err := s.ensureUniqueSlug(ctx, product.Slug, product.ID); err != nil {
			return nil, err
		}
	}

	if req.Price != nil || req.DiscountPrice != nil || req.ClearDiscount {
		price := product.Price
		if req.Price != nil {
			price = *req.Price
		}
		discount := req.DiscountPrice
		if discount == nil && !req.ClearDiscount && product.DiscountPrice.Valid {
			d := product.DiscountPrice.Decimal
			discount = &d
		}
		if err := product.SetPricing(price, discount); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if req.IsFeatured != nil {
		product.SetFeatured(*req.IsFeatured)
	}
	if req.IsActive != nil {
		if *req.IsActive {
			product.Activate()
		} else {
			product.Deactivate()
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, internalError(s.logger, "Failed to update product", err)
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete deletes a product
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return internalError(s.logger, "Failed to load product", err)
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return internalError(s.logger, "Failed to delete product", err)
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// AdjustStock applies a manual stock correction and records it in the outbox
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	var product *catalog.Product
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		product, err = repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := product.AdjustStock(req.Delta, strings.TrimSpace(req.Reason)); err != nil {
			return err
		}
		if err := repos.Products().Update(ctx, product); err != nil {
			return err
		}
		return repos.Events().Write(ctx, product.PullDomainEvents()...)
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to adjust stock", err)
	}

	s.logger.Info("Stock adjusted",
		zap.String("product_id", product.ID.String()),
		zap.Int("delta", req.Delta),
		zap.Int("stock", product.Stock))

	resp := ToProductResponse(product)
	return &resp, nil
}

// load finds a product by UUID or slug
func (s *ProductService) load(ctx context.Context, idOrSlug string, includeInactive bool) (*catalog.Product, error) {
	var (
		product *catalog.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.productRepo.FindByID(ctx, id)
	} else {
		product, err = s.productRepo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(idOrSlug)))
	}
	if err != nil {
		return nil, internalError(s.logger, "Failed to load product", err)
	}
	if !product.IsActive && !includeInactive {
		return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
	}
	return product, nil
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return internalError(s.logger, "Failed to load category", err)
	}
	return nil
}

func (s *ProductService) ensureUniqueSlug(ctx context.Context, slug string, excludeID uuid.UUID) error {
	exists, err := s.productRepo.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return internalError(s.logger, "Failed to check product slug", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A product with this name already exists")
	}
	return nil
}

// internalError passes domain errors through and hides everything else
// behind INTERNAL_ERROR
func internalError(logger *zap.Logger, message string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.WrapDomainError("INTERNAL_ERROR", message, err)
}
