package wishlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	cartapp "github.com/shopfront/backend/internal/application/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/wishlist"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddItemRequest saves a product to the wishlist
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// ItemResponse is a wishlist entry joined with the current product
type ItemResponse struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Image          string          `json:"image"`
	Price          decimal.Decimal `json:"price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Rating         float64         `json:"rating"`
	InStock        bool            `json:"in_stock"`
	AddedAt        time.Time       `json:"added_at"`
}

// Response is the user's wishlist
type Response struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}

// CartAdder adds a product to the user's cart under the cart rules
type CartAdder interface {
	AddItem(ctx context.Context, userID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.CartResponse, error)
}

// Service manages wishlists
type Service struct {
	repo        wishlist.Repository
	productRepo catalog.ProductRepository
	carts       CartAdder
	logger      *zap.Logger
}

// NewService creates a new wishlist Service
func NewService(repo wishlist.Repository, productRepo catalog.ProductRepository, carts CartAdder, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		productRepo: productRepo,
		carts:       carts,
		logger:      logger,
	}
}

// Get returns the wishlist. Products that no longer exist or are inactive are skipped.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Response, error) {
	items, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load wishlist", err)
	}
	if len(items) == 0 {
		return &Response{Items: []ItemResponse{}}, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load wishlist products", err)
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		out = append(out, ItemResponse{
			ProductID:      p.ID,
			Name:           p.Name,
			Slug:           p.Slug,
			Image:          p.PrimaryImage(),
			Price:          p.Price,
			EffectivePrice: p.EffectivePrice(),
			Rating:         p.Rating,
			InStock:        p.Stock > 0,
			AddedAt:        item.CreatedAt,
		})
	}
	return &Response{Items: out, Count: len(out)}, nil
}

// Add saves an active product. Adding a saved product again is a no-op.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*Response, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load product", err)
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
	}

	exists, err := s.repo.Exists(ctx, userID, product.ID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to check wishlist", err)
	}
	if !exists {
		count, err := s.repo.Count(ctx, userID)
		if err != nil {
			return nil, internalError(s.logger, "Failed to count wishlist", err)
		}
		if err := wishlist.CheckCapacity(count); err != nil {
			return nil, err
		}
		if err := s.repo.Add(ctx, wishlist.NewItem(userID, product.ID)); err != nil {
			return nil, internalError(s.logger, "Failed to add to wishlist", err)
		}
	}
	return s.Get(ctx, userID)
}

// Remove deletes a product from the wishlist
func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) (*Response, error) {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return nil, internalError(s.logger, "Failed to remove from wishlist", err)
	}
	return s.Get(ctx, userID)
}

// Clear empties the wishlist
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return internalError(s.logger, "Failed to clear wishlist", err)
	}
	return nil
}

// MoveToCart adds one unit to the cart and drops the product from the wishlist
func (s *Service) MoveToCart(ctx context.Context, userID, productID uuid.UUID) (*cartapp.CartResponse, error) {
	exists, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to check wishlist", err)
	}
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", "Product is not in the wishlist")
	}

	c, err := s.carts.AddItem(ctx, userID, cartapp.AddItemRequest{ProductID: productID, Quantity: 1})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Remove(ctx, userID, productID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, internalError(s.logger, "Failed to remove from wishlist", err)
	}
	return c, nil
}

func internalError(logger *zap.Logger, message string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.WrapDomainError("INTERNAL_ERROR", message, err)
}
