package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartService manages the per-user shopping cart
type CartService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	pricing     order.PricingPolicy
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	pricing order.PricingPolicy,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
		logger:      logger,
	}
}

// Get returns the cart repriced against the catalog. Lines for deleted or
// inactive products are dropped and quantities are clamped to stock.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, c.ProductIDs())
		if err != nil {
			return nil, internalError(s.logger, "Failed to load cart products", err)
		}
		snapshots := make(map[uuid.UUID]cart.ProductSnapshot, len(products))
		for i := range products {
			snapshots[products[i].ID] = Snapshot(&products[i])
		}
		if c.Reconcile(snapshots) {
			if err := s.cartRepo.Save(ctx, c); err != nil {
				return nil, internalError(s.logger, "Failed to save cart", err)
			}
			s.logger.Debug("Cart reconciled with catalog", zap.String("user_id", userID.String()))
		}
	}
	resp := ToCartResponse(c, s.pricing)
	return &resp, nil
}

// AddItem adds a product, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load product", err)
	}
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.AddItem(Snapshot(product), req.Quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// UpdateItem sets a line quantity; zero removes the line
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		if err := c.RemoveItem(productID); err != nil {
			return nil, err
		}
		return s.save(ctx, c)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load product", err)
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("NOT_FOUND", "Product is not available")
	}
	if err := c.UpdateItem(Snapshot(product), req.Quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// RemoveItem removes a product line
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.ClearByUser(ctx, userID); err != nil {
		return internalError(s.logger, "Failed to clear cart", err)
	}
	return nil
}

// load returns the user's cart, or a new empty one
func (s *CartService) load(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return cart.NewCart(userID), nil
		}
		return nil, internalError(s.logger, "Failed to load cart", err)
	}
	return c, nil
}

func (s *CartService) save(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, internalError(s.logger, "Failed to save cart", err)
	}
	resp := ToCartResponse(c, s.pricing)
	return &resp, nil
}

// Snapshot captures what the cart needs from a catalog product
func Snapshot(p *catalog.Product) cart.ProductSnapshot {
	return cart.ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Image:     p.PrimaryImage(),
		UnitPrice: p.EffectivePrice(),
		Stock:     p.Stock,
		Active:    p.IsActive,
	}
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
