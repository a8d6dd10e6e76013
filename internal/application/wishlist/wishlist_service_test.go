package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	cartapp "github.com/shopfront/backend/internal/application/cart"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/wishlist"
	"github.com/shopfront/backend/tests/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testProduct(t *testing.T, name string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductDetails{Name: name, CategoryID: uuid.New()}, decimal.NewFromInt(15), stock)
	require.NoError(t, err)
	return p
}

type fixture struct {
	svc      *Service
	repo     *mocks.WishlistRepository
	products *mocks.ProductRepository
	carts    *mocks.CartRepository
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(mocks.WishlistRepository),
		products: new(mocks.ProductRepository),
		carts:    new(mocks.CartRepository),
	}
	cartSvc := cartapp.NewCartService(f.carts, f.products, order.DefaultPricingPolicy(), zap.NewNop())
	f.svc = NewService(f.repo, f.products, cartSvc, zap.NewNop())
	return f
}

func TestService_Get_SkipsMissingAndInactive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()
	active := testProduct(t, "Lamp", 3)
	inactive := testProduct(t, "Chair", 3)
	inactive.Deactivate()
	missing := uuid.New()

	f.repo.On("FindByUser", ctx, userID).Return([]wishlist.Item{
		*wishlist.NewItem(userID, active.ID),
		*wishlist.NewItem(userID, inactive.ID),
		*wishlist.NewItem(userID, missing),
	}, nil)
	f.products.On("FindByIDs", ctx, []uuid.UUID{active.ID, inactive.ID, missing}).
		Return([]catalog.Product{*active, *inactive}, nil)

	resp, err := f.svc.Get(ctx, userID)

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Lamp", resp.Items[0].Name)
	assert.True(t, resp.Items[0].InStock)
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("already saved is a no-op", func(t *testing.T) {
		f := newFixture()
		p := testProduct(t, "Lamp", 3)
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Exists", ctx, userID, p.ID).Return(true, nil)
		f.repo.On("FindByUser", ctx, userID).Return([]wishlist.Item{}, nil)

		_, err := f.svc.Add(ctx, userID, AddItemRequest{ProductID: p.ID})

		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("inactive product", func(t *testing.T) {
		f := newFixture()
		p := testProduct(t, "Lamp", 3)
		p.Deactivate()
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)

		_, err := f.svc.Add(ctx, userID, AddItemRequest{ProductID: p.ID})

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("full wishlist", func(t *testing.T) {
		f := newFixture()
		p := testProduct(t, "Lamp", 3)
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Exists", ctx, userID, p.ID).Return(false, nil)
		f.repo.On("Count", ctx, userID).Return(int64(wishlist.MaxItems), nil)

		_, err := f.svc.Add(ctx, userID, AddItemRequest{ProductID: p.ID})

		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestService_MoveToCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("moves one unit", func(t *testing.T) {
		f := newFixture()
		p := testProduct(t, "Lamp", 3)
		f.repo.On("Exists", ctx, userID, p.ID).Return(true, nil)
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.carts.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)
		f.carts.On("Save", ctx, mock.AnythingOfType("*cart.Cart")).Return(nil)
		f.repo.On("Remove", ctx, userID, p.ID).Return(nil)

		resp, err := f.svc.MoveToCart(ctx, userID, p.ID)

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 1, resp.Items[0].Quantity)
		f.repo.AssertExpectations(t)
	})

	t.Run("cart rules keep the item saved", func(t *testing.T) {
		f := newFixture()
		p := testProduct(t, "Lamp", 0)
		f.repo.On("Exists", ctx, userID, p.ID).Return(true, nil)
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.carts.On("FindByUser", ctx, userID).Return(cart.NewCart(userID), nil)

		_, err := f.svc.MoveToCart(ctx, userID, p.ID)

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		f.repo.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not saved", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		f.repo.On("Exists", ctx, userID, productID).Return(false, nil)

		_, err := f.svc.MoveToCart(ctx, userID, productID)

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
