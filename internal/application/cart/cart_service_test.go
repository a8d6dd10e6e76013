package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/tests/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCartService() (*CartService, *mocks.CartRepository, *mocks.ProductRepository) {
	carts := new(mocks.CartRepository)
	products := new(mocks.ProductRepository)
	return NewCartService(carts, products, order.DefaultPricingPolicy(), zap.NewNop()), carts, products
}

func newProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductDetails{Name: name, CategoryID: uuid.New()}, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates cart and prices it", func(t *testing.T) {
		svc, carts, products := newCartService()
		product := newProduct(t, "Mug", "12.50", 10)
		products.On("FindByID", ctx, product.ID).Return(product, nil)
		carts.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)
		carts.On("Save", ctx, mock.AnythingOfType("*cart.Cart")).Return(nil)

		resp, err := svc.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 2})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 2, resp.ItemCount)
		assert.Equal(t, "25", resp.Items[0].Subtotal.String())
		assert.Equal(t, "25", resp.Totals.Items.String())
		assert.Equal(t, "10", resp.Totals.Shipping.String())
		assert.Equal(t, "3.75", resp.Totals.Tax.String())
		assert.Equal(t, "38.75", resp.Totals.Total.String())
	})

	t.Run("merged quantity cannot exceed stock", func(t *testing.T) {
		svc, carts, products := newCartService()
		product := newProduct(t, "Mug", "12.50", 3)
		existing := cart.NewCart(userID)
		require.NoError(t, existing.AddItem(Snapshot(product), 2))
		products.On("FindByID", ctx, product.ID).Return(product, nil)
		carts.On("FindByUser", ctx, userID).Return(existing, nil)

		_, err := svc.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 2})

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inactive product", func(t *testing.T) {
		svc, carts, products := newCartService()
		product := newProduct(t, "Mug", "12.50", 3)
		product.Deactivate()
		products.On("FindByID", ctx, product.ID).Return(product, nil)
		carts.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)

		_, err := svc.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 1})

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestCartService_Get_Reconciles(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, carts, products := newCartService()

	kept := newProduct(t, "Mug", "10", 1)
	gone := newProduct(t, "Plate", "5", 5)
	c := cart.NewCart(userID)
	require.NoError(t, c.AddItem(Snapshot(kept), 1))
	require.NoError(t, c.AddItem(Snapshot(gone), 2))

	// discounted after the line was added; Plate has since been deleted
	discount := decimal.RequireFromString("8")
	require.NoError(t, kept.SetPricing(kept.Price, &discount))

	carts.On("FindByUser", ctx, userID).Return(c, nil)
	products.On("FindByIDs", ctx, []uuid.UUID{kept.ID, gone.ID}).Return([]catalog.Product{*kept}, nil)
	carts.On("Save", ctx, c).Return(nil)

	resp, err := svc.Get(ctx, userID)

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, kept.ID, resp.Items[0].ProductID)
	assert.True(t, resp.Items[0].UnitPrice.Equal(discount))
	carts.AssertCalled(t, "Save", ctx, c)
}

func TestCartService_Get_Empty(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, carts, products := newCartService()
	carts.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)

	resp, err := svc.Get(ctx, userID)

	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Totals.Total.IsZero())
	products.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_UpdateItem(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, carts, products := newCartService()
	product := newProduct(t, "Mug", "10", 5)
	c := cart.NewCart(userID)
	require.NoError(t, c.AddItem(Snapshot(product), 1))

	carts.On("FindByUser", ctx, userID).Return(c, nil)
	products.On("FindByID", ctx, product.ID).Return(product, nil)
	carts.On("Save", ctx, c).Return(nil)

	resp, err := svc.UpdateItem(ctx, userID, product.ID, UpdateItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.ItemCount)

	_, err = svc.UpdateItem(ctx, userID, product.ID, UpdateItemRequest{Quantity: 6})
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

	resp, err = svc.UpdateItem(ctx, userID, product.ID, UpdateItemRequest{Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestCartService_Clear(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, carts, _ := newCartService()
	carts.On("ClearByUser", ctx, userID).Return(nil)

	require.NoError(t, svc.Clear(ctx, userID))
	carts.AssertExpectations(t)
}
