package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/tests/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockImageStorage is a mock implementation of ImageStorage
type mockImageStorage struct {
	mock.Mock
}

func (m *mockImageStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *mockImageStorage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockImageStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (m *mockImageStorage) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, "https://cdn.example.com/") {
		return "", false
	}
	return strings.TrimPrefix(url, "https://cdn.example.com/"), true
}

type productFixture struct {
	svc        *ProductService
	products   *mocks.ProductRepository
	categories *mocks.CategoryRepository
	images     *mockImageStorage
	events     *transaction.RecordingEventWriter
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:   new(mocks.ProductRepository),
		categories: new(mocks.CategoryRepository),
		images:     new(mockImageStorage),
		events:     &transaction.RecordingEventWriter{},
	}
	scope := transaction.NewNoOpScope(&transaction.StaticRepositories{
		ProductRepo: f.products,
		EventWriter: f.events,
	})
	f.svc = NewProductService(scope, f.products, f.categories, f.images, DefaultProductServiceConfig(), zap.NewNop())
	return f
}

func newTestProduct(t *testing.T, name string, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductDetails{
		Name:       name,
		CategoryID: uuid.New(),
	}, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates product and records event", func(t *testing.T) {
		f := newProductFixture()
		categoryID := uuid.New()
		discount := decimal.RequireFromString("79.99")
		f.categories.On("FindByID", ctx, categoryID).Return(&catalog.Category{}, nil)
		f.products.On("ExistsBySlug", ctx, "trail-runner-2", uuid.Nil).Return(false, nil)
		f.products.On("Create", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := f.svc.Create(ctx, CreateProductRequest{
			Name:          "Trail Runner 2",
			Brand:         "Acme",
			CategoryID:    categoryID,
			Price:         decimal.RequireFromString("99.99"),
			DiscountPrice: &discount,
			Stock:         12,
			IsFeatured:    true,
		})

		require.NoError(t, err)
		assert.Equal(t, "trail-runner-2", resp.Slug)
		assert.True(t, resp.EffectivePrice.Equal(discount))
		assert.True(t, resp.IsFeatured)
		assert.Equal(t, []string{catalog.EventTypeProductCreated}, f.events.Types())
	})

	t.Run("unknown category", func(t *testing.T) {
		f := newProductFixture()
		categoryID := uuid.New()
		f.categories.On("FindByID", ctx, categoryID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Create(ctx, CreateProductRequest{
			Name:       "Lamp",
			CategoryID: categoryID,
			Price:      decimal.NewFromInt(10),
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_CATEGORY", domainErr.Code)
		f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("slug clash", func(t *testing.T) {
		f := newProductFixture()
		categoryID := uuid.New()
		f.categories.On("FindByID", ctx, categoryID).Return(&catalog.Category{}, nil)
		f.products.On("ExistsBySlug", ctx, "lamp", uuid.Nil).Return(true, nil)

		_, err := f.svc.Create(ctx, CreateProductRequest{
			Name:       "Lamp",
			CategoryID: categoryID,
			Price:      decimal.NewFromInt(10),
		})

		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
	})

	t.Run("discount must be below price", func(t *testing.T) {
		f := newProductFixture()
		categoryID := uuid.New()
		discount := decimal.NewFromInt(20)
		f.categories.On("FindByID", ctx, categoryID).Return(&catalog.Category{}, nil)

		_, err := f.svc.Create(ctx, CreateProductRequest{
			Name:          "Lamp",
			CategoryID:    categoryID,
			Price:         decimal.NewFromInt(10),
			DiscountPrice: &discount,
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_PRICE", domainErr.Code)
	})
}

func TestProductService_Get(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	product := newTestProduct(t, "Desk Lamp", "25", 3)
	hidden := newTestProduct(t, "Old Lamp", "25", 3)
	hidden.Deactivate()

	f.products.On("FindByID", ctx, product.ID).Return(product, nil)
	f.products.On("FindBySlug", ctx, "desk-lamp").Return(product, nil)
	f.products.On("FindByID", ctx, hidden.ID).Return(hidden, nil)

	byID, err := f.svc.Get(ctx, product.ID.String(), false)
	require.NoError(t, err)
	assert.Equal(t, product.ID, byID.ID)

	bySlug, err := f.svc.Get(ctx, "Desk-Lamp", false)
	require.NoError(t, err)
	assert.Equal(t, product.ID, bySlug.ID)

	_, err = f.svc.Get(ctx, hidden.ID.String(), false)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	adminView, err := f.svc.Get(ctx, hidden.ID.String(), true)
	require.NoError(t, err)
	assert.False(t, adminView.IsActive)
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("maps filter", func(t *testing.T) {
		f := newProductFixture()
		minPrice := decimal.NewFromInt(10)
		product := newTestProduct(t, "Mug", "12", 5)
		f.products.On("FindAll", ctx, mock.MatchedBy(func(pf catalog.ProductFilter) bool {
			return pf.Page == 1 && pf.PageSize == 20 && pf.Search == "mug" &&
				pf.MinPrice != nil && pf.MinPrice.Equal(minPrice) && pf.InStock && !pf.IncludeInactive
		})).Return([]catalog.Product{*product}, int64(1), nil)

		page, err := f.svc.List(ctx, ProductListFilter{Search: " mug ", MinPrice: &minPrice, InStock: true})

		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, "Mug", page.Items[0].Name)
	})

	t.Run("rejects inverted price range", func(t *testing.T) {
		f := newProductFixture()
		lo, hi := decimal.NewFromInt(50), decimal.NewFromInt(10)

		_, err := f.svc.List(ctx, ProductListFilter{MinPrice: &lo, MaxPrice: &hi})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_PRICE_RANGE", domainErr.Code)
		f.products.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	product := newTestProduct(t, "Desk Lamp", "25", 3)
	discount := decimal.NewFromInt(20)
	require.NoError(t, product.SetPricing(product.Price, &discount))
	product.MarkPersisted()

	f.products.On("FindByID", ctx, product.ID).Return(product, nil)
	f.products.On("ExistsBySlug", ctx, "reading-lamp", product.ID).Return(false, nil)
	f.products.On("Update", ctx, product).Return(nil)

	name := "Reading Lamp"
	price := decimal.NewFromInt(30)
	resp, err := f.svc.Update(ctx, product.ID, UpdateProductRequest{Name: &name, Price: &price})

	require.NoError(t, err)
	assert.Equal(t, "reading-lamp", resp.Slug)
	assert.True(t, resp.Price.Equal(price))
	require.NotNil(t, resp.DiscountPrice)
	assert.True(t, resp.DiscountPrice.Equal(discount))

	resp, err = f.svc.Update(ctx, product.ID, UpdateProductRequest{ClearDiscount: true})
	require.NoError(t, err)
	assert.Nil(t, resp.DiscountPrice)
	assert.True(t, resp.EffectivePrice.Equal(price))
}

func TestProductService_AdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("emits adjusted and low stock events", func(t *testing.T) {
		f := newProductFixture()
		product := newTestProduct(t, "Mug", "12", 8)
		f.products.On("FindByID", ctx, product.ID).Return(product, nil)
		f.products.On("Update", ctx, product).Return(nil)

		resp, err := f.svc.AdjustStock(ctx, product.ID, AdjustStockRequest{Delta: -4, Reason: "damaged"})

		require.NoError(t, err)
		assert.Equal(t, 4, resp.Stock)
		assert.Equal(t, []string{catalog.EventTypeProductStockAdjusted, catalog.EventTypeProductStockLow}, f.events.Types())
	})

	t.Run("stock cannot go negative", func(t *testing.T) {
		f := newProductFixture()
		product := newTestProduct(t, "Mug", "12", 2)
		f.products.On("FindByID", ctx, product.ID).Return(product, nil)

		_, err := f.svc.AdjustStock(ctx, product.ID, AdjustStockRequest{Delta: -3, Reason: "count"})

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Empty(t, f.events.Events)
		f.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestProductService_UploadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("stores object and appends url", func(t *testing.T) {
		f := newProductFixture()
		product := newTestProduct(t, "Mug", "12", 2)
		f.products.On("FindByID", ctx, product.ID).Return(product, nil)
		f.products.On("Update", ctx, product).Return(nil)
		f.images.On("Upload", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "products/"+product.ID.String()+"/images/") && strings.HasSuffix(key, ".png")
		}), []byte("png-bytes"), "image/png").Return(nil)

		url, err := f.svc.UploadImage(ctx, product.ID, UploadImageRequest{
			FileName:    "mug.png",
			ContentType: "image/png",
			Data:        []byte("png-bytes"),
		})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/products/"))
		assert.Equal(t, []string{url}, product.Images)
	})

	t.Run("rejects non-image content", func(t *testing.T) {
		f := newProductFixture()

		_, err := f.svc.UploadImage(ctx, uuid.New(), UploadImageRequest{
			FileName:    "run.exe",
			ContentType: "application/octet-stream",
			Data:        []byte("MZ"),
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_IMAGE", domainErr.Code)
		f.images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deletes object when save fails", func(t *testing.T) {
		f := newProductFixture()
		product := newTestProduct(t, "Mug", "12", 2)
		f.products.On("FindByID", ctx, product.ID).Return(product, nil)
		f.products.On("Update", ctx, product).Return(shared.ErrConcurrencyConflict)
		f.images.On("Upload", ctx, mock.Anything, mock.Anything, "image/jpeg").Return(nil)
		f.images.On("DeleteObject", ctx, mock.Anything).Return(nil)

		_, err := f.svc.UploadImage(ctx, product.ID, UploadImageRequest{
			ContentType: "image/jpeg; charset=binary",
			Data:        []byte("jpg"),
		})

		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		f.images.AssertCalled(t, "DeleteObject", ctx, mock.Anything)
	})

	t.Run("storage disabled", func(t *testing.T) {
		scope := transaction.NewNoOpScope(&transaction.StaticRepositories{})
		svc := NewProductService(scope, new(mocks.ProductRepository), new(mocks.CategoryRepository), nil, DefaultProductServiceConfig(), zap.NewNop())

		_, err := svc.UploadImage(ctx, uuid.New(), UploadImageRequest{ContentType: "image/png", Data: []byte("x")})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "SERVICE_UNAVAILABLE", domainErr.Code)
	})
}

func TestProductService_RemoveImage(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	product := newTestProduct(t, "Mug", "12", 2)
	url := "https://cdn.example.com/products/x/images/a.png"
	require.NoError(t, product.AddImage(url))
	require.NoError(t, product.AddImage("https://elsewhere.example.org/b.png"))
	product.MarkPersisted()

	f.products.On("FindByID", ctx, product.ID).Return(product, nil)
	f.products.On("Update", ctx, product).Return(nil)
	f.images.On("DeleteObject", ctx, "products/x/images/a.png").Return(nil)

	resp, err := f.svc.RemoveImage(ctx, product.ID, RemoveImageRequest{URL: url})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://elsewhere.example.org/b.png"}, resp.Images)

	_, err = f.svc.RemoveImage(ctx, product.ID, RemoveImageRequest{URL: "https://elsewhere.example.org/b.png"})
	require.NoError(t, err)
	f.images.AssertNumberOfCalls(t, "DeleteObject", 1)
}
