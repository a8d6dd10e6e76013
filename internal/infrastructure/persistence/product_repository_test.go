package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	cat := seedCategory(t, db, "Coffee")
	p := seedProduct(t, db, cat.ID, "Café Crème", "12.50", 10)
	require.NoError(t, p.AddImage("https://cdn.example.com/a.jpg"))
	require.NoError(t, repo.Update(ctx, p))

	bySlug, err := repo.FindBySlug(ctx, "cafe-creme")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)
	assert.True(t, bySlug.Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, bySlug.Images)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exists, err := repo.ExistsBySlug(ctx, "cafe-creme", p.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormProductRepository_InactiveIsPersisted(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	cat := seedCategory(t, db, "Tea")

	p, err := catalog.NewProduct(catalog.ProductDetails{Name: "Hidden", CategoryID: cat.ID}, decimal.NewFromInt(5), 1)
	require.NoError(t, err)
	p.IsActive = false
	require.NoError(t, repo.Create(ctx, p))

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestGormProductRepository_FindAllFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	coffee := seedCategory(t, db, "Coffee")
	tea := seedCategory(t, db, "Tea")

	cheap := seedProduct(t, db, coffee.ID, "Instant", "5.00", 0)
	discounted := seedProduct(t, db, coffee.ID, "Espresso Beans", "40.00", 3)
	discount := decimal.RequireFromString("19.99")
	require.NoError(t, discounted.SetPricing(discounted.Price, &discount))
	require.NoError(t, repo.Update(ctx, discounted))
	seedProduct(t, db, tea.ID, "Green Tea", "25.00", 8)
	hidden := seedProduct(t, db, tea.ID, "Old Tea", "1.00", 1)
	hidden.Deactivate()
	require.NoError(t, repo.Update(ctx, hidden))

	all, total, err := repo.FindAll(ctx, catalog.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	withInactive, total, err := repo.FindAll(ctx, catalog.ProductFilter{Filter: shared.DefaultFilter(), IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, withInactive, 4)

	maxPrice := decimal.NewFromInt(20)
	byPrice, _, err := repo.FindAll(ctx, catalog.ProductFilter{Filter: shared.DefaultFilter(), MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{cheap.ID, discounted.ID}, productIDs(byPrice))

	inStock, _, err := repo.FindAll(ctx, catalog.ProductFilter{Filter: shared.DefaultFilter(), CategoryID: &coffee.ID, InStock: true})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{discounted.ID}, productIDs(inStock))

	f := shared.DefaultFilter()
	f.OrderBy, f.OrderDir = "price", "asc"
	sorted, _, err := repo.FindAll(ctx, catalog.ProductFilter{Filter: f})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"Instant", "Espresso Beans", "Green Tea"}, productNames(sorted))

	f = shared.DefaultFilter()
	f.Search = "BEANS"
	found, _, err := repo.FindAll(ctx, catalog.ProductFilter{Filter: f})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{discounted.ID}, productIDs(found))
}

func TestGormProductRepository_FeaturedAndRelated(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	cat := seedCategory(t, db, "Coffee")
	a := seedProduct(t, db, cat.ID, "Alpha", "10", 5)
	b := seedProduct(t, db, cat.ID, "Beta", "10", 5)
	seedProduct(t, db, seedCategory(t, db, "Tea").ID, "Gamma", "10", 5)

	a.SetFeatured(true)
	require.NoError(t, repo.Update(ctx, a))

	featured, err := repo.FindFeatured(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, productIDs(featured))

	related, err := repo.FindRelated(ctx, a, 4)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, productIDs(related))
}

func TestGormProductRepository_UpdateRatingMovesVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, seedCategory(t, db, "Coffee").ID, "Alpha", "10", 5)

	require.NoError(t, repo.UpdateRating(ctx, p.ID, 4.26, 3))

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.3, stored.Rating, 0.0001)
	assert.Equal(t, 3, stored.ReviewCount)

	require.NoError(t, p.Update(catalog.ProductDetails{Name: "Alpha 2", CategoryID: p.CategoryID}))
	assert.ErrorIs(t, repo.Update(ctx, p), shared.ErrConcurrencyConflict)

	assert.ErrorIs(t, repo.UpdateRating(ctx, uuid.New(), 1, 1), shared.ErrNotFound)
}

func TestGormProductRepository_CountLowStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	cat := seedCategory(t, db, "Coffee")
	seedProduct(t, db, cat.ID, "Low", "10", 2)
	seedProduct(t, db, cat.ID, "Plenty", "10", 50)

	low, err := repo.CountLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), low)

	count, err := NewGormCategoryRepository(db).CountProducts(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormStockLedger_ReserveAndRestore(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ledger := NewGormStockLedger(db)
	ctx := context.Background()
	p := seedProduct(t, db, seedCategory(t, db, "Coffee").ID, "Alpha", "10", 5)

	ok, err := ledger.Reserve(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Reserve(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok, "only 2 left")

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)
	assert.Equal(t, 3, stored.SoldCount)

	require.NoError(t, ledger.Restore(ctx, p.ID, 3))
	stored, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)
	assert.Equal(t, 0, stored.SoldCount)

	stored.Deactivate()
	require.NoError(t, repo.Update(ctx, stored))
	ok, err = ledger.Reserve(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "inactive products cannot be reserved")

	assert.ErrorIs(t, ledger.Restore(ctx, uuid.New(), 1), shared.ErrNotFound)
}

func TestGormCategoryRepository_ExistsByName(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()
	cat := seedCategory(t, db, "Coffee")

	exists, err := repo.ExistsByName(ctx, " coffee ", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByName(ctx, "Coffee", cat.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	list, total, err := repo.FindAll(ctx, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "coffee", list[0].Slug)
}

func productIDs(ps []catalog.Product) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func productNames(ps []catalog.Product) []string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	return names
}
