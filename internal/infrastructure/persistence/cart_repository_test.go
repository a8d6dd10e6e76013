package persistence

import (
	"context"
	"testing"

	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCartRepository_SaveReplacesItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "Ada", "ada@example.com", identity.RoleCustomer)
	cat := seedCategory(t, db, "Coffee")
	a := seedProduct(t, db, cat.ID, "Alpha", "10.00", 10)
	b := seedProduct(t, db, cat.ID, "Beta", "4.50", 10)

	_, err := repo.FindByUser(ctx, u.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	c := cart.NewCart(u.ID)
	require.NoError(t, c.AddItem(snapshot(a), 2))
	require.NoError(t, c.AddItem(snapshot(b), 1))
	require.NoError(t, repo.Save(ctx, c))

	loaded, err := repo.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "Alpha", loaded.Items[0].Name)

	require.NoError(t, loaded.RemoveItem(a.ID))
	require.NoError(t, repo.Save(ctx, loaded))

	loaded, err = repo.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, b.ID, loaded.Items[0].ProductID)

	require.NoError(t, repo.ClearByUser(ctx, u.ID))
	loaded, err = repo.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func snapshot(p *catalog.Product) cart.ProductSnapshot {
	return cart.ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Image:     p.PrimaryImage(),
		UnitPrice: p.EffectivePrice(),
		Stock:     p.Stock,
		Active:    p.IsActive,
	}
}
