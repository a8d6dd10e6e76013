package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/wishlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormWishlistRepository_AddIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWishlistRepository(db)
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()

	require.NoError(t, repo.Add(ctx, wishlist.NewItem(userID, productID)))
	require.NoError(t, repo.Add(ctx, wishlist.NewItem(userID, productID)))

	count, err := repo.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, userID, productID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Remove(ctx, userID, productID))
	assert.ErrorIs(t, repo.Remove(ctx, userID, productID), shared.ErrNotFound)

	require.NoError(t, repo.Add(ctx, wishlist.NewItem(userID, uuid.New())))
	require.NoError(t, repo.Clear(ctx, userID))
	items, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
