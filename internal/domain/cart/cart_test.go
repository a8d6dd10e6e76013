package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(price int64, stock int) ProductSnapshot {
	return ProductSnapshot{
		ID:        uuid.New(),
		Name:      "Mug",
		UnitPrice: decimal.NewFromInt(price),
		Stock:     stock,
		Active:    true,
	}
}

func TestCart_AddItem(t *testing.T) {
	t.Run("merges lines for the same product", func(t *testing.T) {
		c := NewCart(uuid.New())
		p := snapshot(10, 50)

		require.NoError(t, c.AddItem(p, 2))
		require.NoError(t, c.AddItem(p, 3))

		require.Len(t, c.Items, 1)
		assert.Equal(t, 5, c.Items[0].Quantity)
		assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(50)))
	})

	t.Run("combined quantity must fit stock", func(t *testing.T) {
		c := NewCart(uuid.New())
		p := snapshot(10, 4)

		require.NoError(t, c.AddItem(p, 3))
		err := c.AddItem(p, 2)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 3, c.Items[0].Quantity)
	})

	t.Run("caps a line at 99", func(t *testing.T) {
		c := NewCart(uuid.New())
		err := c.AddItem(snapshot(1, 500), 100)
		assert.ErrorContains(t, err, "99")
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		c := NewCart(uuid.New())
		p := snapshot(1, 5)
		p.Active = false
		assert.ErrorIs(t, c.AddItem(p, 1), shared.ErrNotFound)
	})
}

func TestCart_UpdateAndRemove(t *testing.T) {
	c := NewCart(uuid.New())
	p := snapshot(10, 5)
	require.NoError(t, c.AddItem(p, 1))

	require.NoError(t, c.UpdateItem(p, 4))
	assert.Equal(t, 4, c.ItemCount())

	assert.ErrorIs(t, c.UpdateItem(p, 6), shared.ErrInsufficientStock)

	require.NoError(t, c.UpdateItem(p, 0))
	assert.Empty(t, c.Items)

	assert.ErrorIs(t, c.RemoveItem(p.ID), shared.ErrNotFound)
}

func TestCart_Reconcile(t *testing.T) {
	c := NewCart(uuid.New())
	kept := snapshot(10, 10)
	deleted := snapshot(5, 10)
	inactive := snapshot(5, 10)
	clamped := snapshot(5, 10)
	require.NoError(t, c.AddItem(kept, 2))
	require.NoError(t, c.AddItem(deleted, 1))
	require.NoError(t, c.AddItem(inactive, 1))
	require.NoError(t, c.AddItem(clamped, 8))

	kept.UnitPrice = decimal.NewFromInt(12)
	inactive.Active = false
	clamped.Stock = 3

	changed := c.Reconcile(map[uuid.UUID]ProductSnapshot{
		kept.ID:     kept,
		inactive.ID: inactive,
		clamped.ID:  clamped,
	})

	assert.True(t, changed)
	require.Len(t, c.Items, 2)
	line, ok := c.FindItem(kept.ID)
	require.True(t, ok)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(12)))
	line, ok = c.FindItem(clamped.ID)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)

	assert.False(t, c.Reconcile(map[uuid.UUID]ProductSnapshot{kept.ID: kept, clamped.ID: clamped}))
}
