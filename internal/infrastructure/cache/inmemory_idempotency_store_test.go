package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("claims new key", func(t *testing.T) {
		ok, err := store.MarkProcessed(ctx, "k1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("second claim loses", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "k2", time.Hour)
		require.NoError(t, err)

		ok, err := store.MarkProcessed(ctx, "k2", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired key can be claimed again", func(t *testing.T) {
		now := time.Now()
		store.now = func() time.Time { return now }
		defer func() { store.now = time.Now }()

		_, err := store.MarkProcessed(ctx, "k3", time.Minute)
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		ok, err := store.MarkProcessed(ctx, "k3", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "order:abc", time.Hour)
	require.NoError(t, err)

	held, err := store.IsProcessed(ctx, "order:abc")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, store.Release(ctx, "order:abc"))

	held, err = store.IsProcessed(ctx, "order:abc")
	require.NoError(t, err)
	assert.False(t, held)

	ok, err := store.MarkProcessed(ctx, "order:abc", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	now = now.Add(time.Minute)
	store.sweep()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.MarkProcessed(ctx, "same", time.Hour); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
