package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/notification"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormNotificationRepository_OwnerScoped(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormNotificationRepository(db)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	var batch []*notification.Notification
	for i := 0; i < 3; i++ {
		n, err := notification.New(owner, notification.TypeBroadcast, "Sale", "Everything 10% off", "", map[string]string{"i": "x"})
		require.NoError(t, err)
		batch = append(batch, n)
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	unread, err := repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	assert.ErrorIs(t, repo.MarkRead(ctx, stranger, batch[0].ID, time.Now()), shared.ErrNotFound)
	require.NoError(t, repo.MarkRead(ctx, owner, batch[0].ID, time.Now()))
	require.NoError(t, repo.MarkRead(ctx, owner, batch[0].ID, time.Now()))

	items, total, err := repo.FindByUser(ctx, owner, true, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
	assert.Equal(t, "x", items[0].Data["i"])

	n, err := repo.MarkAllRead(ctx, owner, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.ErrorIs(t, repo.Delete(ctx, stranger, batch[1].ID), shared.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, owner, batch[1].ID))

	purged, err := repo.DeleteReadOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
}
