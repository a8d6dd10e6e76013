package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutboxEntry(t *testing.T, eventType string) *shared.OutboxEntry {
	t.Helper()
	ev := testutil.NewTestEvent(eventType, "payload")
	return shared.NewOutboxEntry(ev, []byte(`{"data":"payload"}`))
}

func TestGormOutboxRepository_SaveAndClaim(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &shared.OutboxEntry{})
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	first := newOutboxEntry(t, "A")
	second := newOutboxEntry(t, "B")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, first, second))
	require.NoError(t, repo.Save(ctx))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	assert.Len(t, claimed, 2)

	again, err := repo.MarkProcessing(ctx, []uuid.UUID{first.ID})
	require.NoError(t, err)
	assert.Empty(t, again, "processing rows cannot be claimed twice")

	pending, err = repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGormOutboxRepository_RetryableAndDead(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &shared.OutboxEntry{})
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	failing := newOutboxEntry(t, "A")
	require.NoError(t, repo.Save(ctx, failing))
	failing.MarkFailed("boom")
	require.NoError(t, repo.Update(ctx, failing))

	due, err := repo.FindRetryable(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	notYet, err := repo.FindRetryable(ctx, time.Now().UTC().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, notYet)

	failing.MaxRetries = failing.RetryCount + 1
	failing.MarkFailed("boom again")
	require.True(t, failing.IsDead())
	require.NoError(t, repo.Update(ctx, failing))

	dead, total, err := repo.FindDead(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, dead, 1)
	assert.Equal(t, "boom again", dead[0].LastError)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusDead])

	n, err := repo.ResetAllDead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusPending, got.Status)
	assert.Zero(t, got.RetryCount)
}

func TestGormOutboxRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &shared.OutboxEntry{})
	_, err := NewGormOutboxRepository(db).FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOutboxRepository_DeleteOlderThan(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &shared.OutboxEntry{})
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	sent := newOutboxEntry(t, "A")
	keep := newOutboxEntry(t, "B")
	require.NoError(t, repo.Save(ctx, sent, keep))
	sent.MarkSent()
	require.NoError(t, repo.Update(ctx, sent))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestOutboxPublisher_SaveEvents(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &shared.OutboxEntry{})
	s := NewEventSerializer()
	pub := NewOutboxPublisher(s)
	ctx := context.Background()

	ev := testutil.NewTestEvent("OrderPlaced", "hello")
	require.NoError(t, pub.SaveEvents(ctx, db, ev))

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ev.EventID(), pending[0].EventID)
	assert.JSONEq(t, `"hello"`, string(mustField(t, pending[0].Payload, "data")))

	err = pub.SaveEvents(ctx, "not a tx", ev)
	assert.ErrorContains(t, err, "*gorm.DB")
}

func TestGormOutboxRepository_ReleaseStale(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &shared.OutboxEntry{})
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	stale := newOutboxEntry(t, "A")
	fresh := newOutboxEntry(t, "B")
	require.NoError(t, repo.Save(ctx, stale, fresh))
	_, err := repo.MarkProcessing(ctx, []uuid.UUID{stale.ID, fresh.ID})
	require.NoError(t, err)
	require.NoError(t, db.Model(&shared.OutboxEntry{}).Where("id = ?", stale.ID).
		Update("updated_at", time.Now().UTC().Add(-time.Hour)).Error)

	released, err := repo.ReleaseStale(ctx, time.Now().UTC().Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	due, err := repo.FindRetryable(ctx, time.Now().UTC().Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, stale.ID, due[0].ID)
	assert.Equal(t, shared.OutboxStatusFailed, due[0].Status)

	got, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusProcessing, got.Status)
}
