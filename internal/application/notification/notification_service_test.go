package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/notification"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pushed struct {
	userID    uuid.UUID
	frameType string
	data      any
}

type recordingPusher struct {
	mu     sync.Mutex
	frames []pushed
}

func (p *recordingPusher) Push(_ context.Context, userID uuid.UUID, frameType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, pushed{userID: userID, frameType: frameType, data: data})
}

func (p *recordingPusher) recipients() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uuid.UUID, len(p.frames))
	for i, f := range p.frames {
		out[i] = f.userID
	}
	return out
}

func TestService_Broadcast(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.NotificationRepository)
	users := new(mocks.UserRepository)
	pusher := &recordingPusher{}
	svc := NewService(repo, users, pusher, ServiceConfig{BatchSize: 2}, zap.NewNop())

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	users.On("FindActiveIDsByRole", ctx, identity.RoleCustomer).Return(ids, nil)
	repo.On("CreateBatch", ctx, mock.AnythingOfType("[]*notification.Notification")).Return(nil)

	result, err := svc.Broadcast(ctx, BroadcastRequest{Title: "Sale", Body: "20% off", Role: "customer"})

	require.NoError(t, err)
	assert.Equal(t, 5, result.Recipients)
	repo.AssertNumberOfCalls(t, "CreateBatch", 3)
	assert.ElementsMatch(t, ids, pusher.recipients())
}

func TestService_Broadcast_StopsOnFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.NotificationRepository)
	users := new(mocks.UserRepository)
	pusher := &recordingPusher{}
	svc := NewService(repo, users, pusher, ServiceConfig{BatchSize: 2}, zap.NewNop())

	users.On("FindActiveIDsByRole", ctx, identity.Role("")).Return([]uuid.UUID{uuid.New(), uuid.New(), uuid.New()}, nil)
	repo.On("CreateBatch", ctx, mock.Anything).Return(nil).Once()
	repo.On("CreateBatch", ctx, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := svc.Broadcast(ctx, BroadcastRequest{Title: "Sale"})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Len(t, pusher.recipients(), 2)
}

func TestService_Notify(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.NotificationRepository)
	pusher := &recordingPusher{}
	svc := NewService(repo, new(mocks.UserRepository), pusher, ServiceConfig{}, zap.NewNop())
	userID := uuid.New()
	repo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Return(nil)

	require.NoError(t, svc.Notify(ctx, userID, notification.TypeAccount, "Hello", "", "", nil))

	require.Len(t, pusher.frames, 1)
	assert.Equal(t, FrameNotification, pusher.frames[0].frameType)
	resp, ok := pusher.frames[0].data.(Response)
	require.True(t, ok)
	assert.Equal(t, "Hello", resp.Title)
	assert.False(t, resp.Read)

	err := svc.Notify(ctx, userID, notification.Type("bogus"), "Hello", "", "", nil)
	assert.Error(t, err)
	assert.Len(t, pusher.frames, 1)
}

func TestService_OwnerScopedOperations(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.NotificationRepository)
	svc := NewService(repo, new(mocks.UserRepository), nil, ServiceConfig{}, zap.NewNop())
	userID := uuid.New()
	id := uuid.New()

	repo.On("MarkRead", ctx, userID, id, mock.AnythingOfType("time.Time")).Return(shared.ErrNotFound)
	repo.On("MarkAllRead", ctx, userID, mock.AnythingOfType("time.Time")).Return(int64(3), nil)
	repo.On("Delete", ctx, userID, id).Return(nil)
	repo.On("CountUnread", ctx, userID).Return(int64(0), nil)

	assert.True(t, errors.Is(svc.MarkRead(ctx, userID, id), shared.ErrNotFound))

	n, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, svc.Delete(ctx, userID, id))

	count, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count.Unread)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.NotificationRepository)
	svc := NewService(repo, new(mocks.UserRepository), nil, ServiceConfig{}, zap.NewNop())
	userID := uuid.New()
	n, err := notification.New(userID, notification.TypeAccount, "Hi", "", "", nil)
	require.NoError(t, err)
	repo.On("FindByUser", ctx, userID, true, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == shared.DefaultPageSize
	})).Return([]notification.Notification{*n}, int64(1), nil)

	page, err := svc.List(ctx, userID, ListFilter{UnreadOnly: true})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "account", page.Items[0].Type)
}

func TestService_Purge(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.NotificationRepository)
	svc := NewService(repo, new(mocks.UserRepository), nil, ServiceConfig{Retention: 24 * time.Hour}, zap.NewNop())
	fixed := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	repo.On("DeleteReadOlderThan", ctx, fixed.Add(-24*time.Hour)).Return(int64(7), nil)

	n, err := svc.Purge(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
