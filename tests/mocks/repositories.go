// Package mocks holds testify mocks for the domain repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/notification"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/wishlist"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// UserRepository is a mock implementation of identity.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Update(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *UserRepository) FindByResetTokenHash(ctx context.Context, hash string) (*identity.User, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *UserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *UserRepository) FindActiveIDsByRole(ctx context.Context, role identity.Role) ([]uuid.UUID, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *UserRepository) CountByRole(ctx context.Context, role identity.Role) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

// CategoryRepository is a mock implementation of catalog.CategoryRepository
type CategoryRepository struct {
	mock.Mock
}

func (m *CategoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CategoryRepository) Update(ctx context.Context, c *catalog.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *CategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]catalog.Category), args.Get(1).(int64), args.Error(2)
}

func (m *CategoryRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *CategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// ProductRepository is a mock implementation of catalog.ProductRepository
type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *ProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *ProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepository) FindFeatured(ctx context.Context, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *ProductRepository) FindRelated(ctx context.Context, p *catalog.Product, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, p, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *ProductRepository) FindTopSellers(ctx context.Context, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *ProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *ProductRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, count int) error {
	return m.Called(ctx, id, rating, count).Error(0)
}

func (m *ProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProductRepository) CountLowStock(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// ReviewRepository is a mock implementation of catalog.ReviewRepository
type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) Create(ctx context.Context, r *catalog.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Review), args.Error(1)
}

func (m *ReviewRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]catalog.Review, int64, error) {
	args := m.Called(ctx, productID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]catalog.Review), args.Get(1).(int64), args.Error(2)
}

func (m *ReviewRepository) ExistsByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ReviewRepository) Stats(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

// CartRepository is a mock implementation of cart.CartRepository
type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CartRepository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// OrderRepository is a mock implementation of order.Repository
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *OrderRepository) FindByUserAndIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *OrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepository) FindStalePending(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *OrderRepository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[order.Status]int64), args.Error(1)
}

func (m *OrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *OrderRepository) FindRecent(ctx context.Context, limit int) ([]order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *OrderRepository) DailySales(ctx context.Context, from, to time.Time) ([]order.DailySales, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.DailySales), args.Error(1)
}

// ConversationRepository is a mock implementation of messaging.Repository
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) CreateConversation(ctx context.Context, c *messaging.Conversation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *ConversationRepository) UpdateConversation(ctx context.Context, c *messaging.Conversation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *ConversationRepository) FindConversation(ctx context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*messaging.Conversation), args.Error(1)
}

func (m *ConversationRepository) FindConversations(ctx context.Context, filter messaging.ConversationFilter) ([]messaging.Conversation, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]messaging.Conversation), args.Get(1).(int64), args.Error(2)
}

func (m *ConversationRepository) CreateMessage(ctx context.Context, msg *messaging.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *ConversationRepository) FindMessages(ctx context.Context, conversationID uuid.UUID, filter shared.Filter) ([]messaging.Message, int64, error) {
	args := m.Called(ctx, conversationID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]messaging.Message), args.Get(1).(int64), args.Error(2)
}

func (m *ConversationRepository) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, senderRole messaging.SenderRole, at time.Time) error {
	return m.Called(ctx, conversationID, senderRole, at).Error(0)
}

// NotificationRepository is a mock implementation of notification.Repository
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *NotificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	return m.Called(ctx, ns).Error(0)
}

func (m *NotificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, filter shared.Filter) ([]notification.Notification, int64, error) {
	args := m.Called(ctx, userID, unreadOnly, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]notification.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, userID, id, at).Error(0)
}

func (m *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *NotificationRepository) DeleteReadOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// WishlistRepository is a mock implementation of wishlist.Repository
type WishlistRepository struct {
	mock.Mock
}

func (m *WishlistRepository) Add(ctx context.Context, item *wishlist.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *WishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *WishlistRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *WishlistRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]wishlist.Item, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wishlist.Item), args.Error(1)
}

func (m *WishlistRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *WishlistRepository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// OutboxRepository is a mock implementation of shared.OutboxRepository
type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *OutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *OutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *OutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Get(1).(int64), args.Error(2)
}

func (m *OutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.OutboxEntry), args.Error(1)
}

func (m *OutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *OutboxRepository) ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	args := m.Called(ctx, claimedBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *OutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OutboxRepository) ResetAllDead(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[shared.OutboxStatus]int64), args.Error(1)
}

// Compile-time interface checks
var (
	_ identity.UserRepository    = (*UserRepository)(nil)
	_ catalog.CategoryRepository = (*CategoryRepository)(nil)
	_ catalog.ProductRepository  = (*ProductRepository)(nil)
	_ catalog.ReviewRepository   = (*ReviewRepository)(nil)
	_ cart.CartRepository        = (*CartRepository)(nil)
	_ order.Repository           = (*OrderRepository)(nil)
	_ messaging.Repository       = (*ConversationRepository)(nil)
	_ notification.Repository    = (*NotificationRepository)(nil)
	_ wishlist.Repository        = (*WishlistRepository)(nil)
	_ shared.OutboxRepository    = (*OutboxRepository)(nil)
)
