package handler_test

import (
	"net/http"
	"testing"

	adminapp "github.com/shopfront/backend/internal/application/admin"
	cartapp "github.com/shopfront/backend/internal/application/cart"
	eventapp "github.com/shopfront/backend/internal/application/event"
	"github.com/shopfront/backend/internal/application/identity"
	messagingapp "github.com/shopfront/backend/internal/application/messaging"
	notificationapp "github.com/shopfront/backend/internal/application/notification"
	wishlistapp "github.com/shopfront/backend/internal/application/wishlist"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRoutes(t *testing.T) {
	s := newShop(t)

	var started messagingapp.StartConversationResponse
	s.expect(http.StatusCreated, http.MethodPost, "/api/v1/conversations", map[string]any{
		"subject": "Where is my parcel?", "message": "Order has not arrived yet",
	}, s.customer.AccessToken, &started)
	id := started.Conversation.ID.String()
	assert.Equal(t, "open", started.Conversation.Status)
	assert.Equal(t, 1, started.Conversation.UnreadByAdmin)

	t.Run("admin sees every thread", func(t *testing.T) {
		var threads []messagingapp.ConversationResponse
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/conversations", nil, s.admin.AccessToken, &threads)
		require.Len(t, threads, 1)
		assert.Equal(t, "Where is my parcel?", threads[0].Subject)
	})

	t.Run("other customers cannot see the thread", func(t *testing.T) {
		other := s.signUp("Olive", "olive@shop.test")
		s.expect(http.StatusNotFound, http.MethodGet, "/api/v1/conversations/"+id, nil, other.AccessToken, nil)

		var threads []messagingapp.ConversationResponse
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/conversations", nil, other.AccessToken, &threads)
		assert.Empty(t, threads)
	})

	t.Run("reply and read", func(t *testing.T) {
		var reply messagingapp.MessageResponse
		s.expect(http.StatusCreated, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]any{
			"body": "It ships tomorrow",
		}, s.admin.AccessToken, &reply)
		assert.Equal(t, "admin", reply.SenderRole)

		var thread messagingapp.ConversationResponse
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/conversations/"+id, nil, s.customer.AccessToken, &thread)
		assert.Equal(t, 1, thread.UnreadByCustomer)
		assert.Equal(t, "It ships tomorrow", thread.LastMessagePreview)

		s.expect(http.StatusOK, http.MethodPost, "/api/v1/conversations/"+id+"/read", nil, s.customer.AccessToken, &thread)
		assert.Zero(t, thread.UnreadByCustomer)

		var messages []messagingapp.MessageResponse
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/conversations/"+id+"/messages", nil, s.customer.AccessToken, &messages)
		assert.Len(t, messages, 2)
	})

	t.Run("closed threads reject messages until reopened", func(t *testing.T) {
		s.expect(http.StatusOK, http.MethodPost, "/api/v1/conversations/"+id+"/close", nil, s.customer.AccessToken, nil)

		env := s.expect(http.StatusUnprocessableEntity, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]any{
			"body": "One more thing",
		}, s.customer.AccessToken, nil)
		assert.Equal(t, dto.ErrCodeInvalidState, env.Error.Code)

		s.expect(http.StatusUnprocessableEntity, http.MethodPost, "/api/v1/conversations/"+id+"/close", nil, s.admin.AccessToken, nil)
		s.expect(http.StatusOK, http.MethodPost, "/api/v1/conversations/"+id+"/reopen", nil, s.admin.AccessToken, nil)
		s.expect(http.StatusCreated, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]any{
			"body": "One more thing",
		}, s.customer.AccessToken, nil)
	})
}

func TestNotificationRoutes(t *testing.T) {
	s := newShop(t)
	token := s.customer.AccessToken

	var result notificationapp.BroadcastResult
	s.expect(http.StatusOK, http.MethodPost, "/api/v1/admin/notifications/broadcast", map[string]any{
		"title": "Summer sale", "body": "Everything 20% off", "role": "customer",
	}, s.admin.AccessToken, &result)
	assert.Equal(t, 1, result.Recipients)

	s.expect(http.StatusOK, http.MethodPost, "/api/v1/admin/notifications/broadcast", map[string]any{
		"title": "Store maintenance",
	}, s.admin.AccessToken, &result)
	assert.Equal(t, 2, result.Recipients)

	var unread notificationapp.UnreadCountResponse
	s.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications/unread-count", nil, token, &unread)
	assert.Equal(t, int64(2), unread.Unread)

	var inbox []notificationapp.Response
	env := s.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications", nil, token, &inbox)
	require.Len(t, inbox, 2)
	assert.Equal(t, int64(2), env.Meta.Total)

	s.expect(http.StatusNoContent, http.MethodPost, "/api/v1/notifications/"+inbox[0].ID.String()+"/read", nil, token, nil)
	s.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications/unread-count", nil, token, &unread)
	assert.Equal(t, int64(1), unread.Unread)

	var marked handler.CountData
	s.expect(http.StatusOK, http.MethodPost, "/api/v1/notifications/read-all", nil, token, &marked)
	assert.Equal(t, int64(1), marked.Count)

	t.Run("users only delete their own", func(t *testing.T) {
		s.expect(http.StatusNotFound, http.MethodDelete, "/api/v1/notifications/"+inbox[1].ID.String(), nil, s.admin.AccessToken, nil)
		s.expect(http.StatusNoContent, http.MethodDelete, "/api/v1/notifications/"+inbox[1].ID.String(), nil, token, nil)
	})

	t.Run("websocket without a hub", func(t *testing.T) {
		s.expect(http.StatusServiceUnavailable, http.MethodGet, "/api/v1/ws?token="+token, nil, "", nil)
	})
}

func TestWishlistRoutes(t *testing.T) {
	s := newShop(t)
	shoe := s.addProduct("Trail Runner", "49.99", 4)
	token := s.customer.AccessToken

	var list wishlistapp.Response
	s.expect(http.StatusOK, http.MethodPost, "/api/v1/wishlist/items", map[string]any{"product_id": shoe.ID}, token, &list)
	s.expect(http.StatusOK, http.MethodPost, "/api/v1/wishlist/items", map[string]any{"product_id": shoe.ID}, token, &list)
	assert.Equal(t, 1, list.Count)

	var cart cartapp.CartResponse
	s.expect(http.StatusOK, http.MethodPost, "/api/v1/wishlist/items/"+shoe.ID.String()+"/move-to-cart", nil, token, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	s.expect(http.StatusOK, http.MethodGet, "/api/v1/wishlist", nil, token, &list)
	assert.Zero(t, list.Count)

	s.expect(http.StatusNotFound, http.MethodPost, "/api/v1/wishlist/items/"+shoe.ID.String()+"/move-to-cart", nil, token, nil)
	s.expect(http.StatusNotFound, http.MethodPost, "/api/v1/wishlist/items", map[string]any{
		"product_id": s.categoryID,
	}, token, nil)

	s.expect(http.StatusOK, http.MethodPost, "/api/v1/wishlist/items", map[string]any{"product_id": shoe.ID}, token, nil)
	s.expect(http.StatusNoContent, http.MethodDelete, "/api/v1/wishlist", nil, token, nil)
	s.expect(http.StatusOK, http.MethodGet, "/api/v1/wishlist", nil, token, &list)
	assert.Zero(t, list.Count)
}

func TestAdminUserManagement(t *testing.T) {
	s := newShop(t)
	customerPath := "/api/v1/admin/users/" + s.customer.UserID.String()

	var users []identity.UserDTO
	s.expect(http.StatusOK, http.MethodGet, "/api/v1/admin/users?role=customer", nil, s.admin.AccessToken, &users)
	require.Len(t, users, 1)
	assert.Equal(t, s.customer.UserID, users[0].ID)

	t.Run("admins cannot lock themselves out", func(t *testing.T) {
		self := "/api/v1/admin/users/" + s.admin.UserID.String()
		s.expect(http.StatusForbidden, http.MethodPost, self+"/block", nil, s.admin.AccessToken, nil)
		s.expect(http.StatusForbidden, http.MethodPut, self+"/role", map[string]any{"role": "customer"}, s.admin.AccessToken, nil)
		s.expect(http.StatusForbidden, http.MethodDelete, self, nil, s.admin.AccessToken, nil)
	})

	t.Run("blocked users cannot sign in", func(t *testing.T) {
		var blocked identity.UserDTO
		s.expect(http.StatusOK, http.MethodPost, customerPath+"/block", nil, s.admin.AccessToken, &blocked)
		assert.Equal(t, "blocked", blocked.Status)

		s.expect(http.StatusForbidden, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"email": "carl@shop.test", "password": testPassword,
		}, "", nil)

		s.expect(http.StatusOK, http.MethodPost, customerPath+"/unblock", nil, s.admin.AccessToken, &blocked)
		assert.Equal(t, "active", blocked.Status)
		s.expect(http.StatusOK, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"email": "carl@shop.test", "password": testPassword,
		}, "", nil)
	})

	t.Run("promote and delete", func(t *testing.T) {
		var promoted identity.UserDTO
		s.expect(http.StatusOK, http.MethodPut, customerPath+"/role", map[string]any{"role": "admin"}, s.admin.AccessToken, &promoted)
		assert.Equal(t, "admin", promoted.Role)

		s.expect(http.StatusNoContent, http.MethodDelete, customerPath, nil, s.admin.AccessToken, nil)
		s.expect(http.StatusNotFound, http.MethodGet, customerPath, nil, s.admin.AccessToken, nil)
	})
}

func TestAdminReports(t *testing.T) {
	s := newShop(t)
	shoe := s.addProduct("Trail Runner", "50.00", 10)
	placed := s.placeOrder(shoe.ID, 2, "cod")
	for _, status := range []string{"processing", "shipped", "delivered"} {
		s.expect(http.StatusOK, http.MethodPut, "/api/v1/admin/orders/"+placed.ID.String()+"/status", map[string]any{
			"status": status,
		}, s.admin.AccessToken, nil)
	}
	s.placeOrder(shoe.ID, 1, "cod")

	t.Run("dashboard", func(t *testing.T) {
		var dashboard adminapp.Dashboard
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/admin/dashboard", nil, s.admin.AccessToken, &dashboard)
		assert.Equal(t, int64(2), dashboard.TotalUsers)
		assert.Equal(t, int64(1), dashboard.TotalProducts)
		assert.Equal(t, int64(2), dashboard.TotalOrders)
		assert.Equal(t, int64(1), dashboard.OrdersByStatus["delivered"])
		assert.Equal(t, int64(1), dashboard.OrdersByStatus["pending"])
		assert.True(t, dashboard.Revenue.Equal(placed.TotalPrice), "revenue %s", dashboard.Revenue)
	})

	t.Run("sales report validates the range", func(t *testing.T) {
		s.expect(http.StatusBadRequest, http.MethodGet, "/api/v1/admin/reports/sales", nil, s.admin.AccessToken, nil)

		env := s.expect(http.StatusBadRequest, http.MethodGet, "/api/v1/admin/reports/sales?from=2026-02-01&to=2026-01-01", nil, s.admin.AccessToken, nil)
		assert.Equal(t, "ERR_INVALID_DATE_RANGE", env.Error.Code)
	})

	t.Run("outbox stats", func(t *testing.T) {
		var stats eventapp.OutboxStatsDTO
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/admin/outbox/stats", nil, s.admin.AccessToken, &stats)

		var dead eventapp.OutboxListResult
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/admin/outbox/dead", nil, s.admin.AccessToken, &dead)
		assert.Empty(t, dead.Entries)

		s.expect(http.StatusForbidden, http.MethodGet, "/api/v1/admin/outbox/stats", nil, s.customer.AccessToken, nil)
	})
}
