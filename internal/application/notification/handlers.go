package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/notification"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

func unexpectedEvent(logger *zap.Logger, event shared.DomainEvent) error {
	logger.Error("unexpected event type", zap.String("actual", event.EventType()))
	return fmt.Errorf("unexpected event type %s", event.EventType())
}

// CustomerOrderHandler tells customers about their orders in-app
type CustomerOrderHandler struct {
	notifications *Service
	logger        *zap.Logger
}

// NewCustomerOrderHandler creates a new CustomerOrderHandler
func NewCustomerOrderHandler(notifications *Service, logger *zap.Logger) *CustomerOrderHandler {
	return &CustomerOrderHandler{notifications: notifications, logger: logger}
}

func (h *CustomerOrderHandler) HandlerName() string { return "notification.customer_order" }

// EventTypes returns the event types this handler is interested in
func (h *CustomerOrderHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced, order.EventTypeOrderStatusChanged, order.EventTypeOrderPaid}
}

// Handle stores and pushes the customer notification
func (h *CustomerOrderHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		return h.notifications.Notify(ctx, e.UserID, notification.TypeOrderPlaced,
			fmt.Sprintf("Order %s placed", e.OrderNumber),
			fmt.Sprintf("We received your order of %s.", e.TotalPrice.StringFixed(2)),
			orderLink(e.OrderID.String()),
			map[string]string{"order_id": e.OrderID.String()})
	case *order.OrderStatusChangedEvent:
		body := fmt.Sprintf("Your order is now %s.", e.NewStatus)
		if e.Note != "" {
			body += " " + e.Note
		}
		return h.notifications.Notify(ctx, e.UserID, notification.TypeOrderStatus,
			fmt.Sprintf("Order %s %s", e.OrderNumber, e.NewStatus),
			body,
			orderLink(e.OrderID.String()),
			map[string]string{"order_id": e.OrderID.String(), "status": string(e.NewStatus)})
	case *order.OrderPaidEvent:
		return h.notifications.Notify(ctx, e.UserID, notification.TypeOrderPaid,
			fmt.Sprintf("Payment received for %s", e.OrderNumber),
			fmt.Sprintf("We received %s. Your order is being processed.", e.TotalPrice.StringFixed(2)),
			orderLink(e.OrderID.String()),
			map[string]string{"order_id": e.OrderID.String()})
	}
	return unexpectedEvent(h.logger, event)
}

// AdminAlertHandler tells admins about new orders and low stock
type AdminAlertHandler struct {
	notifications *Service
	logger        *zap.Logger
}

// NewAdminAlertHandler creates a new AdminAlertHandler
func NewAdminAlertHandler(notifications *Service, logger *zap.Logger) *AdminAlertHandler {
	return &AdminAlertHandler{notifications: notifications, logger: logger}
}

func (h *AdminAlertHandler) HandlerName() string { return "notification.admin_alert" }

// EventTypes returns the event types this handler is interested in
func (h *AdminAlertHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced, catalog.EventTypeProductStockLow}
}

// Handle notifies every active admin
func (h *AdminAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		return h.notifications.NotifyAdmins(ctx, notification.TypeOrderPlaced,
			fmt.Sprintf("New order %s", e.OrderNumber),
			fmt.Sprintf("%d line(s), total %s, paid by %s.", len(e.Items), e.TotalPrice.StringFixed(2), e.PaymentMethod),
			"/admin/orders/"+e.OrderID.String(),
			map[string]string{"order_id": e.OrderID.String()})
	case *catalog.ProductStockLowEvent:
		h.logger.Warn("Product stock low",
			zap.String("product_id", e.ProductID.String()),
			zap.Int("stock", e.Stock),
			zap.Int("threshold", e.Threshold))
		return h.notifications.NotifyAdmins(ctx, notification.TypeLowStock,
			fmt.Sprintf("Low stock: %s", e.Name),
			fmt.Sprintf("Only %d left (threshold %d).", e.Stock, e.Threshold),
			"/admin/products/"+e.ProductID.String(),
			map[string]string{"product_id": e.ProductID.String(), "stock": fmt.Sprint(e.Stock)})
	}
	return unexpectedEvent(h.logger, event)
}

// MessageHandler notifies the counterpart of a new support message
type MessageHandler struct {
	notifications *Service
	pusher        Pusher
	users         identity.UserRepository
	logger        *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(notifications *Service, users identity.UserRepository, pusher Pusher, logger *zap.Logger) *MessageHandler {
	if pusher == nil {
		pusher = noopPusher{}
	}
	return &MessageHandler{notifications: notifications, pusher: pusher, users: users, logger: logger}
}

func (h *MessageHandler) HandlerName() string { return "notification.message" }

// EventTypes returns the event types this handler is interested in
func (h *MessageHandler) EventTypes() []string {
	return []string{messaging.EventTypeMessageSent}
}

// Handle notifies the customer of an admin reply, or every admin of a customer message
func (h *MessageHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*messaging.MessageSentEvent)
	if !ok {
		return unexpectedEvent(h.logger, event)
	}

	link := "/messages/" + e.ConversationID.String()
	data := map[string]string{
		"conversation_id": e.ConversationID.String(),
		"message_id":      e.MessageID.String(),
	}
	frame := map[string]any{
		"conversation_id": e.ConversationID,
		"message_id":      e.MessageID,
		"sender_id":       e.SenderID,
		"sender_role":     e.SenderRole,
		"preview":         e.Preview,
	}

	if e.SenderRole == messaging.SenderAdmin {
		h.pusher.Push(ctx, e.CustomerID, FrameMessage, frame)
		return h.notifications.Notify(ctx, e.CustomerID, notification.TypeMessage,
			"New reply: "+e.Subject, e.Preview, link, data)
	}

	admins, err := h.users.FindActiveIDsByRole(ctx, identity.RoleAdmin)
	if err != nil {
		return err
	}
	for _, id := range admins {
		h.pusher.Push(ctx, id, FrameMessage, frame)
	}
	_, err = h.notifications.fanOut(ctx, admins, notification.TypeMessage,
		"New message: "+e.Subject, e.Preview, "/admin"+link, data)
	return err
}

// EmailHandler sends transactional email for account and order events
type EmailHandler struct {
	mailer    Mailer
	users     identity.UserRepository
	templates Templates
	logger    *zap.Logger
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(mailer Mailer, users identity.UserRepository, templates Templates, logger *zap.Logger) *EmailHandler {
	return &EmailHandler{mailer: mailer, users: users, templates: templates, logger: logger}
}

func (h *EmailHandler) HandlerName() string { return "notification.email" }

// EventTypes returns the event types this handler is interested in
func (h *EmailHandler) EventTypes() []string {
	return []string{
		identity.EventTypeUserRegistered,
		identity.EventTypePasswordResetRequested,
		order.EventTypeOrderPlaced,
		order.EventTypeOrderStatusChanged,
		order.EventTypeOrderPaid,
	}
}

// Handle renders and sends the email for the event
func (h *EmailHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var (
		email Email
		err   error
	)
	switch e := event.(type) {
	case *identity.UserRegisteredEvent:
		email = h.templates.Welcome(e)
	case *identity.PasswordResetRequestedEvent:
		email = h.templates.PasswordReset(e)
	case *order.OrderPlacedEvent:
		email, err = h.forCustomer(ctx, e.UserID, func(u *identity.User) Email {
			return h.templates.OrderConfirmation(u.Email, u.Name, e)
		}, e)
	case *order.OrderStatusChangedEvent:
		email, err = h.forCustomer(ctx, e.UserID, func(u *identity.User) Email {
			return h.templates.OrderStatus(u.Email, u.Name, e)
		}, e)
	case *order.OrderPaidEvent:
		email, err = h.forCustomer(ctx, e.UserID, func(u *identity.User) Email {
			return h.templates.Receipt(u.Email, u.Name, e)
		}, e)
	default:
		return unexpectedEvent(h.logger, event)
	}
	if err != nil {
		return err
	}
	if email.To == "" {
		return nil
	}

	if err := h.mailer.Send(ctx, email); err != nil {
		h.logger.Error("failed to send email",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
		return err
	}
	h.logger.Info("email sent",
		zap.String("event_type", event.EventType()),
		zap.String("subject", email.Subject))
	return nil
}

// forCustomer loads the recipient. A deleted user yields an empty email.
func (h *EmailHandler) forCustomer(ctx context.Context, userID uuid.UUID, render func(u *identity.User) Email, event shared.DomainEvent) (Email, error) {
	user, err := h.users.FindByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		h.logger.Warn("skipping email for deleted user",
			zap.String("user_id", userID.String()),
			zap.String("event_type", event.EventType()))
		return Email{}, nil
	}
	if err != nil {
		return Email{}, err
	}
	return render(user), nil
}

func orderLink(orderID string) string {
	return "/orders/" + orderID
}

var (
	_ shared.NamedEventHandler = (*CustomerOrderHandler)(nil)
	_ shared.NamedEventHandler = (*AdminAlertHandler)(nil)
	_ shared.NamedEventHandler = (*MessageHandler)(nil)
	_ shared.NamedEventHandler = (*EmailHandler)(nil)
)
