package event

import (
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/order"
)

// RegisterAllEvents registers every domain event written to the outbox
func RegisterAllEvents(s *EventSerializer) {
	// identity
	s.Register(identity.EventTypeUserRegistered, &identity.UserRegisteredEvent{})
	s.Register(identity.EventTypeUserRoleChanged, &identity.UserRoleChangedEvent{})
	s.Register(identity.EventTypePasswordResetRequested, &identity.PasswordResetRequestedEvent{})

	// catalog
	s.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	s.Register(catalog.EventTypeProductStockAdjusted, &catalog.ProductStockAdjustedEvent{})
	s.Register(catalog.EventTypeProductStockLow, &catalog.ProductStockLowEvent{})

	// order
	s.Register(order.EventTypeOrderPlaced, &order.OrderPlacedEvent{})
	s.Register(order.EventTypeOrderStatusChanged, &order.OrderStatusChangedEvent{})
	s.Register(order.EventTypeOrderPaid, &order.OrderPaidEvent{})

	// messaging
	s.Register(messaging.EventTypeMessageSent, &messaging.MessageSentEvent{})
}
