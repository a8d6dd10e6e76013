package messaging

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeConversation = "Conversation"

// EventTypeMessageSent is emitted for every new message
const EventTypeMessageSent = "MessageSent"

// MessageSentEvent notifies the counterpart of a new message
type MessageSentEvent struct {
	shared.BaseDomainEvent
	ConversationID uuid.UUID  `json:"conversation_id"`
	MessageID      uuid.UUID  `json:"message_id"`
	CustomerID     uuid.UUID  `json:"customer_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	SenderRole     SenderRole `json:"sender_role"`
	Subject        string     `json:"subject"`
	Preview        string     `json:"preview"`
}

// NewMessageSentEvent creates a new MessageSentEvent
func NewMessageSentEvent(c *Conversation, m *Message) *MessageSentEvent {
	return &MessageSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessageSent, AggregateTypeConversation, c.ID),
		ConversationID:  c.ID,
		MessageID:       m.ID,
		CustomerID:      c.CustomerID,
		SenderID:        m.SenderID,
		SenderRole:      m.SenderRole,
		Subject:         c.Subject,
		Preview:         c.LastMessagePreview,
	}
}
