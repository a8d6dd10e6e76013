package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// ConversationFilter narrows conversation listings
type ConversationFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     ConversationStatus
}

// Repository defines the interface for conversation and message persistence
type Repository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	UpdateConversation(ctx context.Context, c *Conversation) error
	FindConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	FindConversations(ctx context.Context, filter ConversationFilter) ([]Conversation, int64, error)

	CreateMessage(ctx context.Context, m *Message) error

	// FindMessages returns messages oldest first
	FindMessages(ctx context.Context, conversationID uuid.UUID, filter shared.Filter) ([]Message, int64, error)

	// MarkMessagesRead stamps unread messages from senderRole
	MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, senderRole SenderRole, at time.Time) error
}
