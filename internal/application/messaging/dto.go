package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/messaging"
)

// StartConversationRequest opens a support thread
type StartConversationRequest struct {
	Subject string `json:"subject" binding:"required,min=1,max=200"`
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

// SendMessageRequest posts a message to a thread
type SendMessageRequest struct {
	Body string `json:"body" binding:"required,min=1,max=2000"`
}

// ConversationListFilter represents conversation list query parameters
type ConversationListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=open closed"`
}

// MessageListFilter pages through a thread
type MessageListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ConversationResponse represents a conversation in API responses
type ConversationResponse struct {
	ID                 uuid.UUID  `json:"id"`
	CustomerID         uuid.UUID  `json:"customer_id"`
	Subject            string     `json:"subject"`
	Status             string     `json:"status"`
	LastMessagePreview string     `json:"last_message_preview"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	UnreadByCustomer   int        `json:"unread_by_customer"`
	UnreadByAdmin      int        `json:"unread_by_admin"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	SenderRole     string     `json:"sender_role"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// StartConversationResponse carries the new thread and its first message
type StartConversationResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Message      MessageResponse      `json:"message"`
}

// ToConversationResponse converts a domain conversation to a response
func ToConversationResponse(c *messaging.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:                 c.ID,
		CustomerID:         c.CustomerID,
		Subject:            c.Subject,
		Status:             string(c.Status),
		LastMessagePreview: c.LastMessagePreview,
		LastMessageAt:      c.LastMessageAt,
		UnreadByCustomer:   c.UnreadByCustomer,
		UnreadByAdmin:      c.UnreadByAdmin,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ToMessageResponse converts a domain message to a response
func ToMessageResponse(m *messaging.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     string(m.SenderRole),
		Body:           m.Body,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}
