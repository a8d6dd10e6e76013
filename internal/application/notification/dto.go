package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/notification"
)

// ListFilter represents notification list query parameters
type ListFilter struct {
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100"`
	UnreadOnly bool `form:"unread_only"`
}

// BroadcastRequest sends one notification to every active user, or every user with Role
type BroadcastRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
	Body  string `json:"body" binding:"omitempty,max=2000"`
	Link  string `json:"link" binding:"omitempty,max=500"`
	Role  string `json:"role" binding:"omitempty,oneof=customer admin"`
}

// BroadcastResult reports how many users were notified
type BroadcastResult struct {
	Recipients int `json:"recipients"`
}

// UnreadCountResponse is the badge count
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// Response represents a notification in API responses
type Response struct {
	ID        uuid.UUID         `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Link      string            `json:"link,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ToResponse converts a domain notification to a response
func ToResponse(n *notification.Notification) Response {
	return Response{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		Data:      n.Data,
		Read:      n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
