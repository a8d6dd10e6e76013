package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Type classifies a notification
type Type string

const (
	TypeOrderPlaced Type = "order_placed"
	TypeOrderStatus Type = "order_status"
	TypeOrderPaid   Type = "order_paid"
	TypeMessage     Type = "message"
	TypeLowStock    Type = "low_stock"
	TypeAccount     Type = "account"
	TypeBroadcast   Type = "broadcast"
)

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeOrderPlaced, TypeOrderStatus, TypeOrderPaid, TypeMessage, TypeLowStock, TypeAccount, TypeBroadcast:
		return true
	}
	return false
}

// Notification is an in-app message for one user
type Notification struct {
	shared.BaseEntity
	UserID uuid.UUID         `gorm:"type:uuid;not null;index:idx_notification_user_read,priority:1" json:"user_id"`
	Type   Type              `gorm:"type:varchar(30);not null" json:"type"`
	Title  string            `gorm:"type:varchar(200);not null" json:"title"`
	Body   string            `gorm:"type:text" json:"body"`
	Link   string            `gorm:"type:varchar(500)" json:"link,omitempty"`
	Data   map[string]string `gorm:"type:text;serializer:json" json:"data,omitempty"`
	ReadAt *time.Time        `gorm:"index:idx_notification_user_read,priority:2" json:"read_at,omitempty"`
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// New creates an unread notification
func New(userID uuid.UUID, typ Type, title, body, link string, data map[string]string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Notification recipient is required")
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown notification type")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Notification title cannot be empty")
	}
	if len(title) > 200 {
		title = title[:200]
	}
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Type:       typ,
		Title:      title,
		Body:       strings.TrimSpace(body),
		Link:       link,
		Data:       data,
	}, nil
}

// IsRead reports whether the user has seen it
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkRead stamps the read time once
func (n *Notification) MarkRead() {
	if n.ReadAt != nil {
		return
	}
	now := time.Now().UTC()
	n.ReadAt = &now
}
