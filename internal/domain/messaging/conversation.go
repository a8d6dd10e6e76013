package messaging

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// MaxBodyLength is the longest message body accepted
const MaxBodyLength = 2000

const previewLength = 120

// ConversationStatus is open or closed
type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// SenderRole distinguishes customer and support messages
type SenderRole string

const (
	SenderCustomer SenderRole = "customer"
	SenderAdmin    SenderRole = "admin"
)

// Conversation is a support thread between one customer and the admins
type Conversation struct {
	shared.BaseAggregateRoot
	CustomerID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	Subject            string             `gorm:"type:varchar(200);not null"`
	Status             ConversationStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	LastMessagePreview string             `gorm:"type:varchar(200)"`
	LastMessageAt      *time.Time         `gorm:"index"`
	UnreadByCustomer   int                `gorm:"not null;default:0"`
	UnreadByAdmin      int                `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Conversation) TableName() string {
	return "conversations"
}

// Message is one entry in a conversation
type Message struct {
	shared.BaseEntity
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null"`
	SenderRole     SenderRole `gorm:"type:varchar(20);not null"`
	Body           string     `gorm:"type:text;not null"`
	ReadAt         *time.Time
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// Participant identifies who acts on a conversation
type Participant struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Role returns the sender role of the participant
func (p Participant) Role() SenderRole {
	if p.IsAdmin {
		return SenderAdmin
	}
	return SenderCustomer
}

// StartConversation opens a thread with its first message
func StartConversation(customerID uuid.UUID, subject, body string) (*Conversation, *Message, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}
	if utf8.RuneCountInString(subject) > 200 {
		return nil, nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot exceed 200 characters")
	}

	c := &Conversation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Subject:           subject,
		Status:            ConversationOpen,
	}
	msg, err := c.Send(Participant{UserID: customerID}, body)
	if err != nil {
		return nil, nil, err
	}
	return c, msg, nil
}

// CanAccess reports whether the participant may read or act on the thread
func (c *Conversation) CanAccess(p Participant) bool {
	return p.IsAdmin || p.UserID == c.CustomerID
}

// Send appends a message from the participant and bumps the counterpart's unread count
func (c *Conversation) Send(from Participant, body string) (*Message, error) {
	if !c.CanAccess(from) {
		return nil, shared.ErrForbidden
	}
	if c.Status != ConversationOpen {
		return nil, shared.NewDomainError("INVALID_STATE", "Conversation is closed")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot be empty")
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot exceed 2000 characters")
	}

	msg := &Message{
		BaseEntity:     shared.NewBaseEntity(),
		ConversationID: c.ID,
		SenderID:       from.UserID,
		SenderRole:     from.Role(),
		Body:           body,
	}

	if from.IsAdmin {
		c.UnreadByCustomer++
	} else {
		c.UnreadByAdmin++
	}
	c.LastMessagePreview = preview(body)
	at := msg.CreatedAt
	c.LastMessageAt = &at
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewMessageSentEvent(c, msg))
	return msg, nil
}

// MarkRead zeroes the reader's unread counter. Returns the role whose
// messages should now be stamped as read.
func (c *Conversation) MarkRead(reader Participant) (SenderRole, error) {
	if !c.CanAccess(reader) {
		return "", shared.ErrForbidden
	}
	if reader.IsAdmin {
		c.UnreadByAdmin = 0
		c.Touch()
		return SenderCustomer, nil
	}
	c.UnreadByCustomer = 0
	c.Touch()
	return SenderAdmin, nil
}

// Close stops further messages
func (c *Conversation) Close(by Participant) error {
	if !c.CanAccess(by) {
		return shared.ErrForbidden
	}
	if c.Status == ConversationClosed {
		return shared.NewDomainError("INVALID_STATE", "Conversation is already closed")
	}
	c.Status = ConversationClosed
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Reopen allows messages again
func (c *Conversation) Reopen(by Participant) error {
	if !c.CanAccess(by) {
		return shared.ErrForbidden
	}
	if c.Status == ConversationOpen {
		return shared.NewDomainError("INVALID_STATE", "Conversation is already open")
	}
	c.Status = ConversationOpen
	c.Touch()
	c.IncrementVersion()
	return nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewLength]) + "…"
}
