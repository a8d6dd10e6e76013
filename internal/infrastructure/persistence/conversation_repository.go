package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormConversationRepository implements messaging.Repository using GORM
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) CreateConversation(ctx context.Context, c *messaging.Conversation) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return err
	}
	c.MarkPersisted()
	return nil
}

func (r *GormConversationRepository) UpdateConversation(ctx context.Context, c *messaging.Conversation) error {
	return saveVersioned(ctx, r.db, c)
}

func (r *GormConversationRepository) FindConversation(ctx context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	var c messaging.Conversation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindConversations lists threads, most recent activity first by default
func (r *GormConversationRepository) FindConversations(ctx context.Context, filter messaging.ConversationFilter) ([]messaging.Conversation, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := searchAny(r.db.WithContext(ctx).Model(&messaging.Conversation{}), filter.Search, "subject")
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conversations []messaging.Conversation
	query = orderBy(query, filter.Filter, ConversationSortFields, "last_message_at")
	if err := paginate(query, filter.Filter).Find(&conversations).Error; err != nil {
		return nil, 0, err
	}
	return conversations, total, nil
}

func (r *GormConversationRepository) CreateMessage(ctx context.Context, m *messaging.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindMessages returns messages oldest first
func (r *GormConversationRepository) FindMessages(ctx context.Context, conversationID uuid.UUID, filter shared.Filter) ([]messaging.Message, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&messaging.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []messaging.Message
	if err := paginate(query.Order("created_at ASC").Order("id"), filter).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkMessagesRead stamps unread messages from senderRole
func (r *GormConversationRepository) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, senderRole messaging.SenderRole, at time.Time) error {
	return r.db.WithContext(ctx).Model(&messaging.Message{}).
		Where("conversation_id = ? AND sender_role = ? AND read_at IS NULL", conversationID, senderRole).
		Update("read_at", at.UTC()).Error
}

var _ messaging.Repository = (*GormConversationRepository)(nil)
