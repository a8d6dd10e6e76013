package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ConversationService handles support conversations
type ConversationService struct {
	scope  transaction.Scope
	repo   messaging.Repository
	logger *zap.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(scope transaction.Scope, repo messaging.Repository, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		scope:  scope,
		repo:   repo,
		logger: logger,
	}
}

// Start opens a conversation with its first message
func (s *ConversationService) Start(ctx context.Context, customerID uuid.UUID, req StartConversationRequest) (*StartConversationResponse, error) {
	c, msg, err := messaging.StartConversation(customerID, req.Subject, req.Message)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		if err := repos.Conversations().CreateConversation(ctx, c); err != nil {
			return err
		}
		if err := repos.Conversations().CreateMessage(ctx, msg); err != nil {
			return err
		}
		return repos.Events().Write(ctx, c.PullDomainEvents()...)
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to start conversation", err)
	}

	s.logger.Info("Conversation started",
		zap.String("conversation_id", c.ID.String()),
		zap.String("customer_id", customerID.String()))
	return &StartConversationResponse{
		Conversation: ToConversationResponse(c),
		Message:      ToMessageResponse(msg),
	}, nil
}

// List returns the customer's own conversations, or every conversation for an admin
func (s *ConversationService) List(ctx context.Context, who messaging.Participant, filter ConversationListFilter) (*shared.Paginated[ConversationResponse], error) {
	f := messaging.ConversationFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "last_message_at",
			OrderDir: "desc",
		}.Normalize(),
		Status: messaging.ConversationStatus(filter.Status),
	}
	if !who.IsAdmin {
		f.CustomerID = &who.UserID
	}

	conversations, total, err := s.repo.FindConversations(ctx, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list conversations", err)
	}
	items := make([]ConversationResponse, len(conversations))
	for i := range conversations {
		items[i] = ToConversationResponse(&conversations[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Get returns a conversation to a participant
func (s *ConversationService) Get(ctx context.Context, who messaging.Participant, id uuid.UUID) (*ConversationResponse, error) {
	c, err := s.load(ctx, s.repo, who, id)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load conversation", err)
	}
	resp := ToConversationResponse(c)
	return &resp, nil
}

// ListMessages returns a page of the thread, oldest first
func (s *ConversationService) ListMessages(ctx context.Context, who messaging.Participant, id uuid.UUID, filter MessageListFilter) (*shared.Paginated[MessageResponse], error) {
	if _, err := s.load(ctx, s.repo, who, id); err != nil {
		return nil, internalError(s.logger, "Failed to load conversation", err)
	}
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	messages, total, err := s.repo.FindMessages(ctx, id, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list messages", err)
	}
	items := make([]MessageResponse, len(messages))
	for i := range messages {
		items[i] = ToMessageResponse(&messages[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Send posts a message and notifies the counterpart through MessageSent
func (s *ConversationService) Send(ctx context.Context, who messaging.Participant, id uuid.UUID, req SendMessageRequest) (*MessageResponse, error) {
	var sent *messaging.Message
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		c, err := s.load(ctx, repos.Conversations(), who, id)
		if err != nil {
			return err
		}
		msg, err := c.Send(who, req.Body)
		if err != nil {
			return err
		}
		if err := repos.Conversations().CreateMessage(ctx, msg); err != nil {
			return err
		}
		if err := repos.Conversations().UpdateConversation(ctx, c); err != nil {
			return err
		}
		if err := repos.Events().Write(ctx, c.PullDomainEvents()...); err != nil {
			return err
		}
		sent = msg
		return nil
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to send message", err)
	}
	resp := ToMessageResponse(sent)
	return &resp, nil
}

// MarkRead clears the reader's unread count
func (s *ConversationService) MarkRead(ctx context.Context, who messaging.Participant, id uuid.UUID) (*ConversationResponse, error) {
	return s.mutate(ctx, who, id, "Failed to mark conversation read", func(repos transaction.Repositories, c *messaging.Conversation) error {
		counterpart, err := c.MarkRead(who)
		if err != nil {
			return err
		}
		return repos.Conversations().MarkMessagesRead(ctx, c.ID, counterpart, time.Now().UTC())
	})
}

// Close stops further messages in the conversation
func (s *ConversationService) Close(ctx context.Context, who messaging.Participant, id uuid.UUID) (*ConversationResponse, error) {
	return s.mutate(ctx, who, id, "Failed to close conversation", func(_ transaction.Repositories, c *messaging.Conversation) error {
		return c.Close(who)
	})
}

// Reopen allows messages again
func (s *ConversationService) Reopen(ctx context.Context, who messaging.Participant, id uuid.UUID) (*ConversationResponse, error) {
	return s.mutate(ctx, who, id, "Failed to reopen conversation", func(_ transaction.Repositories, c *messaging.Conversation) error {
		return c.Reopen(who)
	})
}

func (s *ConversationService) mutate(
	ctx context.Context,
	who messaging.Participant,
	id uuid.UUID,
	failure string,
	change func(repos transaction.Repositories, c *messaging.Conversation) error,
) (*ConversationResponse, error) {
	var updated *messaging.Conversation
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		c, err := s.load(ctx, repos.Conversations(), who, id)
		if err != nil {
			return err
		}
		if err := change(repos, c); err != nil {
			return err
		}
		if err := repos.Conversations().UpdateConversation(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, internalError(s.logger, failure, err)
	}
	resp := ToConversationResponse(updated)
	return &resp, nil
}

// load hides conversations the participant may not see behind not found
func (s *ConversationService) load(ctx context.Context, repo messaging.Repository, who messaging.Participant, id uuid.UUID) (*messaging.Conversation, error) {
	c, err := repo.FindConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.CanAccess(who) {
		return nil, shared.NewDomainError("NOT_FOUND", "Conversation not found")
	}
	return c, nil
}

func internalError(logger *zap.Logger, message string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.WrapDomainError("INTERNAL_ERROR", message, err)
}
