package identity

import (
	"time"

	"github.com/shopfront/backend/internal/domain/shared"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered         = "UserRegistered"
	EventTypeUserRoleChanged        = "UserRoleChanged"
	EventTypePasswordResetRequested = "PasswordResetRequested"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
	}
}

// UserRoleChangedEvent is published when an admin changes a user's role
type UserRoleChangedEvent struct {
	shared.BaseDomainEvent
	Email   string `json:"email"`
	OldRole Role   `json:"old_role"`
	NewRole Role   `json:"new_role"`
}

// NewUserRoleChangedEvent creates a new UserRoleChangedEvent
func NewUserRoleChangedEvent(user *User, oldRole Role) *UserRoleChangedEvent {
	return &UserRoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRoleChanged, AggregateTypeUser, user.ID),
		Email:           user.Email,
		OldRole:         oldRole,
		NewRole:         user.Role,
	}
}

// PasswordResetRequestedEvent carries the raw reset token to the mailer.
// The token is only ever persisted hashed on the user and inside this queued job.
type PasswordResetRequestedEvent struct {
	shared.BaseDomainEvent
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewPasswordResetRequestedEvent creates a new PasswordResetRequestedEvent
func NewPasswordResetRequestedEvent(user *User, token string, expiresAt time.Time) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePasswordResetRequested, AggregateTypeUser, user.ID),
		Name:            user.Name,
		Email:           user.Email,
		Token:           token,
		ExpiresAt:       expiresAt,
	}
}
