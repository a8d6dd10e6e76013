package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// Delete deletes a user by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByResetTokenHash finds the user holding a password reset token
	FindByResetTokenHash(ctx context.Context, hash string) (*User, error)

	// FindAll returns users matching the filter
	// Supported Filters keys: "role", "status"
	FindAll(ctx context.Context, filter shared.Filter) ([]User, int64, error)

	// FindActiveIDsByRole returns IDs of active users, optionally limited to a role
	FindActiveIDsByRole(ctx context.Context, role Role) ([]uuid.UUID, error)

	// ExistsByEmail checks if an email already exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Count returns the total number of users
	Count(ctx context.Context) (int64, error)

	// CountByRole returns the number of users with a role
	CountByRole(ctx context.Context, role Role) (int64, error)
}
