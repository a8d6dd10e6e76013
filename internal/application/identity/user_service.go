package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService handles admin user management
type UserService struct {
	scope      transaction.Scope
	userRepo   identity.UserRepository
	blacklist  auth.TokenBlacklist
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewUserService creates a new user service. sessionTTL is how long a
// revocation must outlive issued tokens, normally the refresh token lifetime.
func NewUserService(
	scope transaction.Scope,
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		scope:      scope,
		userRepo:   userRepo,
		blacklist:  blacklist,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// List returns users matching the filter
func (s *UserService) List(ctx context.Context, filter UserListFilter) (*shared.Paginated[UserDTO], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   strings.TrimSpace(filter.Search),
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  map[string]any{},
	}
	if filter.Role != "" {
		f.Filters["role"] = filter.Role
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	f = f.Normalize()

	users, total, err := s.userRepo.FindAll(ctx, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list users", err)
	}
	page := shared.NewPaginated(ToUserDTOs(users), total, f.Page, f.PageSize)
	return &page, nil
}

// Get returns a single user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load user", err)
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// UpdateRole changes a user's role. Admins cannot change their own role
// and the last admin cannot be demoted.
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID uuid.UUID, input UpdateRoleInput) (*UserDTO, error) {
	role := identity.Role(input.Role)
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be customer or admin")
	}
	if actorID == userID {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot change your own role")
	}

	var user *identity.User
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		user, err = repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.IsAdmin() && role != identity.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, repos.Users()); err != nil {
				return err
			}
		}
		if err := user.ChangeRole(role); err != nil {
			return err
		}
		events := user.PullDomainEvents()
		if len(events) == 0 {
			return nil
		}
		if err := repos.Users().Update(ctx, user); err != nil {
			return err
		}
		return repos.Events().Write(ctx, events...)
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to update user role", err)
	}

	s.revokeSessions(ctx, user.ID)
	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("by", actorID.String()))

	dto := ToUserDTO(user)
	return &dto, nil
}

// Block prevents a user from logging in and signs them out everywhere
func (s *UserService) Block(ctx context.Context, actorID, userID uuid.UUID) (*UserDTO, error) {
	if actorID == userID {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot block yourself")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load user", err)
	}
	if err := user.Block(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(s.logger, "Failed to block user", err)
	}

	s.revokeSessions(ctx, user.ID)
	s.logger.Info("User blocked", zap.String("user_id", user.ID.String()), zap.String("by", actorID.String()))

	dto := ToUserDTO(user)
	return &dto, nil
}

// Unblock restores login access
func (s *UserService) Unblock(ctx context.Context, actorID, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load user", err)
	}
	if err := user.Unblock(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(s.logger, "Failed to unblock user", err)
	}

	s.logger.Info("User unblocked", zap.String("user_id", user.ID.String()), zap.String("by", actorID.String()))

	dto := ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user. Admins cannot delete themselves and the last
// admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return shared.NewDomainError("FORBIDDEN", "You cannot delete yourself")
	}
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		user, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.IsAdmin() {
			if err := ensureAnotherAdmin(ctx, repos.Users()); err != nil {
				return err
			}
		}
		return repos.Users().Delete(ctx, userID)
	})
	if err != nil {
		return internalError(s.logger, "Failed to delete user", err)
	}

	s.revokeSessions(ctx, userID)
	s.logger.Info("User deleted", zap.String("user_id", userID.String()), zap.String("by", actorID.String()))
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.sessionTTL); err != nil {
		s.logger.Error("Failed to revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func ensureAnotherAdmin(ctx context.Context, users identity.UserRepository) error {
	admins, err := users.CountByRole(ctx, identity.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return shared.NewDomainError("CONFLICT", "The last admin cannot be removed")
	}
	return nil
}
