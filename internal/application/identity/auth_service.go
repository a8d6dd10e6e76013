package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

var errInvalidCredentials = shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")

// AuthService handles authentication operations
type AuthService struct {
	scope      transaction.Scope
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	scope transaction.Scope,
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		scope:      scope,
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
	}
}

// Register creates an account and signs the user in.
// The very first account becomes the shop admin.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	var user *identity.User
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		users := repos.Users()

		exists, err := users.ExistsByEmail(ctx, identity.NormalizeEmail(input.Email))
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
		}

		count, err := users.Count(ctx)
		if err != nil {
			return err
		}
		role := identity.RoleCustomer
		if count == 0 {
			role = identity.RoleAdmin
		}

		user, err = identity.NewUser(input.Name, input.Email, input.Password, role)
		if err != nil {
			return err
		}
		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
			}
			return err
		}
		return repos.Events().Write(ctx, user.PullDomainEvents()...)
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to register user", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return s.signIn(user)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email", zap.String("ip", input.IP))
			return nil, errInvalidCredentials
		}
		return nil, internalError(s.logger, "Failed to load user", err)
	}

	if !user.IsActive() {
		s.logger.Warn("Login attempt for blocked account", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError("FORBIDDEN", "Account has been blocked")
	}
	if user.IsLocked() {
		s.logger.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is temporarily locked. Please try again later")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.Int("failed_attempts", user.FailedLoginAttempts),
			zap.String("ip", input.IP))
		return nil, errInvalidCredentials
	}

	user.RecordLoginSuccess()
	if err := s.userRepo.Update(ctx, user); err != nil {
		// The login itself succeeded
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.signIn(user)
}

// RefreshToken exchanges a refresh token for a new pair. The presented
// refresh token is retired so it cannot be replayed.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Debug("Refresh token rejected", zap.Error(err))
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid or expired refresh token")
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to check token blacklist", err)
	}
	if revoked {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Refresh token has been revoked")
	}

	userRevoked, err := s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		return nil, internalError(s.logger, "Failed to check user revocation", err)
	}
	if userRevoked {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Refresh token has been revoked")
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid or expired refresh token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "User no longer exists")
		}
		return nil, internalError(s.logger, "Failed to load user", err)
	}
	if !user.IsActive() {
		return nil, shared.NewDomainError("FORBIDDEN", "Account has been blocked")
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		return nil, internalError(s.logger, "Failed to rotate refresh token", err)
	}

	return s.signIn(user)
}

// Logout blacklists the presented access token until it expires
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.TTL); err != nil {
		return internalError(s.logger, "Failed to revoke token", err)
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetProfile returns the current user
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load user", err)
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// UpdateProfile changes the current user's name, phone and avatar
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load user", err)
	}
	if err := user.UpdateProfile(input.Name, input.Phone, input.AvatarURL); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(s.logger, "Failed to update profile", err)
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// ChangePassword verifies the current password and sets a new one
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return internalError(s.logger, "Failed to load user", err)
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return internalError(s.logger, "Failed to change password", err)
	}
	s.logger.Info("Password changed", zap.String("user_id", userID.String()))
	return nil
}

// ForgotPassword issues a reset token for an existing active account.
// It reports success for unknown emails as well.
func (s *AuthService) ForgotPassword(ctx context.Context, input ForgotPasswordInput) error {
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		user, err := repos.Users().FindByEmail(ctx, input.Email)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Debug("Password reset requested for unknown email")
				return nil
			}
			return err
		}
		if !user.IsActive() {
			return nil
		}
		if _, err := user.IssuePasswordReset(); err != nil {
			return err
		}
		if err := repos.Users().Update(ctx, user); err != nil {
			return err
		}
		return repos.Events().Write(ctx, user.PullDomainEvents()...)
	})
	if err != nil {
		return internalError(s.logger, "Failed to start password reset", err)
	}
	return nil
}

// ResetPassword sets a new password with a reset token and signs out
// every existing session of the user
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	user, err := s.userRepo.FindByResetTokenHash(ctx, identity.HashResetToken(input.Token))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_RESET_TOKEN", "Reset token is invalid")
		}
		return internalError(s.logger, "Failed to load user", err)
	}
	if err := user.ResetPassword(input.Token, input.Password); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return internalError(s.logger, "Failed to reset password", err)
	}
	if err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.jwtService.RefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke sessions after password reset", zap.Error(err))
	}
	s.logger.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) signIn(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to generate authentication tokens", err)
	}
	return &AuthResult{User: ToUserDTO(user), Tokens: pair}, nil
}

// internalError passes domain errors through and hides everything else
// behind INTERNAL_ERROR
func internalError(logger *zap.Logger, message string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.WrapDomainError("INTERNAL_ERROR", message, err)
}
