package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/infrastructure/auth"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,password"`
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the access token being retired
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	TTL      time.Duration
}

// UpdateProfileInput contains the editable profile fields
type UpdateProfileInput struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	Phone     string `json:"phone" binding:"omitempty,max=50"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=500"`
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,password"`
}

// ForgotPasswordInput starts a password reset
type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordInput completes a password reset
type ResetPasswordInput struct {
	Token    string `json:"token" binding:"required,len=64,hexadecimal"`
	Password string `json:"password" binding:"required,password"`
}

// UserDTO is the public view of a user; it never carries the password hash
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Phone       string     `json:"phone,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	User   UserDTO         `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// UserListFilter represents admin user list query parameters
type UserListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Role     string `form:"role" binding:"omitempty,oneof=customer admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active blocked"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at name email role last_login_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// UpdateRoleInput changes a user's role
type UpdateRoleInput struct {
	Role string `json:"role" binding:"required,oneof=customer admin"`
}

// ToUserDTO converts a domain user to its public view
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Status:      string(u.Status),
		Phone:       u.Phone,
		AvatarURL:   u.AvatarURL,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToUserDTOs converts a slice of domain users
func ToUserDTOs(users []identity.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = ToUserDTO(&users[i])
	}
	return dtos
}
