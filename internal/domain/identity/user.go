package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopfront/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the authorization role of a user
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// Password cost for bcrypt
const bcryptCost = 12

// bcrypt ignores input beyond 72 bytes
const maxPasswordBytes = 72

// PasswordResetTTL is how long a reset token stays valid
const PasswordResetTTL = time.Hour

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// User is the aggregate root for accounts
type User struct {
	shared.BaseAggregateRoot
	Name                 string     `gorm:"type:varchar(100);not null"`
	Email                string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash         string     `gorm:"type:varchar(255);not null"`
	Role                 Role       `gorm:"type:varchar(20);not null;default:'customer';index"`
	Status               UserStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	Phone                string     `gorm:"type:varchar(50)"`
	AvatarURL            string     `gorm:"type:varchar(500)"`
	FailedLoginAttempts  int        `gorm:"not null;default:0"`
	LockedUntil          *time.Time
	LastLoginAt          *time.Time
	PasswordResetHash    string `gorm:"type:varchar(64);index"`
	PasswordResetExpires *time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new active user with the given role
func NewUser(name, email, password string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be customer or admin")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		Role:              role,
		Status:            UserStatusActive,
	}
	if err := user.applyPassword(password); err != nil {
		return nil, err
	}

	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpdateProfile changes the editable profile fields
func (u *User) UpdateProfile(name, phone, avatarURL string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if len(avatarURL) > 500 {
		return shared.NewDomainError("INVALID_AVATAR", "Avatar URL cannot exceed 500 characters")
	}

	u.Name = name
	u.Phone = strings.TrimSpace(phone)
	u.AvatarURL = strings.TrimSpace(avatarURL)
	u.Touch()
	u.IncrementVersion()
	return nil
}

// ChangePassword changes the user's password after verifying the current one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (u *User) SetPassword(newPassword string) error {
	if err := u.applyPassword(newPassword); err != nil {
		return err
	}
	u.Touch()
	u.IncrementVersion()
	return nil
}

func (u *User) applyPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.WrapDomainError("PASSWORD_HASH_ERROR", "Failed to hash password", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if user is not blocked
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsLocked reports whether a login lockout is still in effect
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if the account is active and not locked out
func (u *User) CanLogin() bool {
	return u.IsActive() && !u.IsLocked()
}

// RecordLoginSuccess resets the failure counter and stamps the login time
func (u *User) RecordLoginSuccess() {
	now := time.Now().UTC()
	u.LastLoginAt = &now
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.Touch()
	u.IncrementVersion()
}

// RecordLoginFailure counts a failed attempt.
// Returns true if the account got locked by this attempt.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedLoginAttempts++
	u.Touch()
	u.IncrementVersion()

	if maxAttempts > 0 && u.FailedLoginAttempts >= maxAttempts {
		lockedUntil := time.Now().UTC().Add(lockDuration)
		u.LockedUntil = &lockedUntil
		u.FailedLoginAttempts = 0
		return true
	}
	return false
}

// ChangeRole assigns a new role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be customer or admin")
	}
	if u.Role == role {
		return nil
	}
	old := u.Role
	u.Role = role
	u.Touch()
	u.IncrementVersion()
	u.AddDomainEvent(NewUserRoleChangedEvent(u, old))
	return nil
}

// Block prevents the user from logging in
func (u *User) Block() error {
	if u.Status == UserStatusBlocked {
		return shared.NewDomainError("INVALID_STATE", "User is already blocked")
	}
	u.Status = UserStatusBlocked
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Unblock restores login access and clears any lockout
func (u *User) Unblock() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("INVALID_STATE", "User is not blocked")
	}
	u.Status = UserStatusActive
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.Touch()
	u.IncrementVersion()
	return nil
}

// IssuePasswordReset generates a reset token, stores its hash and
// returns the raw token for delivery to the user.
func (u *User) IssuePasswordReset() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	expires := time.Now().UTC().Add(PasswordResetTTL)

	u.PasswordResetHash = HashResetToken(token)
	u.PasswordResetExpires = &expires
	u.Touch()
	u.IncrementVersion()

	u.AddDomainEvent(NewPasswordResetRequestedEvent(u, token, expires))
	return token, nil
}

// ResetPassword sets a new password using a previously issued token
func (u *User) ResetPassword(token, newPassword string) error {
	if u.PasswordResetHash == "" || u.PasswordResetHash != HashResetToken(token) {
		return shared.NewDomainError("INVALID_RESET_TOKEN", "Reset token is invalid")
	}
	if u.PasswordResetExpires == nil || time.Now().After(*u.PasswordResetExpires) {
		return shared.NewDomainError("INVALID_RESET_TOKEN", "Reset token has expired")
	}
	if err := u.SetPassword(newPassword); err != nil {
		return err
	}
	u.PasswordResetHash = ""
	u.PasswordResetExpires = nil
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	return nil
}

// HashResetToken returns the hex sha256 of a reset token
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePassword checks the password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 100 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
