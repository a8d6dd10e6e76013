package identity

import (
	"testing"
	"time"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	user, err := NewUser("Jane Doe", "jane@example.com", "Password123", RoleCustomer)
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func TestNewUser(t *testing.T) {
	t.Run("creates active customer with hashed password", func(t *testing.T) {
		user, err := NewUser("Jane Doe", "jane@example.com", "Password123", RoleCustomer)

		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", user.Name)
		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, RoleCustomer, user.Role)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("Password123"))

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		registered, ok := events[0].(*UserRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, user.ID, registered.AggregateID())
		assert.Equal(t, "jane@example.com", registered.Email)
	})

	t.Run("normalizes email", func(t *testing.T) {
		user, err := NewUser("Jane", "  Jane@Example.COM ", "Password123", RoleCustomer)

		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", user.Email)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cases := []struct {
			name, userName, email, password string
			role                            Role
			code                            string
		}{
			{"empty name", "  ", "a@b.co", "Password123", RoleCustomer, "INVALID_NAME"},
			{"bad email", "Jane", "not-an-email", "Password123", RoleCustomer, "INVALID_EMAIL"},
			{"email without domain dot", "Jane", "jane@localhost", "Password123", RoleCustomer, "INVALID_EMAIL"},
			{"short password", "Jane", "a@b.co", "Pass1", RoleCustomer, "INVALID_PASSWORD"},
			{"password without digit", "Jane", "a@b.co", "Passwordonly", RoleCustomer, "INVALID_PASSWORD"},
			{"unknown role", "Jane", "a@b.co", "Password123", Role("root"), "INVALID_ROLE"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewUser(tc.userName, tc.email, tc.password, tc.role)

				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tc.code, domainErr.Code)
			})
		}
	})
}

func TestUser_ChangePassword(t *testing.T) {
	user := newTestUser(t)
	version := user.GetVersion()

	t.Run("rejects wrong current password", func(t *testing.T) {
		err := user.ChangePassword("WrongPass1", "NewPassword1")
		assert.Error(t, err)
		assert.True(t, user.VerifyPassword("Password123"))
	})

	t.Run("changes password", func(t *testing.T) {
		err := user.ChangePassword("Password123", "NewPassword1")
		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("NewPassword1"))
		assert.False(t, user.VerifyPassword("Password123"))
		assert.Greater(t, user.GetVersion(), version)
	})
}

func TestUser_LoginLockout(t *testing.T) {
	user := newTestUser(t)

	for i := 0; i < 4; i++ {
		assert.False(t, user.RecordLoginFailure(5, 15*time.Minute))
	}
	assert.True(t, user.CanLogin())

	locked := user.RecordLoginFailure(5, 15*time.Minute)
	assert.True(t, locked)
	assert.True(t, user.IsLocked())
	assert.False(t, user.CanLogin())

	user.RecordLoginSuccess()
	assert.False(t, user.IsLocked())
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.NotNil(t, user.LastLoginAt)
}

func TestUser_LockExpires(t *testing.T) {
	user := newTestUser(t)
	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past

	assert.False(t, user.IsLocked())
	assert.True(t, user.CanLogin())
}

func TestUser_BlockUnblock(t *testing.T) {
	user := newTestUser(t)

	require.NoError(t, user.Block())
	assert.False(t, user.CanLogin())
	assert.Error(t, user.Block())

	require.NoError(t, user.Unblock())
	assert.True(t, user.CanLogin())
	assert.Error(t, user.Unblock())
}

func TestUser_ChangeRole(t *testing.T) {
	user := newTestUser(t)

	require.NoError(t, user.ChangeRole(RoleAdmin))
	assert.True(t, user.IsAdmin())
	require.Len(t, user.GetDomainEvents(), 1)

	require.NoError(t, user.ChangeRole(RoleAdmin))
	assert.Len(t, user.GetDomainEvents(), 1, "no event when role is unchanged")

	assert.Error(t, user.ChangeRole(Role("owner")))
}

func TestUser_PasswordReset(t *testing.T) {
	t.Run("token round trip", func(t *testing.T) {
		user := newTestUser(t)

		token, err := user.IssuePasswordReset()
		require.NoError(t, err)
		assert.Len(t, token, 64)
		assert.Equal(t, HashResetToken(token), user.PasswordResetHash)
		assert.NotEqual(t, token, user.PasswordResetHash)

		events := user.PullDomainEvents()
		require.Len(t, events, 1)
		requested := events[0].(*PasswordResetRequestedEvent)
		assert.Equal(t, token, requested.Token)

		require.NoError(t, user.ResetPassword(token, "Another123"))
		assert.True(t, user.VerifyPassword("Another123"))
		assert.Empty(t, user.PasswordResetHash)
		assert.Nil(t, user.PasswordResetExpires)

		assert.Error(t, user.ResetPassword(token, "Another456"), "token is single use")
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		user := newTestUser(t)
		_, err := user.IssuePasswordReset()
		require.NoError(t, err)

		assert.Error(t, user.ResetPassword("deadbeef", "Another123"))
	})

	t.Run("rejects expired token", func(t *testing.T) {
		user := newTestUser(t)
		token, err := user.IssuePasswordReset()
		require.NoError(t, err)
		expired := time.Now().Add(-time.Minute)
		user.PasswordResetExpires = &expired

		err = user.ResetPassword(token, "Another123")
		assert.ErrorContains(t, err, "expired")
	})
}
