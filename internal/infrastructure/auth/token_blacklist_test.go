package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewInMemoryTokenBlacklist()
	b.nowFunc = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "jti-1", time.Minute))
	require.NoError(t, b.Revoke(ctx, "jti-ignored", 0))

	revoked, err := b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = b.IsRevoked(ctx, "jti-ignored")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry expires with the token")
}

func TestInMemoryTokenBlacklist_RevokeUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)
	b := NewInMemoryTokenBlacklist()
	b.nowFunc = func() time.Time { return now }

	require.NoError(t, b.RevokeUser(ctx, "user-1", time.Hour))

	old, err := b.IsUserRevoked(ctx, "user-1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, old)

	fresh, err := b.IsUserRevoked(ctx, "user-1", now)
	require.NoError(t, err)
	assert.False(t, fresh, "tokens issued at the cutoff stay valid")

	sameSecond, err := b.IsUserRevoked(ctx, "user-1", now.Add(-300*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, sameSecond, "earlier tokens in the revocation second are revoked")

	other, err := b.IsUserRevoked(ctx, "user-2", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, other)
}

func TestTokenRevocation_SameSecond(t *testing.T) {
	ctx := context.Background()
	svc := newTestJWTService()
	b := NewInMemoryTokenBlacklist()
	sub := Subject{UserID: uuid.New(), Email: "ada@example.com", Role: "customer"}

	before, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, b.RevokeUser(ctx, sub.UserID.String(), time.Hour))
	time.Sleep(5 * time.Millisecond)
	after, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)

	oldClaims, err := svc.ValidateAccessToken(before.AccessToken)
	require.NoError(t, err)
	revoked, err := b.IsUserRevoked(ctx, sub.UserID.String(), oldClaims.IssuedAtTime())
	require.NoError(t, err)
	assert.True(t, revoked, "token signed before the revocation")

	newClaims, err := svc.ValidateAccessToken(after.AccessToken)
	require.NoError(t, err)
	revoked, err = b.IsUserRevoked(ctx, sub.UserID.String(), newClaims.IssuedAtTime())
	require.NoError(t, err)
	assert.False(t, revoked, "token signed after the revocation")
}

