package messaging

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartConversation(t *testing.T) {
	customer := uuid.New()

	c, msg, err := StartConversation(customer, " Where is my order? ", "Ordered last week")
	require.NoError(t, err)
	assert.Equal(t, "Where is my order?", c.Subject)
	assert.Equal(t, ConversationOpen, c.Status)
	assert.Equal(t, 1, c.UnreadByAdmin)
	assert.Equal(t, 0, c.UnreadByCustomer)
	assert.Equal(t, SenderCustomer, msg.SenderRole)
	assert.Equal(t, c.ID, msg.ConversationID)
	require.Len(t, c.GetDomainEvents(), 1)

	_, _, err = StartConversation(customer, "", "hi")
	assert.Error(t, err)
	_, _, err = StartConversation(customer, "Hi", "   ")
	assert.Error(t, err)
}

func TestConversation_Send(t *testing.T) {
	customer := Participant{UserID: uuid.New()}
	admin := Participant{UserID: uuid.New(), IsAdmin: true}
	stranger := Participant{UserID: uuid.New()}

	c, _, err := StartConversation(customer.UserID, "Help", "first")
	require.NoError(t, err)

	_, err = c.Send(admin, "We are on it")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UnreadByCustomer)
	assert.Equal(t, "We are on it", c.LastMessagePreview)

	_, err = c.Send(stranger, "hello")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = c.Send(customer, strings.Repeat("x", MaxBodyLength+1))
	assert.Error(t, err)

	long := strings.Repeat("é", 300)
	_, err = c.Send(customer, long)
	require.NoError(t, err)
	assert.Equal(t, previewLength+1, len([]rune(c.LastMessagePreview)))

	require.NoError(t, c.Close(admin))
	_, err = c.Send(customer, "still there?")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	require.NoError(t, c.Reopen(customer))
	_, err = c.Send(customer, "still there?")
	assert.NoError(t, err)
}

func TestConversation_MarkRead(t *testing.T) {
	customer := Participant{UserID: uuid.New()}
	admin := Participant{UserID: uuid.New(), IsAdmin: true}
	c, _, err := StartConversation(customer.UserID, "Help", "first")
	require.NoError(t, err)
	_, err = c.Send(admin, "reply")
	require.NoError(t, err)

	role, err := c.MarkRead(admin)
	require.NoError(t, err)
	assert.Equal(t, SenderCustomer, role)
	assert.Equal(t, 0, c.UnreadByAdmin)
	assert.Equal(t, 1, c.UnreadByCustomer)

	role, err = c.MarkRead(customer)
	require.NoError(t, err)
	assert.Equal(t, SenderAdmin, role)
	assert.Equal(t, 0, c.UnreadByCustomer)

	_, err = c.MarkRead(Participant{UserID: uuid.New()})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
