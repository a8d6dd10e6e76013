package notification

import (
	"context"

	"github.com/google/uuid"
)

// Frame types pushed over the socket
const (
	FrameNotification = "notification"
	FrameMessage      = "message"
)

// Pusher delivers realtime frames to a user's open connections.
// Users without a connection are skipped silently.
type Pusher interface {
	Push(ctx context.Context, userID uuid.UUID, frameType string, data any)
}

// Email is a plain text message
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type noopPusher struct{}

func (noopPusher) Push(context.Context, uuid.UUID, string, any) {}
