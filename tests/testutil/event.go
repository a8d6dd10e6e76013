package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// RecordingHandler records the events it receives and returns a configurable error
type RecordingHandler struct {
	mu         sync.Mutex
	name       string
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewRecordingHandler creates a handler named name for eventTypes
func NewRecordingHandler(name string, eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{name: name, eventTypes: eventTypes}
}

// HandlerName implements shared.NamedEventHandler
func (h *RecordingHandler) HandlerName() string { return h.name }

// EventTypes implements shared.EventHandler
func (h *RecordingHandler) EventTypes() []string { return h.eventTypes }

// Handle implements shared.EventHandler
func (h *RecordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	return h.err
}

// SetError makes subsequent calls fail with err
func (h *RecordingHandler) SetError(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// Handled returns a copy of the received events
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

// Count returns the number of received events
func (h *RecordingHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

var _ shared.NamedEventHandler = (*RecordingHandler)(nil)

// TestEvent is a minimal domain event
type TestEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

// NewTestEvent creates a TestEvent of the given type
func NewTestEvent(eventType, data string) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New()),
		Data:            data,
	}
}
