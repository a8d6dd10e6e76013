package event

import (
	"context"
	"errors"
	"testing"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                             { return []string{"Boom"} }

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := testutil.NewRecordingHandler("h", "OrderPlaced")
	bus.Subscribe(h)

	ev := testutil.NewTestEvent("OrderPlaced", "x")
	require.NoError(t, bus.Publish(context.Background(), ev, testutil.NewTestEvent("Other", "y")))

	require.Equal(t, 1, h.Count())
	assert.Equal(t, ev, h.Handled()[0])
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := testutil.NewRecordingHandler("all")
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewTestEvent("A", ""), testutil.NewTestEvent("B", "")))
	assert.Equal(t, 2, all.Count())
}

func TestInMemoryEventBus_JoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ok := testutil.NewRecordingHandler("ok", "E")
	bad := testutil.NewRecordingHandler("bad", "E")
	bad.SetError(errors.New("smtp down"))
	bus.Subscribe(ok)
	bus.Subscribe(bad)

	err := bus.Publish(context.Background(), testutil.NewTestEvent("E", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1, ok.Count(), "other handlers still run")
}

func TestInMemoryEventBus_RecoversPanics(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(panickingHandler{})

	err := bus.Publish(context.Background(), testutil.NewTestEvent("Boom", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := testutil.NewRecordingHandler("h", "E")
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("E", "")))
	assert.Zero(t, h.Count())
}
