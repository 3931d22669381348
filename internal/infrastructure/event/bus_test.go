package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecomt/storefront/internal/domain/order"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPlacedEvent() *order.OrderPlacedEvent {
	return &order.OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPlaced, order.AggregateTypeOrder, uuid.New()),
		UserID:          uuid.New(),
		FinalTotal:      decimal.NewFromInt(250000),
		PaymentMethod:   order.PaymentCOD,
		ItemCount:       2,
	}
}

func newStatusEvent() *order.OrderStatusChangedEvent {
	return &order.OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderStatusChanged, order.AggregateTypeOrder, uuid.New()),
		From:            order.StatusPending,
		To:              order.StatusProcessing,
	}
}

// recordingHandler implements EventHandler for testing
type recordingHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panics     bool
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	placed := newRecordingHandler(order.EventTypeOrderPlaced)
	bus.Subscribe(placed)

	ev := newPlacedEvent()
	require.NoError(t, bus.Publish(context.Background(), ev, newStatusEvent()))

	require.Equal(t, 1, placed.count())
	assert.Equal(t, ev, placed.handled[0])
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newRecordingHandler(order.EventTypeOrderPlaced)
	bus.Subscribe(h, order.EventTypeOrderStatusChanged)

	require.NoError(t, bus.Publish(context.Background(), newPlacedEvent(), newStatusEvent()))
	assert.Equal(t, 1, h.count())
	assert.Equal(t, order.EventTypeOrderStatusChanged, h.handled[0].EventType())
}

func TestInMemoryEventBus_Wildcard(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := newRecordingHandler()
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newPlacedEvent(), newStatusEvent()))
	assert.Equal(t, 2, all.count())
	assert.Equal(t, 1, bus.HandlerCount("Anything"))
}

func TestInMemoryEventBus_FailingHandlersDoNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newRecordingHandler(order.EventTypeOrderPlaced)
	failing.err = errors.New("handler error")
	panicking := newRecordingHandler(order.EventTypeOrderPlaced)
	panicking.panics = true
	ok := newRecordingHandler(order.EventTypeOrderPlaced)

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(ok)

	require.NoError(t, bus.Publish(context.Background(), newPlacedEvent()))
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler(order.EventTypeOrderPlaced, order.EventTypeOrderStatusChanged)
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newPlacedEvent())
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newPlacedEvent(), newStatusEvent())

	assert.Equal(t, 1, h.count())
	assert.Equal(t, 0, bus.HandlerCount(order.EventTypeOrderPlaced))
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, bus.Stop(ctx))
}

func TestLogEventHandler(t *testing.T) {
	h := NewLogEventHandler(zap.NewNop())
	assert.Empty(t, h.EventTypes())
	assert.NoError(t, h.Handle(context.Background(), newPlacedEvent()))
}
