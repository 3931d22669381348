package event

import (
	"context"

	"github.com/ecomt/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// LogEventHandler writes every domain event to the application log
type LogEventHandler struct {
	logger *zap.Logger
}

// NewLogEventHandler creates a new LogEventHandler
func NewLogEventHandler(logger *zap.Logger) *LogEventHandler {
	return &LogEventHandler{logger: logger}
}

// EventTypes is empty: the handler receives all events
func (h *LogEventHandler) EventTypes() []string {
	return nil
}

// Handle logs the event metadata
func (h *LogEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}

// Ensure LogEventHandler implements EventHandler
var _ shared.EventHandler = (*LogEventHandler)(nil)
