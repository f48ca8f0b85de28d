package main

import (
	"context"

	"github.com/botiga-dev/botiga-backend/pkg/db/models"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
	"github.com/botiga-dev/botiga-backend/pkg/outbox"
)

// logDispatcher emits each event to the structured log stream, which is
// the delivery channel downstream consumers tail in this deployment.
type logDispatcher struct {
	logg *logger.Logger
}

func newLogDispatcher(logg *logger.Logger) *logDispatcher {
	return &logDispatcher{logg: logg}
}

func (d *logDispatcher) Dispatch(ctx context.Context, event models.OutboxEvent, envelope outbox.PayloadEnvelope) error {
	ctx = d.logg.WithFields(ctx, map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     event.EventType.String(),
		"aggregate_type": event.AggregateType.String(),
		"aggregate_id":   event.AggregateID.String(),
		"occurred_at":    envelope.OccurredAt,
		"data":           string(envelope.Data),
	})
	d.logg.Info(ctx, "domain event")
	return nil
}
