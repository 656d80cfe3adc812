package consumer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/service"
)

// IngestStage drains envelopes and applies each one as a single ingestion
// transaction. Successful events are acked; storage failures are nacked so
// SQS redelivers them, which is safe because the ingestion is idempotent
// under the deterministic event id.
type IngestStage struct {
	tracker service.Tracker
	log     *zap.Logger
}

// NewIngestStage creates a new ingest stage.
func NewIngestStage(tracker service.Tracker, log *zap.Logger) *IngestStage {
	return &IngestStage{
		tracker: tracker,
		log:     log,
	}
}

// Start begins processing envelopes until the context is canceled or the
// input channel closes.
func (w *IngestStage) Start(ctx context.Context, in <-chan *Envelope) {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Ingest stage shutting down")
			return
		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Ingest stage input channel closed")
				return
			}
			w.process(ctx, envelope)
		}
	}
}

func (w *IngestStage) process(ctx context.Context, envelope *Envelope) {
	eventID, err := w.tracker.Ingest(ctx, envelope.Event, envelope.EventID)

	switch {
	case err == nil:
		if ackErr := envelope.Ack(ctx); ackErr != nil {
			w.log.Error("Failed to ack envelope",
				zap.String("event_id", eventID),
				zap.Error(ackErr))
		}
	case errors.Is(err, service.ErrValidation):
		// Invalid events never become valid on redelivery; drop them.
		w.log.Warn("Dropping invalid event",
			zap.String("event_id", envelope.EventID),
			zap.Error(err))
		if ackErr := envelope.Ack(ctx); ackErr != nil {
			w.log.Error("Failed to ack invalid envelope", zap.Error(ackErr))
		}
	default:
		w.log.Error("Failed to ingest event",
			zap.String("event_id", envelope.EventID),
			zap.Error(err))
		if nackErr := envelope.Nack(ctx); nackErr != nil {
			w.log.Error("Failed to nack envelope", zap.Error(nackErr))
		}
	}
}
