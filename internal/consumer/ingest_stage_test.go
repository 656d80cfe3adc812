package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/dto"
	"github.com/falconleb/shopify-tracker/internal/service"
)

// MockTracker is a mock implementation of service.Tracker
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Ingest(ctx context.Context, req *dto.TrackEventRequest, eventID string) (string, error) {
	args := m.Called(ctx, req, eventID)
	return args.String(0), args.Error(1)
}

func (m *MockTracker) EnqueueBulk(ctx context.Context, events []dto.TrackEventRequest) ([]string, []string, error) {
	args := m.Called(ctx, events)
	var ids, errs []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	if args.Get(1) != nil {
		errs = args.Get(1).([]string)
	}
	return ids, errs, args.Error(2)
}

// ackRecorder captures ack/nack outcomes for one envelope.
type ackRecorder struct {
	acked  bool
	nacked bool
}

func (r *ackRecorder) envelope(event *dto.TrackEventRequest, eventID string) *Envelope {
	return NewEnvelope(event, eventID,
		func(context.Context) error { r.acked = true; return nil },
		func(context.Context) error { r.nacked = true; return nil })
}

func runIngestStage(t *testing.T, tracker *MockTracker, envelope *Envelope) {
	t.Helper()

	stage := NewIngestStage(tracker, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	in := make(chan *Envelope, 1)
	in <- envelope
	close(in)

	stage.Start(ctx, in)
}

func TestIngestStage_Success_Acks(t *testing.T) {
	tracker := new(MockTracker)
	tracker.On("Ingest", mock.Anything, mock.Anything, "evt-1").Return("evt-1", nil)

	recorder := &ackRecorder{}
	event := &dto.TrackEventRequest{Event: "product_view", SessionID: "sess-1"}

	runIngestStage(t, tracker, recorder.envelope(event, "evt-1"))

	assert.True(t, recorder.acked)
	assert.False(t, recorder.nacked)
	tracker.AssertExpectations(t)
}

func TestIngestStage_ValidationFailure_DropsMessage(t *testing.T) {
	tracker := new(MockTracker)
	tracker.On("Ingest", mock.Anything, mock.Anything, "evt-1").
		Return("", fmt.Errorf("%w: event name is required", service.ErrValidation))

	recorder := &ackRecorder{}
	event := &dto.TrackEventRequest{SessionID: "sess-1"}

	runIngestStage(t, tracker, recorder.envelope(event, "evt-1"))

	// Redelivery cannot fix an invalid event, so it is acked away
	assert.True(t, recorder.acked)
	assert.False(t, recorder.nacked)
}

func TestIngestStage_StorageFailure_NacksForRedelivery(t *testing.T) {
	tracker := new(MockTracker)
	tracker.On("Ingest", mock.Anything, mock.Anything, "evt-1").
		Return("", errors.New("failed to ingest event: database is locked"))

	recorder := &ackRecorder{}
	event := &dto.TrackEventRequest{Event: "purchase", SessionID: "sess-1"}

	runIngestStage(t, tracker, recorder.envelope(event, "evt-1"))

	assert.False(t, recorder.acked)
	assert.True(t, recorder.nacked)
}

func TestIngestStage_ContextCancellation(t *testing.T) {
	stage := NewIngestStage(new(MockTracker), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := make(chan *Envelope)

	done := make(chan struct{})
	go func() {
		stage.Start(ctx, in)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Stage did not stop on context cancellation")
	}
}
