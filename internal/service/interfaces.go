package service

import (
	"context"

	"github.com/falconleb/shopify-tracker/internal/dto"
)

// Tracker ingests storefront events through identity resolution and
// recording.
type Tracker interface {
	// Ingest applies one event as a single atomic unit: device upsert,
	// session upsert, event append. An empty eventID gets a generated one;
	// the returned id is the one stored.
	Ingest(ctx context.Context, req *dto.TrackEventRequest, eventID string) (string, error)

	// EnqueueBulk publishes events to the queue for asynchronous ingestion
	// and returns the accepted event ids and per-event errors.
	EnqueueBulk(ctx context.Context, events []dto.TrackEventRequest) ([]string, []string, error)
}

// Analytics serves the read-side queries over accumulated state.
type Analytics interface {
	Overview(ctx context.Context) (*dto.OverviewResponse, error)
	Devices(ctx context.Context) (*dto.DeviceBreakdownResponse, error)
	Realtime(ctx context.Context, windowMinutes int) (*dto.RealtimeResponse, error)
	Funnel(ctx context.Context) (*dto.FunnelResponse, error)
	SessionDetails(ctx context.Context, sessionID string) (*dto.SessionDetailsResponse, error)
	SessionInterest(ctx context.Context, sessionID string) (*dto.SessionInterestResponse, error)
	Timeseries(ctx context.Context, req *dto.TimeseriesRequest) (*dto.TimeseriesResponse, error)
}
