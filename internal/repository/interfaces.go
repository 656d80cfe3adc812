package repository

import (
	"context"

	"github.com/falconleb/shopify-tracker/internal/domain"
)

// Tx is the write surface of one atomic ingestion unit. Device upsert,
// session upsert and event append all commit or roll back together. Lookups
// return nil without error when the row does not exist.
type Tx interface {
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	UpsertDevice(ctx context.Context, device *domain.Device) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	UpsertSession(ctx context.Context, session *domain.Session) error

	// AppendEvent inserts the event, ignoring a duplicate event_id so that
	// at-least-once redelivery cannot double-append.
	AppendEvent(ctx context.Context, event *domain.Event) error
}

// SourceCount is an event count for one traffic source.
type SourceCount struct {
	TrafficSource string
	Count         uint64
}

// OverviewResult holds store-wide totals.
type OverviewResult struct {
	TotalEvents   uint64
	TotalSessions uint64
	TotalDevices  uint64
	BySource      []SourceCount
}

// BreakdownCount is a distinct-device count for one attribute value.
type BreakdownCount struct {
	Value string
	Count uint64
}

// DeviceBreakdownResult groups distinct-device counts by classifier
// attribute. Empty attributes are reported as "unknown".
type DeviceBreakdownResult struct {
	ByType    []BreakdownCount
	ByBrand   []BreakdownCount
	ByOS      []BreakdownCount
	ByBrowser []BreakdownCount
}

// RealtimeResult counts entities active since a cutoff timestamp.
type RealtimeResult struct {
	ActiveSessions uint64
	ActiveDevices  uint64
	Events         uint64
}

// FunnelEvent is one row of the funnel scan: a stage event with the fields
// the funnel reports partition on.
type FunnelEvent struct {
	EventName     string
	SessionID     string
	TrafficSource string
	Metadata      string
}

// TimeseriesQuery selects events for time-bucketed counting.
type TimeseriesQuery struct {
	EventName string
	From      int64
	To        int64
	Bucket    string
}

// TimeseriesBucket is one bucketed event count.
type TimeseriesBucket struct {
	Bucket string
	Count  uint64
}

// Store is the storage collaborator for the tracking engine. Writes go
// through InTx; the remaining methods are read-only aggregation primitives
// and may run concurrently with ingestion.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	InitSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	Overview(ctx context.Context) (*OverviewResult, error)
	DeviceBreakdown(ctx context.Context) (*DeviceBreakdownResult, error)
	Realtime(ctx context.Context, since int64) (*RealtimeResult, error)

	// FunnelEvents returns every event whose name is in stages and that
	// carries a session id, in a single scan.
	FunnelEvents(ctx context.Context, stages []string) ([]FunnelEvent, error)

	// SessionEvents returns all events of one session in chronological
	// order.
	SessionEvents(ctx context.Context, sessionID string) ([]domain.Event, error)

	Timeseries(ctx context.Context, query TimeseriesQuery) ([]TimeseriesBucket, error)
}
