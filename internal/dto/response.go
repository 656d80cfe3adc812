package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"event name is required"`
}

// TrackEventResponse represents a successful synchronous ingestion.
type TrackEventResponse struct {
	EventID string `json:"event_id" example:"evt_1a2b3c4d5e6f"`
	Status  string `json:"status" example:"recorded"`
}

// TrackBulkResponse represents a bulk enqueue result.
type TrackBulkResponse struct {
	Accepted int      `json:"accepted" example:"5"`
	Rejected int      `json:"rejected" example:"0"`
	EventIDs []string `json:"event_ids,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// SourceCountData is an event count for one traffic source.
type SourceCountData struct {
	TrafficSource string `json:"traffic_source" example:"whatsapp"`
	Count         uint64 `json:"count" example:"1500"`
}

// OverviewResponse represents store-wide totals.
type OverviewResponse struct {
	TotalEvents   uint64            `json:"total_events"`
	TotalSessions uint64            `json:"total_sessions"`
	TotalDevices  uint64            `json:"total_devices"`
	BySource      []SourceCountData `json:"by_source"`
}

// BreakdownData is a distinct-device count for one attribute value.
type BreakdownData struct {
	Value string `json:"value" example:"Phone"`
	Count uint64 `json:"count" example:"320"`
}

// DeviceBreakdownResponse groups distinct-device counts by attribute.
type DeviceBreakdownResponse struct {
	ByType    []BreakdownData `json:"by_type"`
	ByBrand   []BreakdownData `json:"by_brand"`
	ByOS      []BreakdownData `json:"by_os"`
	ByBrowser []BreakdownData `json:"by_browser"`
}

// RealtimeResponse counts activity inside the requested window.
type RealtimeResponse struct {
	WindowMinutes  int    `json:"window_minutes" example:"5"`
	ActiveSessions uint64 `json:"active_sessions"`
	ActiveDevices  uint64 `json:"active_devices"`
	Events         uint64 `json:"events"`
}

// FunnelStageCount is a distinct-session count for one funnel stage.
type FunnelStageCount struct {
	Stage    string `json:"stage" example:"purchase"`
	Sessions uint64 `json:"sessions" example:"42"`
}

// FunnelSourceReport is the per-stage funnel for one traffic source.
type FunnelSourceReport struct {
	TrafficSource string             `json:"traffic_source" example:"organic"`
	Stages        []FunnelStageCount `json:"stages"`
}

// FunnelProductReport is the per-stage funnel for one product.
type FunnelProductReport struct {
	ProductID    string             `json:"product_id"`
	ProductTitle string             `json:"product_title"`
	Stages       []FunnelStageCount `json:"stages"`
}

// FunnelResponse holds the three funnel reports computed from one scan.
type FunnelResponse struct {
	Overall   []FunnelStageCount    `json:"overall"`
	BySource  []FunnelSourceReport  `json:"by_source"`
	ByProduct []FunnelProductReport `json:"by_product"`
}

// SessionEventData is one event of a session detail response.
type SessionEventData struct {
	Event        string `json:"event"`
	URL          string `json:"url"`
	ProductID    string `json:"product_id,omitempty"`
	ProductTitle string `json:"product_title,omitempty"`
	Country      string `json:"country,omitempty"`
	City         string `json:"city,omitempty"`
	Source       string `json:"source,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// SessionDetailsResponse lists one session's events chronologically.
type SessionDetailsResponse struct {
	SessionID string             `json:"session_id"`
	Events    []SessionEventData `json:"events"`
}

// SessionInterestResponse reports a session's category affinity.
type SessionInterestResponse struct {
	SessionID  string  `json:"session_id"`
	DogScore   float64 `json:"dog_score"`
	CatScore   float64 `json:"cat_score"`
	OtherScore float64 `json:"other_score"`
	DogRatio   float64 `json:"dog_ratio"`
	CatRatio   float64 `json:"cat_ratio"`
	OtherRatio float64 `json:"other_ratio"`
	Interest   string  `json:"interest" example:"dogs"`
}

// TimeseriesPointData is one bucketed event count.
type TimeseriesPointData struct {
	Bucket string `json:"bucket" example:"2025-08-14 13:00:00"`
	Count  uint64 `json:"count" example:"120"`
}

// TimeseriesResponse represents a time-bucketed count query result.
type TimeseriesResponse struct {
	EventName string                `json:"event_name"`
	From      int64                 `json:"from"`
	To        int64                 `json:"to"`
	Bucket    string                `json:"bucket"`
	Points    []TimeseriesPointData `json:"points"`
}
