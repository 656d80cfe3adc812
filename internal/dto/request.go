package dto

// TrackEventRequest represents one inbound storefront event. Timestamp is
// the client clock and is accepted for display only; the stored created_at
// always comes from the server clock.
type TrackEventRequest struct {
	Event         string                 `json:"event" binding:"required" example:"product_view"`
	SessionID     string                 `json:"session_id" example:"sess_8f21c0"`
	DeviceID      string                 `json:"device_id" example:"dev_41c7aa"`
	URL           string                 `json:"url" example:"https://shop.example.com/products/dog-leash"`
	Referrer      string                 `json:"referrer"`
	UserAgent     string                 `json:"user_agent"`
	TrafficSource string                 `json:"traffic_source" example:"whatsapp"`
	UTMSource     string                 `json:"utm_source"`
	UTMMedium     string                 `json:"utm_medium"`
	UTMCampaign   string                 `json:"utm_campaign"`
	UTMContent    string                 `json:"utm_content"`
	GeoCountry    string                 `json:"geo_country"`
	GeoCity       string                 `json:"geo_city"`
	ProductID     string                 `json:"product_id"`
	ProductTitle  string                 `json:"product_title"`
	CartToken     string                 `json:"cart_token"`
	ItemsCount    int                    `json:"items_count"`
	Timestamp     int64                  `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// TrackEventsBulkRequest represents a bulk track request.
type TrackEventsBulkRequest struct {
	Events []TrackEventRequest `json:"events" binding:"required,min=1,max=1000,dive"`
}

// RealtimeRequest represents a realtime window query.
type RealtimeRequest struct {
	WindowMinutes int `form:"window_minutes" binding:"required,min=1" example:"5"`
}

// TimeseriesRequest represents a time-bucketed count query.
type TimeseriesRequest struct {
	EventName string `form:"event_name" binding:"required" example:"product_view"`
	From      int64  `form:"from" binding:"required" example:"1723475612"`
	To        int64  `form:"to" binding:"required" example:"1723562012"`
	Bucket    string `form:"bucket" example:"hour"`
}
