package domain

// Event represents a single immutable tracking event. CreatedAt is assigned
// from the server clock at ingestion time; client timestamps are never
// stored. Metadata is a JSON-encoded key/value payload, commonly carrying
// product_id and product_title.
type Event struct {
	EventID       string
	EventName     string
	SessionID     string
	DeviceID      string
	URL           string
	Referrer      string
	UserAgent     string
	TrafficSource string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	UTMContent    string
	GeoCountry    string
	GeoCity       string
	Metadata      string
	CreatedAt     int64
}
