package domain

// Session represents one continuous visit scoped to a device. Attribution
// fields are captured when the session is first seen and never overwritten;
// only LastSeen (and TrafficSource, while still empty) change afterwards.
type Session struct {
	SessionID     string
	DeviceID      string
	FirstSeen     int64
	LastSeen      int64
	TrafficSource string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	UTMContent    string
	Referrer      string
	UserAgent     string
}
