package domain

// Device represents one client installation or browser instance, keyed by
// the client-supplied opaque device id. Classification fields are derived
// from the raw user-agent string and may be empty when the signature is
// unknown.
type Device struct {
	DeviceID         string
	FirstSeen        int64
	LastSeen         int64
	IsWhatsappOrigin bool
	DeviceType       string
	DeviceBrand      string
	DeviceModel      string
	OSName           string
	OSVersion        string
	BrowserName      string
	BrowserVersion   string
}
