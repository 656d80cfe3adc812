package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/falconleb/shopify-tracker/internal/domain"
)

// Tx implements repository.Tx on one SQLite transaction.
type Tx struct {
	tx *sql.Tx
}

// GetDevice looks up a device, returning nil when absent.
func (t *Tx) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	var d domain.Device
	err := t.tx.QueryRowContext(ctx, `
		SELECT device_id, first_seen, last_seen, is_whatsapp_origin,
			device_type, device_brand, device_model, os_name, os_version,
			browser_name, browser_version
		FROM devices
		WHERE device_id = ?
	`, deviceID).Scan(
		&d.DeviceID, &d.FirstSeen, &d.LastSeen, &d.IsWhatsappOrigin,
		&d.DeviceType, &d.DeviceBrand, &d.DeviceModel, &d.OSName,
		&d.OSVersion, &d.BrowserName, &d.BrowserVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &d, nil
}

// UpsertDevice writes the full device row. The caller owns the
// read-modify-write semantics; on conflict every column except the primary
// key takes the incoming value.
func (t *Tx) UpsertDevice(ctx context.Context, device *domain.Device) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO devices (
			device_id, first_seen, last_seen, is_whatsapp_origin,
			device_type, device_brand, device_model, os_name, os_version,
			browser_name, browser_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen,
			is_whatsapp_origin = excluded.is_whatsapp_origin,
			device_type = excluded.device_type,
			device_brand = excluded.device_brand,
			device_model = excluded.device_model,
			os_name = excluded.os_name,
			os_version = excluded.os_version,
			browser_name = excluded.browser_name,
			browser_version = excluded.browser_version
	`,
		device.DeviceID, device.FirstSeen, device.LastSeen, device.IsWhatsappOrigin,
		device.DeviceType, device.DeviceBrand, device.DeviceModel, device.OSName,
		device.OSVersion, device.BrowserName, device.BrowserVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// GetSession looks up a session, returning nil when absent.
func (t *Tx) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s domain.Session
	err := t.tx.QueryRowContext(ctx, `
		SELECT session_id, device_id, first_seen, last_seen, traffic_source,
			utm_source, utm_medium, utm_campaign, utm_content, referrer,
			user_agent
		FROM sessions
		WHERE session_id = ?
	`, sessionID).Scan(
		&s.SessionID, &s.DeviceID, &s.FirstSeen, &s.LastSeen, &s.TrafficSource,
		&s.UTMSource, &s.UTMMedium, &s.UTMCampaign, &s.UTMContent, &s.Referrer,
		&s.UserAgent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// UpsertSession writes the full session row.
func (t *Tx) UpsertSession(ctx context.Context, session *domain.Session) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, device_id, first_seen, last_seen, traffic_source,
			utm_source, utm_medium, utm_campaign, utm_content, referrer,
			user_agent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			device_id = excluded.device_id,
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen,
			traffic_source = excluded.traffic_source,
			utm_source = excluded.utm_source,
			utm_medium = excluded.utm_medium,
			utm_campaign = excluded.utm_campaign,
			utm_content = excluded.utm_content,
			referrer = excluded.referrer,
			user_agent = excluded.user_agent
	`,
		session.SessionID, session.DeviceID, session.FirstSeen, session.LastSeen,
		session.TrafficSource, session.UTMSource, session.UTMMedium,
		session.UTMCampaign, session.UTMContent, session.Referrer, session.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// AppendEvent inserts the event. A duplicate event_id is silently ignored
// so redelivered messages cannot double-append.
func (t *Tx) AppendEvent(ctx context.Context, event *domain.Event) error {
	metadata := event.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO events (
			event_id, event_name, session_id, device_id, url, referrer,
			user_agent, traffic_source, utm_source, utm_medium, utm_campaign,
			utm_content, geo_country, geo_city, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`,
		event.EventID, event.EventName, event.SessionID, event.DeviceID,
		event.URL, event.Referrer, event.UserAgent, event.TrafficSource,
		event.UTMSource, event.UTMMedium, event.UTMCampaign, event.UTMContent,
		event.GeoCountry, event.GeoCity, metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}
