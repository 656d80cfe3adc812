package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/domain"
	"github.com/falconleb/shopify-tracker/internal/repository"
)

// Repository implements repository.Store on SQLite.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the devices, sessions and events tables.
func (r *Repository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			device_id TEXT PRIMARY KEY,
			first_seen INTEGER NOT NULL,
			last_seen INTEGER NOT NULL,
			is_whatsapp_origin INTEGER NOT NULL DEFAULT 0,
			device_type TEXT NOT NULL DEFAULT '',
			device_brand TEXT NOT NULL DEFAULT '',
			device_model TEXT NOT NULL DEFAULT '',
			os_name TEXT NOT NULL DEFAULT '',
			os_version TEXT NOT NULL DEFAULT '',
			browser_name TEXT NOT NULL DEFAULT '',
			browser_version TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL DEFAULT '',
			first_seen INTEGER NOT NULL,
			last_seen INTEGER NOT NULL,
			traffic_source TEXT NOT NULL DEFAULT '',
			utm_source TEXT NOT NULL DEFAULT '',
			utm_medium TEXT NOT NULL DEFAULT '',
			utm_campaign TEXT NOT NULL DEFAULT '',
			utm_content TEXT NOT NULL DEFAULT '',
			referrer TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			event_name TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			device_id TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			referrer TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			traffic_source TEXT NOT NULL DEFAULT '',
			utm_source TEXT NOT NULL DEFAULT '',
			utm_medium TEXT NOT NULL DEFAULT '',
			utm_campaign TEXT NOT NULL DEFAULT '',
			utm_content TEXT NOT NULL DEFAULT '',
			geo_country TEXT NOT NULL DEFAULT '',
			geo_city TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_name ON events(event_name)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_last_seen ON devices(last_seen)`,
	}

	for _, stmt := range statements {
		if _, err := r.client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	r.log.Info("SQLite schema initialized successfully")
	return nil
}

// InTx runs fn inside a single transaction. Any error from fn rolls back
// every write of the unit.
func (r *Repository) InTx(ctx context.Context, fn func(repository.Tx) error) error {
	tx, err := r.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Tx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ping checks if the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.DB().PingContext(ctx)
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.client.Close()
}

// Overview returns store-wide totals and per-source event counts.
func (r *Repository) Overview(ctx context.Context) (*repository.OverviewResult, error) {
	db := r.client.DB()
	result := &repository.OverviewResult{BySource: []repository.SourceCount{}}

	row := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(DISTINCT session_id) FROM events WHERE session_id != ''),
			(SELECT COUNT(DISTINCT device_id) FROM events WHERE device_id != '')
	`)
	if err := row.Scan(&result.TotalEvents, &result.TotalSessions, &result.TotalDevices); err != nil {
		return nil, fmt.Errorf("failed to query overview totals: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT traffic_source, COUNT(*) AS total
		FROM events
		WHERE traffic_source != ''
		GROUP BY traffic_source
		ORDER BY total DESC, traffic_source ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by source: %w", err)
	}
	defer r.closeRows(rows)

	for rows.Next() {
		var sc repository.SourceCount
		if err := rows.Scan(&sc.TrafficSource, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source count row: %w", err)
		}
		result.BySource = append(result.BySource, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source count rows: %w", err)
	}

	return result, nil
}

// DeviceBreakdown returns distinct-device counts per classifier attribute.
func (r *Repository) DeviceBreakdown(ctx context.Context) (*repository.DeviceBreakdownResult, error) {
	result := &repository.DeviceBreakdownResult{}

	columns := []struct {
		column string
		dest   *[]repository.BreakdownCount
	}{
		{"device_type", &result.ByType},
		{"device_brand", &result.ByBrand},
		{"os_name", &result.ByOS},
		{"browser_name", &result.ByBrowser},
	}

	for _, c := range columns {
		counts, err := r.breakdown(ctx, c.column)
		if err != nil {
			return nil, err
		}
		*c.dest = counts
	}

	return result, nil
}

// breakdown groups devices by one attribute column. The column name comes
// from the fixed list above, never from user input.
func (r *Repository) breakdown(ctx context.Context, column string) ([]repository.BreakdownCount, error) {
	query := fmt.Sprintf(`
		SELECT CASE WHEN %s = '' THEN 'unknown' ELSE %s END AS val, COUNT(*) AS total
		FROM devices
		GROUP BY val
		ORDER BY total DESC, val ASC
	`, column, column)

	rows, err := r.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s breakdown: %w", column, err)
	}
	defer r.closeRows(rows)

	counts := []repository.BreakdownCount{}
	for rows.Next() {
		var bc repository.BreakdownCount
		if err := rows.Scan(&bc.Value, &bc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s breakdown row: %w", column, err)
		}
		counts = append(counts, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s breakdown rows: %w", column, err)
	}

	return counts, nil
}

// Realtime counts sessions and devices seen, and events created, at or
// after the cutoff.
func (r *Repository) Realtime(ctx context.Context, since int64) (*repository.RealtimeResult, error) {
	result := &repository.RealtimeResult{}

	row := r.client.DB().QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions WHERE last_seen >= ?),
			(SELECT COUNT(*) FROM devices WHERE last_seen >= ?),
			(SELECT COUNT(*) FROM events WHERE created_at >= ?)
	`, since, since, since)
	if err := row.Scan(&result.ActiveSessions, &result.ActiveDevices, &result.Events); err != nil {
		return nil, fmt.Errorf("failed to query realtime counts: %w", err)
	}

	return result, nil
}

// FunnelEvents returns every stage event that carries a session id.
func (r *Repository) FunnelEvents(ctx context.Context, stages []string) ([]repository.FunnelEvent, error) {
	if len(stages) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stages)), ",")
	args := make([]interface{}, len(stages))
	for i, s := range stages {
		args[i] = s
	}

	query := fmt.Sprintf(`
		SELECT event_name, session_id, traffic_source, metadata
		FROM events
		WHERE session_id != '' AND event_name IN (%s)
	`, placeholders)

	rows, err := r.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query funnel events: %w", err)
	}
	defer r.closeRows(rows)

	var events []repository.FunnelEvent
	for rows.Next() {
		var ev repository.FunnelEvent
		if err := rows.Scan(&ev.EventName, &ev.SessionID, &ev.TrafficSource, &ev.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan funnel event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funnel event rows: %w", err)
	}

	return events, nil
}

// SessionEvents returns all events of one session in chronological order.
func (r *Repository) SessionEvents(ctx context.Context, sessionID string) ([]domain.Event, error) {
	rows, err := r.client.DB().QueryContext(ctx, `
		SELECT event_id, event_name, session_id, device_id, url, referrer,
			user_agent, traffic_source, utm_source, utm_medium, utm_campaign,
			utm_content, geo_country, geo_city, metadata, created_at
		FROM events
		WHERE session_id = ?
		ORDER BY created_at ASC, event_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer r.closeRows(rows)

	var events []domain.Event
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(
			&ev.EventID, &ev.EventName, &ev.SessionID, &ev.DeviceID, &ev.URL,
			&ev.Referrer, &ev.UserAgent, &ev.TrafficSource, &ev.UTMSource,
			&ev.UTMMedium, &ev.UTMCampaign, &ev.UTMContent, &ev.GeoCountry,
			&ev.GeoCity, &ev.Metadata, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session event rows: %w", err)
	}

	return events, nil
}

// Timeseries counts events in hour or day buckets over the given range.
func (r *Repository) Timeseries(ctx context.Context, query repository.TimeseriesQuery) ([]repository.TimeseriesBucket, error) {
	var bucketExpr string
	switch query.Bucket {
	case "hour":
		bucketExpr = "strftime('%Y-%m-%d %H:00:00', created_at, 'unixepoch')"
	case "day":
		bucketExpr = "strftime('%Y-%m-%d', created_at, 'unixepoch')"
	default:
		return nil, fmt.Errorf("unsupported bucket value: %s (supported: hour, day)", query.Bucket)
	}

	stmt := fmt.Sprintf(`
		SELECT %s AS bucket, COUNT(*) AS total
		FROM events
		WHERE event_name = ? AND created_at >= ? AND created_at <= ?
		GROUP BY bucket
		ORDER BY bucket ASC
	`, bucketExpr)

	rows, err := r.client.DB().QueryContext(ctx, stmt, query.EventName, query.From, query.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeseries: %w", err)
	}
	defer r.closeRows(rows)

	buckets := []repository.TimeseriesBucket{}
	for rows.Next() {
		var b repository.TimeseriesBucket
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan timeseries row: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeseries rows: %w", err)
	}

	return buckets, nil
}

func (r *Repository) closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		r.log.Error("Failed to close rows", zap.Error(err))
	}
}
