package sqlite

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/falconleb/shopify-tracker/internal/config"
)

// Client wraps the SQLite connection.
type Client struct {
	db     *sql.DB
	config *config.SQLite
	log    *zap.Logger
}

// NewClient opens the SQLite database at the configured path (":memory:" is
// accepted for tests). WAL mode keeps readers unblocked by the writer;
// busy_timeout makes concurrent writers queue on the database lock instead
// of failing, which is what serializes same-key upserts.
func NewClient(cfg *config.SQLite, log *zap.Logger) (*Client, error) {
	log.Info("Opening SQLite database", zap.String("path", cfg.Path))

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection also keeps
	// ":memory:" databases from silently splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	log.Info("SQLite database opened")

	return &Client{db: db, config: cfg, log: log}, nil
}

// DB returns the underlying connection pool.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database.
func (c *Client) Close() error {
	c.log.Info("Closing SQLite database")
	if err := c.db.Close(); err != nil {
		c.log.Error("Error closing SQLite database", zap.Error(err))
		return err
	}
	return nil
}
