package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"album-slideshow/internal/logging"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	slide_interval INTEGER NOT NULL,
	refresh_hours INTEGER NOT NULL,
	fill_mode TEXT NOT NULL,
	orientation_mode TEXT NOT NULL,
	order_mode TEXT NOT NULL,
	aspect_ratio TEXT NOT NULL,
	divider_px INTEGER NOT NULL,
	divider_color TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// DB persists slideshow settings across restarts.
type DB struct {
	db     *sql.DB
	dbPath string
}

// OpenDB opens (or creates) the settings database at dbPath. The parent
// directory must already exist and be writable; startup.LoadConfig validates
// this before wiring.
func OpenDB(ctx context.Context, dbPath string) (*DB, error) {
	logging.Info("Settings database path: %s", dbPath)

	// WAL keeps the single-row writes cheap under concurrent polling
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close settings database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to settings database: %w", err)
	}

	if _, err := db.ExecContext(pingCtx, settingsSchema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close settings database after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to create settings schema: %w", err)
	}

	return &DB{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// Load reads the persisted settings row. The second return value is false
// when nothing has been persisted yet.
func (d *DB) Load(ctx context.Context) (Values, bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v Values
	row := d.db.QueryRowContext(queryCtx, `
		SELECT slide_interval, refresh_hours, fill_mode, orientation_mode,
		       order_mode, aspect_ratio, divider_px, divider_color
		FROM settings WHERE id = 1`)

	err := row.Scan(
		&v.SlideInterval, &v.RefreshHours, &v.FillMode, &v.OrientationMode,
		&v.OrderMode, &v.AspectRatio, &v.DividerPx, &v.DividerColor,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Values{}, false, nil
	}
	if err != nil {
		return Values{}, false, fmt.Errorf("failed to load settings: %w", err)
	}
	return v, true, nil
}

// Save upserts the single settings row.
func (d *DB) Save(ctx context.Context, v Values) error {
	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(execCtx, `
		INSERT INTO settings (
			id, slide_interval, refresh_hours, fill_mode, orientation_mode,
			order_mode, aspect_ratio, divider_px, divider_color, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slide_interval = excluded.slide_interval,
			refresh_hours = excluded.refresh_hours,
			fill_mode = excluded.fill_mode,
			orientation_mode = excluded.orientation_mode,
			order_mode = excluded.order_mode,
			aspect_ratio = excluded.aspect_ratio,
			divider_px = excluded.divider_px,
			divider_color = excluded.divider_color,
			updated_at = excluded.updated_at`,
		v.SlideInterval, v.RefreshHours, string(v.FillMode), string(v.OrientationMode),
		string(v.OrderMode), v.AspectRatio, v.DividerPx, v.DividerColor, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
