package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webgrep/internal/resource"
)

// fileName is the database file name under the history directory.
const fileName = "webgrep.db"

// DB stores fetch records in SQLite. It manages a single connection;
// the traversal is sequential, so there is no write contention.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Open opens or creates the history database under dir.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	dbPath := filepath.Join(dir, fileName)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite supports one writer; a single connection avoids lock
	// contention entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &DB{db: db, dbPath: dbPath}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return h, nil
}

// Close closes the database connection.
func (h *DB) Close() error {
	return h.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (h *DB) createTables() error {
	schema := `
	-- Fetch records store one row per materialized resource.
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_url TEXT NOT NULL,
		url TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		type TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(root_url, rel_path)
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_root ON fetches(root_url);
	CREATE INDEX IF NOT EXISTS idx_fetches_timestamp ON fetches(timestamp);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Record is a stored fetch result.
type Record struct {
	ID          int64
	RootURL     string
	URL         string
	RelPath     string
	Type        resource.Type
	StatusCode  int
	ContentType string
	Timestamp   time.Time
}

// Insert inserts or updates a fetch record. Re-fetching the same path
// under the same root updates the existing row.
func (h *DB) Insert(ctx context.Context, rec *Record) error {
	query := `
	INSERT INTO fetches (root_url, url, rel_path, type, status_code, content_type)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(root_url, rel_path) DO UPDATE SET
		url = excluded.url,
		type = excluded.type,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := h.db.ExecContext(ctx, query,
		rec.RootURL,
		rec.URL,
		rec.RelPath,
		rec.Type.String(),
		rec.StatusCode,
		rec.ContentType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fetch record: %w", err)
	}
	return nil
}

// List returns fetch records, newest first. When rootURL is non-empty,
// only records under that root are returned.
func (h *DB) List(ctx context.Context, rootURL string) ([]*Record, error) {
	query := `
	SELECT id, root_url, url, rel_path, type, status_code, content_type, timestamp
	FROM fetches
	`
	args := make([]any, 0, 1)
	if rootURL != "" {
		query += " WHERE root_url = ?"
		args = append(args, rootURL)
	}
	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	records := make([]*Record, 0)
	for rows.Next() {
		var rec Record
		var typ string
		var ts string
		if err := rows.Scan(&rec.ID, &rec.RootURL, &rec.URL, &rec.RelPath,
			&typ, &rec.StatusCode, &rec.ContentType, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan fetch record: %w", err)
		}
		rec.Type = resource.Type(typ)
		if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
			rec.Timestamp = t
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fetch records: %w", err)
	}

	return records, nil
}
