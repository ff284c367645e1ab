package transfer

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// TransferRecord is one row of the local transfer-history ledger.
type TransferRecord struct {
	ID          int64
	UploadedAt  time.Time
	Source      string
	DropboxPath string
	URL         string
	Size        int64
}

// History is a local SQLite ledger of completed uploads, queried by the
// `dropship history` command. It is advisory: recording is best-effort and
// a ledger failure never fails a transfer.
type History struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenHistory opens (creating if needed) the history database at path and
// applies pending schema migrations. Single writer, single connection.
func OpenHistory(ctx context.Context, path string, logger *slog.Logger) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("transfer: opening history db %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db, logger: logger}, nil
}

// runMigrations applies all pending schema migrations using the goose v3
// Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("transfer: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("transfer: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("transfer: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

// Record inserts one completed transfer.
func (h *History) Record(ctx context.Context, rec TransferRecord) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO transfers (uploaded_at, source, dropbox_path, url, size)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.UploadedAt.Format(time.RFC3339), rec.Source, rec.DropboxPath, rec.URL, rec.Size)
	if err != nil {
		return fmt.Errorf("transfer: recording transfer: %w", err)
	}

	return nil
}

// List returns the most recent transfers, newest first.
func (h *History) List(ctx context.Context, limit int) ([]TransferRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, uploaded_at, source, dropbox_path, url, size
		 FROM transfers ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("transfer: listing transfers: %w", err)
	}
	defer rows.Close()

	var records []TransferRecord

	for rows.Next() {
		var (
			rec      TransferRecord
			uploaded string
		)

		if err := rows.Scan(&rec.ID, &uploaded, &rec.Source, &rec.DropboxPath, &rec.URL, &rec.Size); err != nil {
			return nil, fmt.Errorf("transfer: scanning transfer row: %w", err)
		}

		t, parseErr := time.Parse(time.RFC3339, uploaded)
		if parseErr != nil {
			h.logger.Warn("invalid uploaded_at in history row",
				slog.Int64("id", rec.ID),
				slog.String("raw", uploaded),
			)
		}

		rec.UploadedAt = t
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transfer: iterating transfer rows: %w", err)
	}

	return records, nil
}

// Close releases the database handle.
func (h *History) Close() error {
	return h.db.Close()
}
