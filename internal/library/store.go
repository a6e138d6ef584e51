// SPDX-License-Identifier: MIT

package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// Store provides SQLite persistence for library metadata.
type Store struct {
	db *sql.DB
}

// NewStore initializes a new SQLite store and runs migrations.
// WAL mode plus busy_timeout suits the read-heavy query pattern.
func NewStore(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs database schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS library_roots (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		last_scan_time TEXT,
		last_scan_status TEXT NOT NULL DEFAULT 'never' CHECK(last_scan_status IN ('never', 'running', 'ok', 'degraded', 'failed')),
		total_items INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS library_items (
		root_id TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		filename TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		mod_time TEXT NOT NULL,
		scan_time TEXT NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'ok' CHECK(status IN ('ok', 'unreadable')),
		valid INTEGER NOT NULL DEFAULT 0,
		datasets INTEGER NOT NULL DEFAULT 0,
		encodings INTEGER NOT NULL DEFAULT 0,
		ml_methods INTEGER NOT NULL DEFAULT 0,
		reports INTEGER NOT NULL DEFAULT 0,
		instructions INTEGER NOT NULL DEFAULT 0,
		labels TEXT NOT NULL DEFAULT '',
		warning_count INTEGER NOT NULL DEFAULT 0,
		first_error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (root_id, rel_path)
	);

	CREATE INDEX IF NOT EXISTS idx_library_items_digest ON library_items(digest);
	CREATE INDEX IF NOT EXISTS idx_library_items_scan_time ON library_items(scan_time);
	CREATE INDEX IF NOT EXISTS idx_library_items_valid ON library_items(valid);
	`

	_, err := s.db.Exec(schema)
	return err
}

// UpsertRoot inserts or updates a library root.
func (s *Store) UpsertRoot(ctx context.Context, id, path string) error {
	query := `
	INSERT INTO library_roots (id, path, last_scan_status)
	VALUES (?, ?, 'never')
	ON CONFLICT(id) DO UPDATE SET path = excluded.path
	`
	_, err := s.db.ExecContext(ctx, query, id, path)
	return err
}

// GetRoots retrieves all library roots.
func (s *Store) GetRoots(ctx context.Context) ([]Root, error) {
	query := `
	SELECT id, path, last_scan_time, last_scan_status, total_items
	FROM library_roots
	ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var roots []Root
	for rows.Next() {
		var r Root
		var lastScanTimeStr sql.NullString

		if err := rows.Scan(&r.ID, &r.Path, &lastScanTimeStr, &r.LastScanStatus, &r.TotalItems); err != nil {
			return nil, err
		}

		if lastScanTimeStr.Valid {
			t, err := time.Parse(time.RFC3339Nano, lastScanTimeStr.String)
			if err == nil {
				r.LastScanTime = &t
			}
		}

		roots = append(roots, r)
	}

	return roots, rows.Err()
}

// GetRoot retrieves a single library root by ID.
func (s *Store) GetRoot(ctx context.Context, id string) (*Root, error) {
	query := `
	SELECT id, path, last_scan_time, last_scan_status, total_items
	FROM library_roots
	WHERE id = ?
	`

	var r Root
	var lastScanTimeStr sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Path, &lastScanTimeStr, &r.LastScanStatus, &r.TotalItems,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	if lastScanTimeStr.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastScanTimeStr.String)
		if err == nil {
			r.LastScanTime = &t
		}
	}

	return &r, nil
}

// UpdateRootScanStatus updates the scan metadata for a root.
func (s *Store) UpdateRootScanStatus(ctx context.Context, id string, status RootStatus, scanTime time.Time, totalItems int) error {
	query := `
	UPDATE library_roots
	SET last_scan_status = ?,
	    last_scan_time = ?,
	    total_items = ?
	WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query, status.String(), scanTime.UTC().Format(time.RFC3339), totalItems, id)
	return err
}

// UpsertItem inserts or updates a library item.
// Used within TX during scan.
func (s *Store) UpsertItem(ctx context.Context, tx *sql.Tx, item Item) error {
	query := `
	INSERT INTO library_items (root_id, rel_path, filename, size_bytes, mod_time, scan_time, digest, status, valid,
		datasets, encodings, ml_methods, reports, instructions, labels, warning_count, first_error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(root_id, rel_path) DO UPDATE SET
		filename = excluded.filename,
		size_bytes = excluded.size_bytes,
		mod_time = excluded.mod_time,
		scan_time = excluded.scan_time,
		digest = excluded.digest,
		status = excluded.status,
		valid = excluded.valid,
		datasets = excluded.datasets,
		encodings = excluded.encodings,
		ml_methods = excluded.ml_methods,
		reports = excluded.reports,
		instructions = excluded.instructions,
		labels = excluded.labels,
		warning_count = excluded.warning_count,
		first_error = excluded.first_error
	`

	_, err := tx.ExecContext(ctx, query,
		item.RootID,
		item.RelPath,
		item.Filename,
		item.SizeBytes,
		item.ModTime.UTC().Format(time.RFC3339),
		item.ScanTime.UTC().Format(time.RFC3339Nano),
		item.Digest,
		item.Status.String(),
		item.Valid,
		item.Datasets,
		item.Encodings,
		item.MLMethods,
		item.Reports,
		item.Instructions,
		labelsToDB(item.Labels),
		item.WarningCount,
		item.FirstError,
	)
	return err
}

// TouchItem bumps the scan timestamp of an unchanged item so it is not
// swept as stale. Used within TX during scan.
func (s *Store) TouchItem(ctx context.Context, tx *sql.Tx, rootID, relPath string, scanTime time.Time) error {
	query := `UPDATE library_items SET scan_time = ? WHERE root_id = ? AND rel_path = ?`
	_, err := tx.ExecContext(ctx, query, scanTime.UTC().Format(time.RFC3339Nano), rootID, relPath)
	return err
}

// DeleteStaleItems removes rows the current scan did not touch. Every row
// written or touched during a scan carries that scan's timestamp, so any
// other value marks a file that no longer exists under the root.
func (s *Store) DeleteStaleItems(ctx context.Context, tx *sql.Tx, rootID string, scanTime time.Time) (int64, error) {
	query := `DELETE FROM library_items WHERE root_id = ? AND scan_time != ?`
	res, err := tx.ExecContext(ctx, query, rootID, scanTime.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ItemStamp is the size and mtime of a stored item, used to decide whether
// a file needs re-reading during a scan.
type ItemStamp struct {
	SizeBytes int64
	ModTime   time.Time
}

// GetItemStamps returns the freshness stamps of all items under a root,
// keyed by relative path.
func (s *Store) GetItemStamps(ctx context.Context, rootID string) (map[string]ItemStamp, error) {
	query := `SELECT rel_path, size_bytes, mod_time FROM library_items WHERE root_id = ?`

	rows, err := s.db.QueryContext(ctx, query, rootID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	stamps := make(map[string]ItemStamp)
	for rows.Next() {
		var rel, modTimeStr string
		var size int64
		if err := rows.Scan(&rel, &size, &modTimeStr); err != nil {
			return nil, err
		}
		modTime, _ := time.Parse(time.RFC3339, modTimeStr)
		stamps[rel] = ItemStamp{SizeBytes: size, ModTime: modTime}
	}

	return stamps, rows.Err()
}

// BeginTx starts a new transaction.
// Used by scanner for atomic upserts.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}
