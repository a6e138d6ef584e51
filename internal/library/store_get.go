// SPDX-License-Identifier: MIT

package library

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const itemColumns = `root_id, rel_path, filename, size_bytes, mod_time, scan_time, digest, status, valid,
	datasets, encodings, ml_methods, reports, instructions, labels, warning_count, first_error`

// scanItem reads one item row. The scan argument is rows.Scan or row.Scan.
func scanItem(scan func(dest ...any) error) (Item, error) {
	var (
		item       Item
		modTimeStr string
		scanStr    string
		labelsStr  string
	)
	if err := scan(
		&item.RootID,
		&item.RelPath,
		&item.Filename,
		&item.SizeBytes,
		&modTimeStr,
		&scanStr,
		&item.Digest,
		&item.Status,
		&item.Valid,
		&item.Datasets,
		&item.Encodings,
		&item.MLMethods,
		&item.Reports,
		&item.Instructions,
		&labelsStr,
		&item.WarningCount,
		&item.FirstError,
	); err != nil {
		return Item{}, err
	}
	item.ModTime, _ = time.Parse(time.RFC3339, modTimeStr)
	item.ScanTime, _ = time.Parse(time.RFC3339Nano, scanStr)
	item.Labels = labelsFromDB(labelsStr)
	return item, nil
}

func labelsToDB(labels []string) string {
	return strings.Join(labels, ",")
}

func labelsFromDB(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// GetItems retrieves paginated library items for a root.
func (s *Store) GetItems(ctx context.Context, rootID string, limit, offset int) ([]Item, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM library_items WHERE root_id = ?`
	if err := s.db.QueryRowContext(ctx, countQuery, rootID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + ` FROM library_items WHERE root_id = ? ORDER BY rel_path LIMIT ? OFFSET ?`
	return s.queryItems(ctx, query, total, rootID, limit, offset)
}

// ListItems retrieves paginated library items across all roots.
func (s *Store) ListItems(ctx context.Context, limit, offset int) ([]Item, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_items`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + ` FROM library_items ORDER BY root_id, rel_path LIMIT ? OFFSET ?`
	return s.queryItems(ctx, query, total, limit, offset)
}

func (s *Store) queryItems(ctx context.Context, query string, total int, args ...any) ([]Item, int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}

	return items, total, rows.Err()
}

// GetItem retrieves a single library item by root ID and relative path.
func (s *Store) GetItem(ctx context.Context, rootID, relPath string) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM library_items WHERE root_id = ? AND rel_path = ?`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, rootID, relPath).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByDigest retrieves the first item whose content digest matches.
// Identical files indexed under several paths share a digest; the row with
// the smallest root and path wins.
func (s *Store) GetItemByDigest(ctx context.Context, digest string) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM library_items WHERE digest = ? ORDER BY root_id, rel_path LIMIT 1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, digest).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CountItems returns the total number of indexed items and how many of
// them hold a valid spec. Used by the metrics gauges.
func (s *Store) CountItems(ctx context.Context) (total, valid int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(valid), 0) FROM library_items`).Scan(&total, &valid)
	return total, valid, err
}
