// SPDX-License-Identifier: MIT

// Package library indexes analysis specs found under configured roots.
// The scanner walks each root, digests and validates every YAML spec it
// finds, and records the outcome in a local SQLite database that the API
// and the CLI query.
package library

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RootStatus represents the runtime state of a library root.
type RootStatus string

const (
	RootStatusNever    RootStatus = "never"    // Not yet scanned
	RootStatusRunning  RootStatus = "running"  // Scan in progress
	RootStatusOK       RootStatus = "ok"       // Last scan successful
	RootStatusDegraded RootStatus = "degraded" // Last scan had partial errors
	RootStatusFailed   RootStatus = "failed"   // Last scan failed completely
)

// String returns the string representation of RootStatus.
func (r RootStatus) String() string {
	return string(r)
}

// DefaultMaxDepth bounds directory recursion during scans.
const DefaultMaxDepth = 16

// DefaultExtensions lists the file extensions the scanner indexes.
var DefaultExtensions = []string{".yaml", ".yml"}

// RootConfig describes one directory tree of spec files to index.
type RootConfig struct {
	ID         string   // Stable identifier derived from the path
	Path       string   // Directory path on the host
	MaxDepth   int      // Maximum directory depth below the root, 0 means unlimited
	IncludeExt []string // File extensions to index
}

// AllowsFile reports whether a filename passes the root's extension filter.
// An empty filter admits everything.
func (c RootConfig) AllowsFile(name string) bool {
	if len(c.IncludeExt) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, a := range c.IncludeExt {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}

// RootsFromPaths derives root configurations from plain directory paths.
// IDs come from the directory basename; colliding basenames get a short
// path-hash suffix so IDs stay stable regardless of configuration order.
// Duplicate paths are dropped.
func RootsFromPaths(paths []string) []RootConfig {
	counts := make(map[string]int, len(paths))
	seen := make(map[string]struct{}, len(paths))
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		c := filepath.Clean(p)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cleaned = append(cleaned, c)
		counts[rootSlug(c)]++
	}

	roots := make([]RootConfig, 0, len(cleaned))
	for _, p := range cleaned {
		id := rootSlug(p)
		if counts[id] > 1 {
			sum := sha256.Sum256([]byte(p))
			id = fmt.Sprintf("%s-%s", id, hex.EncodeToString(sum[:3]))
		}
		roots = append(roots, RootConfig{
			ID:         id,
			Path:       p,
			MaxDepth:   DefaultMaxDepth,
			IncludeExt: DefaultExtensions,
		})
	}
	return roots
}

func rootSlug(path string) string {
	base := strings.ToLower(filepath.Base(path))
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "root"
	}
	return slug
}

// Root represents a library root with runtime status.
type Root struct {
	ID             string     `json:"id"`
	Path           string     `json:"path"`
	LastScanTime   *time.Time `json:"last_scan_time,omitempty"`
	LastScanStatus RootStatus `json:"last_scan_status"`
	TotalItems     int        `json:"total_items"`
}

// ItemStatus represents the file-level state of a single library item.
// Whether the spec itself is valid is tracked separately on the item.
type ItemStatus string

const (
	ItemStatusOK         ItemStatus = "ok"         // File readable
	ItemStatusUnreadable ItemStatus = "unreadable" // File exists but cannot be read
)

// String returns the string representation of ItemStatus.
func (i ItemStatus) String() string {
	return string(i)
}

// Item represents a single spec file in the library. Digest is the sha256
// of the file contents; the remaining fields summarize the parse and
// validation outcome so listings never need to re-read the file.
type Item struct {
	RootID       string     `json:"root_id"`
	RelPath      string     `json:"rel_path"`
	Filename     string     `json:"filename"`
	SizeBytes    int64      `json:"size_bytes"`
	ModTime      time.Time  `json:"mod_time"`
	ScanTime     time.Time  `json:"scan_time"`
	Digest       string     `json:"digest,omitempty"`
	Status       ItemStatus `json:"status"`
	Valid        bool       `json:"valid"`
	Datasets     int        `json:"datasets"`
	Encodings    int        `json:"encodings"`
	MLMethods    int        `json:"ml_methods"`
	Reports      int        `json:"reports"`
	Instructions int        `json:"instructions"`
	Labels       []string   `json:"labels,omitempty"`
	WarningCount int        `json:"warning_count"`
	FirstError   string     `json:"first_error,omitempty"`
}

// ScanResult represents the outcome of a library root scan.
type ScanResult struct {
	RootID         string
	Started        time.Time
	Finished       time.Time
	TotalScanned   int // Live items after the scan
	ItemsIndexed   int // New items added
	ItemsUpdated   int // Changed items re-parsed
	ItemsUnchanged int // Items whose size and mtime matched the stored row
	ItemsRemoved   int // Rows deleted for files that vanished
	ErrorCount     int // IO and database errors encountered
	FinalStatus    RootStatus
	LastError      string
}

// String renders a one-line scan summary for logs and CLI output.
func (s *ScanResult) String() string {
	return fmt.Sprintf("root=%s scanned=%d indexed=%d updated=%d unchanged=%d removed=%d errors=%d status=%s",
		s.RootID, s.TotalScanned, s.ItemsIndexed, s.ItemsUpdated, s.ItemsUnchanged, s.ItemsRemoved, s.ErrorCount, s.FinalStatus)
}
