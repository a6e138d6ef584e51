// SPDX-License-Identifier: MIT

package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func testItem(rootID, relPath, digest string) Item {
	mod := time.Date(2026, 5, 11, 10, 0, 0, 0, time.UTC)
	return Item{
		RootID:       rootID,
		RelPath:      relPath,
		Filename:     filepath.Base(relPath),
		SizeBytes:    256,
		ModTime:      mod,
		ScanTime:     mod.Add(time.Hour),
		Digest:       digest,
		Status:       ItemStatusOK,
		Valid:        true,
		Datasets:     1,
		Encodings:    2,
		MLMethods:    1,
		Reports:      1,
		Instructions: 1,
		Labels:       []string{"signal_disease"},
	}
}

func upsertItems(t *testing.T, store *Store, items ...Item) {
	t.Helper()
	ctx := context.Background()
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	for _, item := range items {
		if err := store.UpsertItem(ctx, tx, item); err != nil {
			t.Fatalf("upsert %s: %v", item.RelPath, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestStoreRoots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertRoot(ctx, "specs", "/data/specs"); err != nil {
		t.Fatalf("upsert root: %v", err)
	}

	root, err := store.GetRoot(ctx, "specs")
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	if root == nil {
		t.Fatal("expected root, got nil")
	}
	if root.Path != "/data/specs" {
		t.Errorf("path = %q, want /data/specs", root.Path)
	}
	if root.LastScanStatus != RootStatusNever {
		t.Errorf("status = %q, want never", root.LastScanStatus)
	}
	if root.LastScanTime != nil {
		t.Errorf("expected nil LastScanTime, got %v", root.LastScanTime)
	}

	if err := store.UpsertRoot(ctx, "specs", "/srv/specs"); err != nil {
		t.Fatalf("re-upsert root: %v", err)
	}
	root, err = store.GetRoot(ctx, "specs")
	if err != nil {
		t.Fatalf("get root after move: %v", err)
	}
	if root.Path != "/srv/specs" {
		t.Errorf("path after move = %q, want /srv/specs", root.Path)
	}

	if err := store.UpsertRoot(ctx, "archive", "/data/archive"); err != nil {
		t.Fatalf("upsert second root: %v", err)
	}
	roots, err := store.GetRoots(ctx)
	if err != nil {
		t.Fatalf("get roots: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	if roots[0].ID != "archive" || roots[1].ID != "specs" {
		t.Errorf("roots not ordered by id: %q, %q", roots[0].ID, roots[1].ID)
	}

	scanned := time.Date(2026, 5, 11, 12, 0, 0, 0, time.UTC)
	if err := store.UpdateRootScanStatus(ctx, "specs", RootStatusOK, scanned, 7); err != nil {
		t.Fatalf("update scan status: %v", err)
	}
	root, err = store.GetRoot(ctx, "specs")
	if err != nil {
		t.Fatalf("get root after scan: %v", err)
	}
	if root.LastScanStatus != RootStatusOK {
		t.Errorf("status = %q, want ok", root.LastScanStatus)
	}
	if root.TotalItems != 7 {
		t.Errorf("total items = %d, want 7", root.TotalItems)
	}
	if root.LastScanTime == nil || !root.LastScanTime.Equal(scanned) {
		t.Errorf("last scan time = %v, want %v", root.LastScanTime, scanned)
	}

	// Re-registering at startup must not reset scan state.
	if err := store.UpsertRoot(ctx, "specs", "/srv/specs"); err != nil {
		t.Fatalf("re-upsert scanned root: %v", err)
	}
	root, err = store.GetRoot(ctx, "specs")
	if err != nil {
		t.Fatalf("get re-upserted root: %v", err)
	}
	if root.LastScanStatus != RootStatusOK || root.TotalItems != 7 {
		t.Errorf("scan state reset by upsert: status=%q items=%d", root.LastScanStatus, root.TotalItems)
	}

	missing, err := store.GetRoot(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing root: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing root, got %+v", missing)
	}
}

func TestStoreItemsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertRoot(ctx, "specs", "/data/specs"); err != nil {
		t.Fatalf("upsert root: %v", err)
	}

	broken := testItem("specs", "c.yaml", "ccc")
	broken.Valid = false
	broken.Datasets = 0
	broken.Labels = nil
	broken.FirstError = "validation failed for definitions: section is required"

	upsertItems(t, store,
		testItem("specs", "a.yaml", "aaa"),
		testItem("specs", "b/nested.yaml", "bbb"),
		broken,
	)

	items, total, err := store.GetItems(ctx, "specs", 10, 0)
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("got %d items (total %d), want 3", len(items), total)
	}
	if items[0].RelPath != "a.yaml" || items[1].RelPath != "b/nested.yaml" || items[2].RelPath != "c.yaml" {
		t.Errorf("items not ordered by rel_path: %q, %q, %q", items[0].RelPath, items[1].RelPath, items[2].RelPath)
	}

	got := items[0]
	want := testItem("specs", "a.yaml", "aaa")
	if !got.ModTime.Equal(want.ModTime) {
		t.Errorf("mod time = %v, want %v", got.ModTime, want.ModTime)
	}
	if !got.ScanTime.Equal(want.ScanTime) {
		t.Errorf("scan time = %v, want %v", got.ScanTime, want.ScanTime)
	}
	if !got.Valid || got.Status != ItemStatusOK {
		t.Errorf("valid=%v status=%q, want valid ok item", got.Valid, got.Status)
	}
	if got.Encodings != 2 || got.Datasets != 1 {
		t.Errorf("counts = %d datasets %d encodings, want 1 and 2", got.Datasets, got.Encodings)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "signal_disease" {
		t.Errorf("labels = %v, want [signal_disease]", got.Labels)
	}

	// Pagination
	page, total, err := store.GetItems(ctx, "specs", 1, 1)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].RelPath != "b/nested.yaml" {
		t.Errorf("page = %v (total %d), want just b/nested.yaml of 3", page, total)
	}

	item, err := store.GetItem(ctx, "specs", "a.yaml")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item == nil || item.Digest != "aaa" {
		t.Errorf("get item = %+v, want digest aaa", item)
	}

	none, err := store.GetItem(ctx, "specs", "missing.yaml")
	if err != nil {
		t.Fatalf("get missing item: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for missing item, got %+v", none)
	}

	byDigest, err := store.GetItemByDigest(ctx, "bbb")
	if err != nil {
		t.Fatalf("get by digest: %v", err)
	}
	if byDigest == nil || byDigest.RelPath != "b/nested.yaml" {
		t.Errorf("get by digest = %+v, want b/nested.yaml", byDigest)
	}

	noDigest, err := store.GetItemByDigest(ctx, "zzz")
	if err != nil {
		t.Fatalf("get unknown digest: %v", err)
	}
	if noDigest != nil {
		t.Errorf("expected nil for unknown digest, got %+v", noDigest)
	}

	all, total, err := store.ListItems(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("list = %d items (total %d), want 3", len(all), total)
	}

	totalCount, validCount, err := store.CountItems(ctx)
	if err != nil {
		t.Fatalf("count items: %v", err)
	}
	if totalCount != 3 || validCount != 2 {
		t.Errorf("counts = %d/%d, want 3 total 2 valid", totalCount, validCount)
	}

	// Upserting the same path replaces the row.
	changed := testItem("specs", "a.yaml", "aaa2")
	upsertItems(t, store, changed)
	item, err = store.GetItem(ctx, "specs", "a.yaml")
	if err != nil {
		t.Fatalf("get changed item: %v", err)
	}
	if item.Digest != "aaa2" {
		t.Errorf("digest after upsert = %q, want aaa2", item.Digest)
	}
	if _, total, _ := store.GetItems(ctx, "specs", 10, 0); total != 3 {
		t.Errorf("total after upsert = %d, want 3", total)
	}
}

func TestStoreStampsTouchAndStale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testItem("specs", "keep.yaml", "aaa")
	second := testItem("specs", "gone.yaml", "bbb")
	upsertItems(t, store, first, second)

	stamps, err := store.GetItemStamps(ctx, "specs")
	if err != nil {
		t.Fatalf("get stamps: %v", err)
	}
	if len(stamps) != 2 {
		t.Fatalf("got %d stamps, want 2", len(stamps))
	}
	st, ok := stamps["keep.yaml"]
	if !ok {
		t.Fatal("missing stamp for keep.yaml")
	}
	if st.SizeBytes != 256 || !st.ModTime.Equal(first.ModTime) {
		t.Errorf("stamp = %+v, want size 256 mod %v", st, first.ModTime)
	}

	// A later scan touches keep.yaml and sweeps everything else.
	next := first.ScanTime.Add(time.Minute)
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := store.TouchItem(ctx, tx, "specs", "keep.yaml", next); err != nil {
		t.Fatalf("touch: %v", err)
	}
	removed, err := store.DeleteStaleItems(ctx, tx, "specs", next)
	if err != nil {
		t.Fatalf("delete stale: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d rows, want 1", removed)
	}

	items, total, err := store.GetItems(ctx, "specs", 10, 0)
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].RelPath != "keep.yaml" {
		t.Fatalf("surviving items = %v (total %d), want only keep.yaml", items, total)
	}
	if !items[0].ScanTime.Equal(next) {
		t.Errorf("scan time after touch = %v, want %v", items[0].ScanTime, next)
	}
}

func TestStoreReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	ctx := context.Background()

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if err := store.UpsertRoot(ctx, "specs", "/data/specs"); err != nil {
		t.Fatalf("upsert root: %v", err)
	}
	upsertItems(t, store, testItem("specs", "a.yaml", "aaa"))
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})

	item, err := reopened.GetItem(ctx, "specs", "a.yaml")
	if err != nil {
		t.Fatalf("get item after reopen: %v", err)
	}
	if item == nil || item.Digest != "aaa" {
		t.Errorf("item after reopen = %+v, want digest aaa", item)
	}
	if err := reopened.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}
