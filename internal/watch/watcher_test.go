// SPDX-License-Identifier: MIT

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/airrkit/airrspec/internal/library"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Parseable spec content; watch tests only care that files get indexed.
const specYAML = `definitions:
  datasets:
    d1:
      format: AIRR
      params:
        path: data.tsv
        metadata_file: metadata.csv
instructions: {}
`

func newTestWatcher(t *testing.T, roots ...string) (*library.Service, *Watcher) {
	t.Helper()

	store, err := library.NewStore(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := library.NewService(library.RootsFromPaths(roots), store, 1)
	w := New(svc, Config{Debounce: 30 * time.Millisecond, MinInterval: time.Millisecond})
	return svc, w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// itemCount must stay require-free: Eventually runs it off the test goroutine.
func itemCount(svc *library.Service) int {
	total, _, err := svc.CountItems(context.Background())
	if err != nil {
		return -1
	}
	return total
}

func rootStatus(svc *library.Service) library.RootStatus {
	roots, err := svc.GetRoots(context.Background())
	if err != nil || len(roots) != 1 {
		return ""
	}
	return roots[0].LastScanStatus
}

func TestWatcherIndexesNewFile(t *testing.T) {
	rootDir := t.TempDir()
	svc, w := newTestWatcher(t, rootDir)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	writeFile(t, filepath.Join(rootDir, "a.yaml"), specYAML)

	assert.Eventually(t, func() bool {
		return itemCount(svc) == 1
	}, 3*time.Second, 25*time.Millisecond, "new spec file should be indexed")
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	rootDir := t.TempDir()
	svc, w := newTestWatcher(t, rootDir)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	// The directory appears after the watch was registered; the rescan
	// walks the whole root, so the nested file is found even if its own
	// event raced the new watch.
	writeFile(t, filepath.Join(rootDir, "nested", "deep", "b.yml"), specYAML)

	assert.Eventually(t, func() bool {
		return itemCount(svc) == 1
	}, 3*time.Second, 25*time.Millisecond, "nested spec file should be indexed")
}

func TestWatcherRemovalSweepsIndex(t *testing.T) {
	rootDir := t.TempDir()
	writeFile(t, filepath.Join(rootDir, "a.yaml"), specYAML)
	writeFile(t, filepath.Join(rootDir, "b.yaml"), specYAML)

	svc, w := newTestWatcher(t, rootDir)
	require.NoError(t, svc.TriggerScan(context.Background(), svc.GetConfigs()[0].ID))
	require.Equal(t, 2, itemCount(svc))

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	require.NoError(t, os.Remove(filepath.Join(rootDir, "a.yaml")))

	assert.Eventually(t, func() bool {
		return itemCount(svc) == 1
	}, 3*time.Second, 25*time.Millisecond, "removed spec file should leave the index")
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	rootDir := t.TempDir()
	svc, w := newTestWatcher(t, rootDir)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	writeFile(t, filepath.Join(rootDir, "notes.txt"), "plain text")

	assert.Never(t, func() bool {
		return rootStatus(svc) != library.RootStatusNever
	}, 400*time.Millisecond, 50*time.Millisecond, "non-spec files must not trigger a scan")
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	_, w := newTestWatcher(t, missing)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	assert.Empty(t, w.roots, "unresolvable roots should be skipped, not fatal")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	rootDir := t.TempDir()
	_, w := newTestWatcher(t, rootDir)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
