// SPDX-License-Identifier: MIT

package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfineToRoot_RegularFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "sub", "spec.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolvedRoot, err := ResolveRoot(root)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	resolved, rel, err := ConfineToRoot(resolvedRoot, path)
	if err != nil {
		t.Fatalf("ConfineToRoot: %v", err)
	}
	if rel != filepath.Join("sub", "spec.yaml") {
		t.Errorf("rel = %q", rel)
	}
	if resolved == "" {
		t.Error("resolved path is empty")
	}
}

func TestConfineToRoot_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.yaml")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "innocent.yaml")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	resolvedRoot, err := ResolveRoot(root)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	_, _, err = ConfineToRoot(resolvedRoot, link)
	if !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("err = %v, want ErrOutsideRoot", err)
	}
}

func TestConfineToRoot_SymlinkInsideRootIsFine(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.yaml")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "alias.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	resolvedRoot, err := ResolveRoot(root)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	resolved, rel, err := ConfineToRoot(resolvedRoot, link)
	if err != nil {
		t.Fatalf("ConfineToRoot: %v", err)
	}
	if rel != "real.yaml" {
		t.Errorf("rel = %q, want the resolved target's name", rel)
	}
	wantResolved, _ := filepath.EvalSymlinks(target)
	if resolved != wantResolved {
		t.Errorf("resolved = %q, want %q", resolved, wantResolved)
	}
}

func TestConfineToRoot_MissingFile(t *testing.T) {
	root := t.TempDir()
	resolvedRoot, err := ResolveRoot(root)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	_, _, err = ConfineToRoot(resolvedRoot, filepath.Join(root, "gone.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrOutsideRoot) {
		t.Error("missing file must not read as an escape")
	}
}

func TestConfineToRoot_DotDotNameStays(t *testing.T) {
	root := t.TempDir()
	// A filename that starts with dots is not a traversal.
	path := filepath.Join(root, "..weird.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	resolvedRoot, err := ResolveRoot(root)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	_, rel, err := ConfineToRoot(resolvedRoot, path)
	if err != nil {
		t.Fatalf("ConfineToRoot: %v", err)
	}
	if rel != "..weird.yaml" {
		t.Errorf("rel = %q", rel)
	}
}

func TestResolveRoot_MissingDir(t *testing.T) {
	if _, err := ResolveRoot(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}
