package scan_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"flacfixer/internal/flacfile"
	"flacfixer/internal/scan"
	"flacfixer/internal/testsupport"
)

func TestCollectPassesFileRootsThrough(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFLAC(t, filepath.Join(dir, "one.flac"))

	entries, err := scan.Collect([]string{path})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Path != path {
		t.Fatalf("entry path = %q", entries[0].Path)
	}
	if entries[0].Root != dir {
		t.Fatalf("entry root = %q, want %q", entries[0].Root, dir)
	}
}

func TestCollectWalksDirectoriesInOrder(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFLAC(t, filepath.Join(dir, "b.flac"))
	testsupport.WriteFLAC(t, filepath.Join(dir, "sub", "a.flac"))
	// Extensions do not matter at scan time.
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 64)

	entries, err := scan.Collect([]string{dir})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	got := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Root != dir {
			t.Fatalf("entry root = %q, want %q", entry.Root, dir)
		}
		rel, err := filepath.Rel(dir, entry.Path)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, rel)
	}
	want := []string{"b.flac", "notes.txt", filepath.Join("sub", "a.flac")}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCollectDropsDuplicatePaths(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFLAC(t, filepath.Join(dir, "one.flac"))

	entries, err := scan.Collect([]string{path, dir, path})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestCollectFailsOnMissingRoot(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFLAC(t, filepath.Join(dir, "one.flac"))

	_, err := scan.Collect([]string{dir, filepath.Join(dir, "absent")})
	if err == nil {
		t.Fatal("expected an error for the missing root")
	}
	if !errors.Is(err, flacfile.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestCollectFollowsFileSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := testsupport.WriteFLAC(t, filepath.Join(dir, "real", "one.flac"))

	linked := filepath.Join(dir, "scanned")
	if err := os.MkdirAll(linked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(linked, "link.flac")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(linked, "broken.flac")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	entries, err := scan.Collect([]string{linked})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if filepath.Base(entries[0].Path) != "link.flac" {
		t.Fatalf("entry path = %q", entries[0].Path)
	}
}
