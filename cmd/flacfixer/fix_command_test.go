package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flacfixer/internal/config"
	"flacfixer/internal/ledger"
	"flacfixer/internal/testsupport"
)

func TestFixCommandRewritesAndSkips(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeTestConfig(t, base)
	lib := filepath.Join(base, "library")

	dirty := testsupport.WriteFLAC(t, filepath.Join(lib, "dirty.flac"),
		testsupport.WithVorbisComment("TITLE", "Keep Me"),
		testsupport.WithPicture("image/png", "Front", []byte("front-cover-bytes")),
		testsupport.WithPadding(20000),
		testsupport.WithID3v1("Old Tag"),
	)
	testsupport.WriteFLAC(t, filepath.Join(lib, "clean.flac"),
		testsupport.WithPadding(1024),
	)

	sizeBefore := fileSize(t, dirty)

	stdout, _, err := runCLI(t, cfgPath, "fix", lib)
	if err != nil {
		t.Fatalf("fix returned error: %v", err)
	}
	if !strings.Contains(stdout, "written") || !strings.Contains(stdout, "dirty.flac") {
		t.Errorf("expected dirty.flac written, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "skipped") || !strings.Contains(stdout, "clean.flac") {
		t.Errorf("expected clean.flac skipped, got:\n%s", stdout)
	}

	if after := fileSize(t, dirty); after >= sizeBefore {
		t.Errorf("dirty.flac did not shrink: %d -> %d", sizeBefore, after)
	}

	// The rewritten file keeps its vorbis comments, loses the picture and
	// the ID3 trailer, and has padding capped at the default 8 KiB.
	inspectOut, _, err := runCLI(t, "", "inspect", dirty)
	if err != nil {
		t.Fatalf("inspect after fix: %v", err)
	}
	if !strings.Contains(inspectOut, "Vorbis Comment") {
		t.Errorf("vorbis comments lost:\n%s", inspectOut)
	}
	if strings.Contains(inspectOut, "Picture") {
		t.Errorf("picture still present:\n%s", inspectOut)
	}
	if strings.Contains(inspectOut, "ID3v1") {
		t.Errorf("ID3v1 trailer still present:\n%s", inspectOut)
	}
	if !strings.Contains(inspectOut, "8192") {
		t.Errorf("padding not capped at 8192 bytes:\n%s", inspectOut)
	}

	// A second pass finds nothing to do.
	stdout, _, err = runCLI(t, cfgPath, "fix", lib)
	if err != nil {
		t.Fatalf("second fix returned error: %v", err)
	}
	if strings.Contains(stdout, "written") {
		t.Errorf("second pass rewrote files:\n%s", stdout)
	}
}

func TestFixCommandCheckWritesNothing(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeTestConfig(t, base)
	path := testsupport.WriteFLAC(t, filepath.Join(base, "dirty.flac"),
		testsupport.WithPicture("image/jpeg", "", []byte("jpeg-bytes")),
		testsupport.WithPadding(32768),
	)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	stdout, _, err := runCLI(t, cfgPath, "fix", "--check", path)
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	if !strings.Contains(stdout, "Would change") {
		t.Errorf("missing check summary:\n%s", stdout)
	}
	if !strings.Contains(stdout, "yes") {
		t.Errorf("expected a would-change row:\n%s", stdout)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture after check: %v", err)
	}
	if string(before) != string(after) {
		t.Error("check mode modified the file")
	}
}

func TestFixCommandKeepFlagsPreserveMetadata(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeTestConfig(t, base)
	path := testsupport.WriteFLAC(t, filepath.Join(base, "keep.flac"),
		testsupport.WithPicture("image/png", "Front", []byte("pic")),
		testsupport.WithID3v1("Stay"),
	)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	stdout, _, err := runCLI(t, cfgPath, "fix", "--keep-pictures", "--keep-id3", path)
	if err != nil {
		t.Fatalf("fix returned error: %v", err)
	}
	if !strings.Contains(stdout, "skipped") {
		t.Errorf("expected file skipped with keep flags:\n%s", stdout)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture after fix: %v", err)
	}
	if string(before) != string(after) {
		t.Error("keep flags did not preserve the file")
	}
}

func TestFixCommandSilentFailureStaysQuiet(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeTestConfig(t, base)
	junk := filepath.Join(base, "junk.flac")
	if err := os.WriteFile(junk, []byte("not a flac file"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	stdout, stderr, err := runCLI(t, cfgPath, "fix", "--silent", junk)
	if err == nil {
		t.Fatal("expected error for junk input")
	}
	var silenced silencedError
	if !errors.As(err, &silenced) {
		t.Errorf("expected silenced error, got %T: %v", err, err)
	}
	if stdout != "" {
		t.Errorf("silent run wrote to stdout:\n%s", stdout)
	}
	if stderr != "" {
		t.Errorf("silent run wrote to command stderr:\n%s", stderr)
	}
}

func TestFixCommandRejectsCheckWithSilent(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeTestConfig(t, base)

	_, _, err := runCLI(t, cfgPath, "fix", "--check", "--silent", base)
	if err == nil {
		t.Fatal("expected flag conflict error")
	}
	if !strings.Contains(err.Error(), "check") || !strings.Contains(err.Error(), "silent") {
		t.Errorf("unexpected conflict message: %v", err)
	}
}

func TestFixCommandRecordsHistory(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeTestConfig(t, base)
	testsupport.WriteFLAC(t, filepath.Join(base, "library", "dirty.flac"),
		testsupport.WithPicture("image/png", "", []byte("pic")),
	)

	if _, _, err := runCLI(t, cfgPath, "fix", filepath.Join(base, "library")); err != nil {
		t.Fatalf("fix returned error: %v", err)
	}

	cfg, _, _, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	run := runs[0]
	if run.Mode != "fix" || run.FilesWritten != 1 || run.BytesReclaimed <= 0 {
		t.Errorf("unexpected run record: %+v", run)
	}

	listOut, _, err := runCLI(t, cfgPath, "history")
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	if !strings.Contains(listOut, shortRunID(run.ID)) || !strings.Contains(listOut, "fix") {
		t.Errorf("history listing missing run:\n%s", listOut)
	}

	showOut, _, err := runCLI(t, cfgPath, "history", "show", shortRunID(run.ID))
	if err != nil {
		t.Fatalf("history show returned error: %v", err)
	}
	if !strings.Contains(showOut, "dirty.flac") || !strings.Contains(showOut, "written") {
		t.Errorf("history show missing file outcome:\n%s", showOut)
	}
}

func TestFixCommandNoHistorySkipsLedger(t *testing.T) {
	base := t.TempDir()
	cfgPath := writeTestConfig(t, base)
	testsupport.WriteFLAC(t, filepath.Join(base, "solo.flac"),
		testsupport.WithPicture("image/png", "", []byte("pic")),
	)

	if _, _, err := runCLI(t, cfgPath, "fix", "--no-history", filepath.Join(base, "solo.flac")); err != nil {
		t.Fatalf("fix returned error: %v", err)
	}

	cfg, _, _, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no recorded runs, got %d", len(runs))
	}
}

func TestHistoryCommandRequiresEnabledHistory(t *testing.T) {
	base := t.TempDir()
	content := "[history]\nenabled = false\n"
	cfgPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, cfgPath, "history")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("expected disabled-history error, got %v", err)
	}
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.Size()
}
