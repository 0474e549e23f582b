package rewrite_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"flacfixer/internal/flacfile"
	"flacfixer/internal/rewrite"
	"flacfixer/internal/testsupport"
)

// spyExporter mimics the run-scoped exporter: first sight of a fingerprint
// counts as written, repeats do not.
type spyExporter struct {
	mu      sync.Mutex
	seen    map[string]bool
	actions []rewrite.ExportAction
	err     error
}

func (s *spyExporter) Export(action rewrite.ExportAction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	s.actions = append(s.actions, action)
	if s.seen[action.Fingerprint] {
		return false, nil
	}
	s.seen[action.Fingerprint] = true
	return true, nil
}

func strippingPolicy() rewrite.Policy {
	return rewrite.Policy{RemovePictures: true, RemoveID3: true, MaxPaddingBytes: 1024}
}

func TestEngineProcessRewritesAndSettles(t *testing.T) {
	dir := t.TempDir()
	audio := make([]byte, 20000)
	for i := range audio {
		audio[i] = byte((i*13 + 5) % 251)
	}
	path := testsupport.WriteFLAC(t, filepath.Join(dir, "dirty.flac"),
		testsupport.WithAudio(audio),
		testsupport.WithPicture("image/jpeg", "cover", []byte("coverbytes")),
		testsupport.WithPadding(10000),
		testsupport.WithID3v2("Old Title"),
		testsupport.WithID3v1("Old Title"),
	)

	engine := rewrite.NewEngine(strippingPolicy(), nil, false, nil)

	res := engine.Process(path, dir)
	if res.Status != rewrite.StatusWritten {
		t.Fatalf("first pass status = %q (err %v), want written", res.Status, res.Err)
	}
	if !res.WouldChange || res.PicturesRemoved != 1 || !res.ID3Removed {
		t.Fatalf("unexpected accounting: %+v", res)
	}
	if res.PaddingBefore != 10000 || res.PaddingAfter != 1024 {
		t.Fatalf("padding accounting %d -> %d, want 10000 -> 1024", res.PaddingBefore, res.PaddingAfter)
	}
	if res.BytesSaved() == 0 {
		t.Fatal("stripping must reclaim bytes")
	}

	f, err := flacfile.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if f.PictureCount() != 0 || f.PaddingBytes() != 1024 || f.HasID3() {
		t.Fatalf("file not stripped as planned: pictures=%d padding=%d id3=%v",
			f.PictureCount(), f.PaddingBytes(), f.HasID3())
	}
	if f.Size != res.BytesAfter {
		t.Fatalf("projected size %d, file is %d", res.BytesAfter, f.Size)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw[f.AudioOffset:f.AudioOffset+f.AudioSize], audio) {
		t.Fatal("audio bytes changed across the rewrite")
	}

	// A second pass over the rewritten file finds nothing to do.
	res = engine.Process(path, dir)
	if res.Status != rewrite.StatusSkipped {
		t.Fatalf("second pass status = %q, want skipped", res.Status)
	}
	if res.WouldChange {
		t.Fatal("a settled file must not report pending changes")
	}
	if res.BytesAfter != res.BytesBefore {
		t.Fatalf("settled file projects a size change: %d -> %d", res.BytesBefore, res.BytesAfter)
	}
}

func TestEngineProcessCheckOnlyTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFLAC(t, filepath.Join(dir, "dirty.flac"),
		testsupport.WithPicture("image/jpeg", "cover", []byte("coverbytes")),
		testsupport.WithPadding(10000),
	)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	spy := &spyExporter{}
	policy := strippingPolicy()
	policy.ExportPictures = true
	engine := rewrite.NewEngine(policy, spy, true, nil)

	res := engine.Process(path, dir)
	if res.Status != rewrite.StatusSkipped {
		t.Fatalf("status = %q, want skipped", res.Status)
	}
	if !res.WouldChange {
		t.Fatal("check run must still report the pending change")
	}
	if res.BytesAfter >= res.BytesBefore {
		t.Fatalf("projection did not shrink: %d -> %d", res.BytesBefore, res.BytesAfter)
	}
	if len(spy.actions) != 0 || res.PicturesExported != 0 {
		t.Fatal("check run must not export pictures")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("check run modified the file")
	}
}

func TestEngineProcessSkipsSettledFileButStillExports(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFLAC(t, filepath.Join(dir, "clean.flac"),
		testsupport.WithPicture("image/jpeg", "cover", []byte("coverbytes")),
	)

	spy := &spyExporter{}
	policy := rewrite.Policy{MaxPaddingBytes: 8192, ExportPictures: true}
	engine := rewrite.NewEngine(policy, spy, false, nil)

	res := engine.Process(path, dir)
	if res.Status != rewrite.StatusSkipped {
		t.Fatalf("status = %q (err %v), want skipped", res.Status, res.Err)
	}
	if res.PicturesExported != 1 {
		t.Fatalf("exported %d pictures, want 1", res.PicturesExported)
	}
	if res.WouldChange {
		t.Fatal("exports alone must not mark the file changed")
	}
}

func TestEngineProcessDeduplicatesExportsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	cover := []byte("shared cover payload")
	first := testsupport.WriteFLAC(t, filepath.Join(dir, "one.flac"),
		testsupport.WithPicture("image/jpeg", "cover", cover))
	second := testsupport.WriteFLAC(t, filepath.Join(dir, "two.flac"),
		testsupport.WithPicture("image/jpeg", "cover", cover))

	spy := &spyExporter{}
	policy := strippingPolicy()
	policy.ExportPictures = true
	engine := rewrite.NewEngine(policy, spy, false, nil)

	one := engine.Process(first, dir)
	two := engine.Process(second, dir)
	if one.PicturesExported != 1 {
		t.Fatalf("first file exported %d, want 1", one.PicturesExported)
	}
	if two.PicturesExported != 0 {
		t.Fatalf("second file exported %d, want 0", two.PicturesExported)
	}
	if len(spy.seen) != 1 {
		t.Fatalf("exporter saw %d distinct fingerprints, want 1", len(spy.seen))
	}
}

func TestEngineProcessClassifiesFailures(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.flac")
	testsupport.WriteFile(t, junk, 2048)
	before, err := os.ReadFile(junk)
	if err != nil {
		t.Fatal(err)
	}

	engine := rewrite.NewEngine(strippingPolicy(), nil, false, nil)

	res := engine.Process(junk, dir)
	if res.Status != rewrite.StatusFailed || res.Kind != rewrite.KindFormat {
		t.Fatalf("junk file: status=%q kind=%q, want failed/format", res.Status, res.Kind)
	}
	after, err := os.ReadFile(junk)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("failed file must be left untouched")
	}

	res = engine.Process(filepath.Join(dir, "absent.flac"), dir)
	if res.Status != rewrite.StatusFailed || res.Kind != rewrite.KindIO {
		t.Fatalf("missing file: status=%q kind=%q, want failed/io", res.Status, res.Kind)
	}
}

func TestEngineProcessFailsWhenExportFails(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFLAC(t, filepath.Join(dir, "dirty.flac"),
		testsupport.WithPicture("image/jpeg", "cover", []byte("coverbytes")),
	)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	spy := &spyExporter{err: flacfile.Wrap(flacfile.ErrIO, "export picture", errors.New("disk full"))}
	policy := strippingPolicy()
	policy.ExportPictures = true
	engine := rewrite.NewEngine(policy, spy, false, nil)

	res := engine.Process(path, dir)
	if res.Status != rewrite.StatusFailed || res.Kind != rewrite.KindIO {
		t.Fatalf("status=%q kind=%q, want failed/io", res.Status, res.Kind)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("file must not be rewritten after a failed export")
	}
}
