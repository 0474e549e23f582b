package pictures_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"flacfixer/internal/pictures"
	"flacfixer/internal/rewrite"
)

func actionFor(description, mime string, data []byte) rewrite.ExportAction {
	sum := sha256.Sum256(data)
	return rewrite.ExportAction{
		Fingerprint: hex.EncodeToString(sum[:]),
		MIME:        mime,
		Description: description,
		Data:        data,
	}
}

func TestExportWritesNamedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := pictures.NewExporter(dir, nil)

	action := actionFor("Front Cover", "image/jpeg", []byte("jpeg payload"))
	written, err := exporter.Export(action)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if !written {
		t.Fatal("first export must write")
	}

	want := filepath.Join(dir, "front-cover-"+action.Fingerprint[:12]+".jpg")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected export at %s: %v", want, err)
	}
	if string(data) != "jpeg payload" {
		t.Fatalf("export holds %q", data)
	}
	if exporter.Exported() != 1 {
		t.Fatalf("Exported() = %d, want 1", exporter.Exported())
	}
}

func TestExportSkipsDuplicates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := pictures.NewExporter(dir, nil)

	action := actionFor("cover", "image/png", []byte("same bytes"))
	if _, err := exporter.Export(action); err != nil {
		t.Fatal(err)
	}

	// Same image under a different description is still the same image.
	repeat := actionFor("another name", "image/png", []byte("same bytes"))
	written, err := exporter.Export(repeat)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if written {
		t.Fatal("duplicate fingerprint must not write")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("export dir holds %d files, want 1", len(entries))
	}
}

func TestExportIgnoresURLReferences(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := pictures.NewExporter(dir, nil)

	written, err := exporter.Export(actionFor("cover", "-->", []byte("https://example.com/cover.jpg")))
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if written {
		t.Fatal("URL reference pictures must not be exported")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("nothing was exported, the directory must not exist")
	}
}

func TestExportFallsBackForUnknownNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := pictures.NewExporter(dir, nil)

	action := actionFor("", "application/x-strange", []byte{1, 2, 3})
	if _, err := exporter.Export(action); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(dir, "picture-"+action.Fingerprint[:12]+".bin")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected fallback name %s: %v", want, err)
	}
}

func TestExportIsSafeForConcurrentUse(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := pictures.NewExporter(dir, nil)
	action := actionFor("cover", "image/jpeg", []byte("contended payload"))

	var wg sync.WaitGroup
	writes := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			written, err := exporter.Export(action)
			if err != nil {
				t.Errorf("Export returned error: %v", err)
				return
			}
			writes <- written
		}()
	}
	wg.Wait()
	close(writes)

	wrote := 0
	for written := range writes {
		if written {
			wrote++
		}
	}
	if wrote != 1 {
		t.Fatalf("%d goroutines claimed the write, want exactly 1", wrote)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("export dir holds %d files, want 1", len(entries))
	}
}
