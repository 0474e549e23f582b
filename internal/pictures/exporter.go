// Package pictures writes picture payloads extracted during a run to the
// export directory, once per distinct image.
package pictures

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"flacfixer/internal/fileutil"
	"flacfixer/internal/flacfile"
	"flacfixer/internal/logging"
	"flacfixer/internal/rewrite"
	"flacfixer/internal/textutil"
)

// fingerprintTag is how much of the hex fingerprint lands in the filename.
// Twelve hex digits keep names short while making collisions between
// distinct images a non-concern.
const fingerprintTag = 12

// Exporter deduplicates picture exports within one run. The fingerprint
// set is the only state shared between workers, so Export holds the lock
// across the check and the write: the first caller with a new fingerprint
// writes the file, everyone else skips it.
type Exporter struct {
	dir    string
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // fingerprint -> exported filename
}

// NewExporter returns an exporter rooted at dir. The directory is created
// on the first write, not up front, so check runs never leave empty
// directories behind.
func NewExporter(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{
		dir:    dir,
		logger: logging.WithComponent(logger, "pictures"),
		seen:   make(map[string]string),
	}
}

// Export writes the picture to the export directory unless an identical
// image was already written this run. It reports whether a new file was
// created. Pictures whose MIME is "-->" carry a URL instead of image
// bytes and are never exported.
func (e *Exporter) Export(action rewrite.ExportAction) (bool, error) {
	if strings.TrimSpace(action.MIME) == "-->" {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if name, ok := e.seen[action.Fingerprint]; ok {
		e.logger.Debug("picture already exported",
			logging.String(logging.FieldFile, name))
		return false, nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return false, flacfile.Wrap(flacfile.ErrIO, "create export directory", err)
	}

	name := exportName(action)
	path := filepath.Join(e.dir, name)
	if err := fileutil.WriteFileAtomic(path, action.Data, 0o644); err != nil {
		return false, flacfile.Wrap(flacfile.ErrIO, "export picture", err)
	}

	e.seen[action.Fingerprint] = name
	e.logger.Debug("exported picture",
		logging.String(logging.FieldFile, path),
		logging.Int("bytes", len(action.Data)))
	return true, nil
}

// Exported reports how many distinct pictures this run has written.
func (e *Exporter) Exported() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seen)
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// exportName builds "<slug>-<fp12><ext>". The name embeds the fingerprint,
// so a same-named file already on disk holds the same bytes and an atomic
// overwrite is harmless.
func exportName(action rewrite.ExportAction) string {
	slug := textutil.Slug(action.Description, "picture")
	tag := action.Fingerprint
	if len(tag) > fingerprintTag {
		tag = tag[:fingerprintTag]
	}
	return fmt.Sprintf("%s-%s%s", slug, tag, extensionFor(action.MIME))
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return ".bin"
	}
}
