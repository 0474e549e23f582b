package flacfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flac "github.com/go-flac/go-flac"
)

// copyBufferSize keeps the audio copy in large sequential reads.
const copyBufferSize = 128 << 10

// WriteFile atomically rewrites src with the given metadata blocks, carrying
// the audio region over byte for byte. The new content is assembled in a
// temp file next to the source, verified by re-parsing, and renamed into
// place; on any failure the temp file is removed and the source is left
// untouched.
func WriteFile(src *File, blocks []*flac.MetaDataBlock, keepID3v2, keepID3v1 bool) error {
	dir := filepath.Dir(src.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(src.Path)+".*.tmp")
	if err != nil {
		return Wrap(ErrIO, "create temp file", err)
	}
	tmpName := tmp.Name()

	fail := func(operation string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return Wrap(ErrIO, operation, err)
	}

	in, err := os.Open(src.Path)
	if err != nil {
		return fail("reopen source", err)
	}
	defer in.Close()

	// The source must still match what was planned against.
	info, err := in.Stat()
	if err != nil {
		return fail("stat source", err)
	}
	if info.Size() != src.Size {
		return fail("verify source", fmt.Errorf("size changed from %d to %d bytes", src.Size, info.Size()))
	}

	w := bufio.NewWriterSize(tmp, copyBufferSize)

	if keepID3v2 && len(src.ID3v2) > 0 {
		if _, err := w.Write(src.ID3v2); err != nil {
			return fail("write id3v2 prefix", err)
		}
	}
	if _, err := w.Write(streamMarker); err != nil {
		return fail("write stream marker", err)
	}
	for i, block := range blocks {
		last := i == len(blocks)-1
		if _, err := w.Write(block.Marshal(last)); err != nil {
			return fail("write metadata blocks", err)
		}
	}

	if _, err := in.Seek(src.AudioOffset, io.SeekStart); err != nil {
		return fail("seek to audio frames", err)
	}
	if _, err := io.CopyN(w, in, src.AudioSize); err != nil {
		return fail("copy audio frames", err)
	}

	if keepID3v1 && len(src.ID3v1) > 0 {
		if _, err := w.Write(src.ID3v1); err != nil {
			return fail("write id3v1 trailer", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fail("flush temp file", err)
	}
	if err := tmp.Chmod(src.Mode); err != nil {
		return fail("set file mode", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Wrap(ErrIO, "close temp file", err)
	}

	// The rewritten file must parse before it replaces the source.
	if _, err := Open(tmpName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rewritten file failed verification: %w", err)
	}

	if err := os.Rename(tmpName, src.Path); err != nil {
		os.Remove(tmpName)
		return Wrap(ErrIO, "rename into place", err)
	}
	return nil
}
