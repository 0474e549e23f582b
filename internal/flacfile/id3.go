package flacfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	id3v2lib "github.com/bogem/id3v2/v2"
)

const (
	id3v2HeaderSize = 10
	id3v1Size       = 128
)

// readID3v2Prefix captures a complete ID3v2 tag sitting in front of the
// stream marker. FLAC files should not carry one, but enough taggers write
// them that the rewrite has to carry or drop the prefix byte-exactly.
func readID3v2Prefix(r io.ReaderAt, fileSize int64) ([]byte, error) {
	var header [id3v2HeaderSize]byte
	n, err := r.ReadAt(header[:], 0)
	if n < id3v2HeaderSize {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, Wrap(ErrIO, "read file header", err)
		}
		return nil, nil
	}
	if string(header[0:3]) != "ID3" {
		return nil, nil
	}

	// The tag size is a 28-bit synchsafe integer: the high bit of every
	// byte must be clear.
	for _, b := range header[6:10] {
		if b&0x80 != 0 {
			return nil, fmt.Errorf("%w: id3v2 size is not synchsafe", ErrFormat)
		}
	}
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	total := id3v2HeaderSize + size
	if header[5]&0x10 != 0 {
		total += id3v2HeaderSize // footer mirrors the header
	}
	if total > fileSize {
		return nil, fmt.Errorf("%w: id3v2 tag extends past end of file", ErrFormat)
	}

	prefix := make([]byte, total)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		return nil, Wrap(ErrIO, "read id3v2 tag", err)
	}
	return prefix, nil
}

// readID3v1Trailer captures the fixed 128-byte ID3v1 tag at the end of the
// file when present. The scan never reaches into the metadata region, so a
// tiny file cannot produce a false positive.
func readID3v1Trailer(r io.ReaderAt, fileSize, audioOffset int64) ([]byte, error) {
	start := fileSize - id3v1Size
	if start < audioOffset {
		return nil, nil
	}
	trailer := make([]byte, id3v1Size)
	if _, err := r.ReadAt(trailer, start); err != nil {
		return nil, Wrap(ErrIO, "read file trailer", err)
	}
	if string(trailer[0:3]) != "TAG" {
		return nil, nil
	}
	return trailer, nil
}

// ID3v2Info summarizes an ID3v2 prefix for diagnostics.
type ID3v2Info struct {
	Version byte
	Frames  int
	Size    int64
}

// ID3v2Details decodes the captured prefix with the id3v2 library.
// Unparseable prefixes degrade to size-only info rather than failing;
// the rewrite itself never depends on the tag's contents.
func (f *File) ID3v2Details() (ID3v2Info, bool) {
	if len(f.ID3v2) == 0 {
		return ID3v2Info{}, false
	}
	info := ID3v2Info{Size: int64(len(f.ID3v2))}
	tag, err := id3v2lib.ParseReader(bytes.NewReader(f.ID3v2), id3v2lib.Options{Parse: true})
	if err == nil {
		info.Version = tag.Version()
		info.Frames = tag.Count()
	}
	return info, true
}
