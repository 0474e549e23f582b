package flacfile

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	flac "github.com/go-flac/go-flac"
)

// streamMarker is the four byte magic that opens every FLAC stream.
var streamMarker = []byte("fLaC")

// headerSize is the wire size of a metadata block header.
const headerSize = 4

// File is the parsed metadata view of a FLAC file on disk. Blocks holds the
// metadata blocks as the tag library parsed them; the audio frame region is
// never loaded, only located, so rewrites can stream it unchanged.
type File struct {
	Path string
	Size int64
	Mode fs.FileMode

	// ID3v2 and ID3v1 hold tag bytes found outside the FLAC container:
	// a v2 tag in front of the stream marker, a v1 tag after the audio.
	ID3v2 []byte
	ID3v1 []byte

	Blocks []*flac.MetaDataBlock
	Info   StreamInfo

	AudioOffset int64
	AudioSize   int64
}

// Open reads the metadata of the FLAC file at path. Filesystem problems
// carry ErrIO; bytes that cannot be understood as a FLAC stream carry
// ErrFormat.
func Open(path string) (*File, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, Wrap(ErrIO, "open", err)
	}
	defer handle.Close()

	info, err := handle.Stat()
	if err != nil {
		return nil, Wrap(ErrIO, "stat", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file", ErrIO)
	}

	f := &File{
		Path: path,
		Size: info.Size(),
		Mode: info.Mode().Perm(),
	}

	prefix, err := readID3v2Prefix(handle, f.Size)
	if err != nil {
		return nil, err
	}
	f.ID3v2 = prefix

	var marker [headerSize]byte
	if _, err := handle.ReadAt(marker[:], int64(len(prefix))); err != nil {
		return nil, fmt.Errorf("%w: missing fLaC stream marker", ErrFormat)
	}
	if string(marker[:]) != string(streamMarker) {
		return nil, fmt.Errorf("%w: missing fLaC stream marker", ErrFormat)
	}

	if _, err := handle.Seek(int64(len(prefix)), io.SeekStart); err != nil {
		return nil, Wrap(ErrIO, "seek", err)
	}
	parsed, err := flac.ParseMetadata(handle)
	if err != nil {
		return nil, Wrap(ErrFormat, "parse metadata", err)
	}
	f.Blocks = parsed.Meta

	if len(f.Blocks) == 0 || f.Blocks[0].Type != flac.StreamInfo {
		return nil, fmt.Errorf("%w: first metadata block is not streaminfo", ErrFormat)
	}
	f.Info, err = decodeStreamInfo(f.Blocks[0].Data)
	if err != nil {
		return nil, err
	}

	// The audio region is located arithmetically from the parsed block
	// sizes; the parser's read position is not trusted.
	f.AudioOffset = int64(len(prefix)+len(streamMarker)) + BlocksWireSize(f.Blocks)

	trailer, err := readID3v1Trailer(handle, f.Size, f.AudioOffset)
	if err != nil {
		return nil, err
	}
	f.ID3v1 = trailer

	f.AudioSize = f.Size - f.AudioOffset - int64(len(trailer))
	if f.AudioSize < 0 {
		return nil, fmt.Errorf("%w: metadata extends past end of file", ErrFormat)
	}

	return f, nil
}

// BlocksWireSize returns the encoded size of blocks including their headers.
func BlocksWireSize(blocks []*flac.MetaDataBlock) int64 {
	var total int64
	for _, block := range blocks {
		total += headerSize + int64(len(block.Data))
	}
	return total
}

// WireSize returns the on-disk size a file would have if it carried the
// given block set and tag choices around this file's audio region.
func (f *File) WireSize(blocks []*flac.MetaDataBlock, keepID3v2, keepID3v1 bool) int64 {
	var size int64
	if keepID3v2 {
		size += int64(len(f.ID3v2))
	}
	size += int64(len(streamMarker)) + BlocksWireSize(blocks) + f.AudioSize
	if keepID3v1 {
		size += int64(len(f.ID3v1))
	}
	return size
}

// PaddingBytes sums the payload sizes of all padding blocks.
func (f *File) PaddingBytes() int64 {
	var total int64
	for _, block := range f.Blocks {
		if block.Type == flac.Padding {
			total += int64(len(block.Data))
		}
	}
	return total
}

// PictureCount reports the number of embedded picture blocks.
func (f *File) PictureCount() int {
	count := 0
	for _, block := range f.Blocks {
		if block.Type == flac.Picture {
			count++
		}
	}
	return count
}

// HasID3 reports whether the file carries an ID3v1 or ID3v2 tag.
func (f *File) HasID3() bool {
	return len(f.ID3v2) > 0 || len(f.ID3v1) > 0
}

// BlockTypeName renders a metadata block type for logs and tables.
func BlockTypeName(t flac.BlockType) string {
	switch t {
	case flac.StreamInfo:
		return "streaminfo"
	case flac.Padding:
		return "padding"
	case flac.Application:
		return "application"
	case flac.SeekTable:
		return "seektable"
	case flac.VorbisComment:
		return "vorbis comment"
	case flac.CueSheet:
		return "cuesheet"
	case flac.Picture:
		return "picture"
	default:
		return fmt.Sprintf("reserved (%d)", int(t))
	}
}
