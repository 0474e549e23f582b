package testsupport

import (
	"bytes"
	"crypto/md5"
	"os"
	"path/filepath"
	"testing"

	id3v2lib "github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
	"github.com/icza/bitio"
)

// FixtureOption mutates the FLAC fixture under construction.
type FixtureOption func(*fixtureBuilder)

type fixtureBuilder struct {
	t             testing.TB
	sampleRate    uint32
	channels      uint8
	bitsPerSample uint8
	totalSamples  uint64
	audio         []byte
	extra         []*flac.MetaDataBlock
	id3v2         []byte
	id3v1         []byte
}

// BuildFLAC assembles the bytes of a FLAC file: streaminfo plus any
// requested blocks, a deterministic pseudo audio region, and optional
// ID3 tags around the container. The audio region is not decodable; the
// rewrite path never reads frames, only relocates them.
func BuildFLAC(t testing.TB, opts ...FixtureOption) []byte {
	t.Helper()

	b := &fixtureBuilder{
		t:             t,
		sampleRate:    44100,
		channels:      2,
		bitsPerSample: 16,
		totalSamples:  132300, // three seconds at 44.1 kHz
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.audio == nil {
		b.audio = patternBytes(4096)
	}

	blocks := append([]*flac.MetaDataBlock{streamInfoBlock(t, b)}, b.extra...)

	var buf bytes.Buffer
	buf.Write(b.id3v2)
	buf.WriteString("fLaC")
	for i, block := range blocks {
		buf.Write(block.Marshal(i == len(blocks)-1))
	}
	buf.Write(b.audio)
	buf.Write(b.id3v1)
	return buf.Bytes()
}

// WriteFLAC builds a fixture and writes it to path, creating parent
// directories as needed. It returns path for chaining.
func WriteFLAC(t testing.TB, path string, opts ...FixtureOption) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, BuildFLAC(t, opts...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WithAudio replaces the default pseudo audio region.
func WithAudio(data []byte) FixtureOption {
	return func(b *fixtureBuilder) {
		b.audio = data
	}
}

// WithSampleRate overrides the streaminfo sample rate.
func WithSampleRate(rate uint32) FixtureOption {
	return func(b *fixtureBuilder) {
		b.sampleRate = rate
	}
}

// WithTotalSamples overrides the streaminfo total sample count.
func WithTotalSamples(samples uint64) FixtureOption {
	return func(b *fixtureBuilder) {
		b.totalSamples = samples
	}
}

// WithPadding appends a padding block of the given payload size.
func WithPadding(size int) FixtureOption {
	return func(b *fixtureBuilder) {
		b.extra = append(b.extra, &flac.MetaDataBlock{
			Type: flac.Padding,
			Data: make([]byte, size),
		})
	}
}

// WithPicture appends an embedded picture block. The image data is stored
// as given; it does not have to decode.
func WithPicture(mime, description string, data []byte) FixtureOption {
	return func(b *fixtureBuilder) {
		pic := &flacpicture.MetadataBlockPicture{
			PictureType: flacpicture.PictureTypeFrontCover,
			MIME:        mime,
			Description: description,
			ImageData:   data,
		}
		block := pic.Marshal()
		b.extra = append(b.extra, &block)
	}
}

// WithVorbisComment appends a vorbis comment block built from key/value
// pairs.
func WithVorbisComment(pairs ...string) FixtureOption {
	return func(b *fixtureBuilder) {
		if len(pairs)%2 != 0 {
			b.t.Fatalf("WithVorbisComment wants key/value pairs, got %d values", len(pairs))
		}
		cmt := flacvorbis.New()
		for i := 0; i < len(pairs); i += 2 {
			if err := cmt.Add(pairs[i], pairs[i+1]); err != nil {
				b.t.Fatalf("add vorbis field %s: %v", pairs[i], err)
			}
		}
		block := cmt.Marshal()
		b.extra = append(b.extra, &block)
	}
}

// WithApplication appends an application block with the given four byte ID.
func WithApplication(appID string, payload []byte) FixtureOption {
	return func(b *fixtureBuilder) {
		if len(appID) != 4 {
			b.t.Fatalf("application ID must be 4 bytes, got %q", appID)
		}
		data := append([]byte(appID), payload...)
		b.extra = append(b.extra, &flac.MetaDataBlock{
			Type: flac.Application,
			Data: data,
		})
	}
}

// WithSeekTable appends a seek table block with the given number of
// placeholder points.
func WithSeekTable(points int) FixtureOption {
	return func(b *fixtureBuilder) {
		b.extra = append(b.extra, &flac.MetaDataBlock{
			Type: flac.SeekTable,
			Data: make([]byte, 18*points),
		})
	}
}

// WithID3v2 prefixes the file with a real ID3v2 tag carrying the title.
func WithID3v2(title string) FixtureOption {
	return func(b *fixtureBuilder) {
		tag := id3v2lib.NewEmptyTag()
		tag.SetTitle(title)
		var buf bytes.Buffer
		if _, err := tag.WriteTo(&buf); err != nil {
			b.t.Fatalf("write id3v2 tag: %v", err)
		}
		b.id3v2 = buf.Bytes()
	}
}

// WithID3v1 appends the fixed 128 byte ID3v1 trailer carrying the title.
func WithID3v1(title string) FixtureOption {
	return func(b *fixtureBuilder) {
		tag := make([]byte, 128)
		copy(tag[0:3], "TAG")
		copy(tag[3:33], title)
		copy(tag[33:63], "Fixture Artist")
		copy(tag[63:93], "Fixture Album")
		copy(tag[93:97], "2009")
		tag[127] = 255 // genre: none
		b.id3v1 = tag
	}
}

func streamInfoBlock(t testing.TB, b *fixtureBuilder) *flac.MetaDataBlock {
	t.Helper()

	sum := md5.Sum(b.audio)

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	w.TryWriteBits(4096, 16) // min block size
	w.TryWriteBits(4096, 16) // max block size
	w.TryWriteBits(0, 24)    // min frame size unknown
	w.TryWriteBits(0, 24)    // max frame size unknown
	w.TryWriteBits(uint64(b.sampleRate), 20)
	w.TryWriteBits(uint64(b.channels-1), 3)
	w.TryWriteBits(uint64(b.bitsPerSample-1), 5)
	w.TryWriteBits(b.totalSamples, 36)
	if w.TryError != nil {
		t.Fatalf("encode streaminfo: %v", w.TryError)
	}
	if _, err := w.Write(sum[:]); err != nil {
		t.Fatalf("encode streaminfo md5: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("flush streaminfo: %v", err)
	}

	return &flac.MetaDataBlock{Type: flac.StreamInfo, Data: buf.Bytes()}
}

func patternBytes(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*7 + 13)
	}
	return data
}
