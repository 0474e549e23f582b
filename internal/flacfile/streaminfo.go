package flacfile

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/icza/bitio"
)

// streamInfoSize is the fixed payload length of a streaminfo block.
const streamInfoSize = 34

// StreamInfo carries the decoded fields of the mandatory first metadata
// block. The rewrite never alters it; it is decoded for validation and
// reporting only.
type StreamInfo struct {
	MinBlockSize  uint16
	MaxBlockSize  uint16
	MinFrameSize  uint32
	MaxFrameSize  uint32
	SampleRate    uint32
	Channels      uint8
	BitsPerSample uint8
	TotalSamples  uint64
	MD5           [16]byte
}

// Duration derives the stream length from total samples and sample rate.
// Streams that omit the total sample count report zero.
func (si StreamInfo) Duration() time.Duration {
	if si.SampleRate == 0 || si.TotalSamples == 0 {
		return 0
	}
	seconds := float64(si.TotalSamples) / float64(si.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

func decodeStreamInfo(data []byte) (StreamInfo, error) {
	var si StreamInfo
	if len(data) != streamInfoSize {
		return si, fmt.Errorf("%w: streaminfo block is %d bytes, want %d", ErrFormat, len(data), streamInfoSize)
	}

	r := bitio.NewReader(bytes.NewReader(data))
	si.MinBlockSize = uint16(r.TryReadBits(16))
	si.MaxBlockSize = uint16(r.TryReadBits(16))
	si.MinFrameSize = uint32(r.TryReadBits(24))
	si.MaxFrameSize = uint32(r.TryReadBits(24))
	si.SampleRate = uint32(r.TryReadBits(20))
	si.Channels = uint8(r.TryReadBits(3)) + 1
	si.BitsPerSample = uint8(r.TryReadBits(5)) + 1
	si.TotalSamples = r.TryReadBits(36)
	if r.TryError != nil {
		return si, Wrap(ErrFormat, "decode streaminfo", r.TryError)
	}
	if _, err := io.ReadFull(r, si.MD5[:]); err != nil {
		return si, Wrap(ErrFormat, "decode streaminfo md5", err)
	}
	return si, nil
}
