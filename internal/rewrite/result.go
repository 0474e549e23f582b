package rewrite

import (
	"errors"
	"time"

	"flacfixer/internal/flacfile"
)

// Status is the terminal state a processed file lands in.
type Status string

const (
	// StatusSkipped means the file needed no rewrite, or the run was
	// check-only and the plan was discarded.
	StatusSkipped Status = "skipped"
	// StatusWritten means the file was rewritten in place.
	StatusWritten Status = "written"
	// StatusFailed means the file could not be processed; Err and Kind say
	// why.
	StatusFailed Status = "failed"
)

// Kind classifies a failure for reporting and exit accounting.
type Kind string

const (
	KindNone Kind = ""
	// KindFormat covers malformed input: not a FLAC stream, truncated or
	// inconsistent metadata.
	KindFormat Kind = "format"
	// KindIO covers everything the environment did to us: unreadable files,
	// failed writes, failed renames.
	KindIO Kind = "io"
)

// KindOf maps an error to its failure kind. Unrecognized errors count as
// IO: the file itself was never proven malformed.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, flacfile.ErrFormat):
		return KindFormat
	default:
		return KindIO
	}
}

// Result records the outcome of one file. Sizes and the padding/picture
// accounting are filled from the plan even when nothing is written, so a
// check-only run can report what a real run would do.
type Result struct {
	Path   string
	Root   string
	Status Status
	Err    error
	Kind   Kind

	// WouldChange mirrors the plan's Changed flag regardless of mode.
	WouldChange bool

	BytesBefore int64
	BytesAfter  int64

	PicturesRemoved  int
	PicturesExported int
	PaddingBefore    int64
	PaddingAfter     int64
	ID3Removed       bool

	Duration time.Duration
}

// BytesSaved is the size delta the plan yields; negative deltas (a grown
// file) are reported as zero saved.
func (r Result) BytesSaved() int64 {
	if saved := r.BytesBefore - r.BytesAfter; saved > 0 {
		return saved
	}
	return 0
}

// Failed reports whether the file ended in the failed state.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}
