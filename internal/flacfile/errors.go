package flacfile

import (
	"errors"
	"fmt"
	"strings"
)

// Marker errors used to classify per-file failures. Format errors mean the
// bytes could not be understood as a FLAC stream; IO errors mean the
// filesystem got in the way. Callers test with errors.Is.
var (
	ErrFormat = errors.New("format error")
	ErrIO     = errors.New("io error")
)

// Wrap tags err with marker and a short operation context for later
// classification. A nil marker defaults to ErrIO.
func Wrap(marker error, operation string, err error) error {
	if marker == nil {
		marker = ErrIO
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "file operation"
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, op, err)
	}
	return fmt.Errorf("%w: %s", marker, op)
}
