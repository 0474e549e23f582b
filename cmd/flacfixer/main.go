package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// silencedError carries a failure through Execute without main printing it.
// Silent runs rely on the exit code alone.
type silencedError struct {
	err error
}

func (e silencedError) Error() string { return e.err.Error() }

func (e silencedError) Unwrap() error { return e.err }

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var silenced silencedError
		if !errors.Is(err, context.Canceled) && !errors.As(err, &silenced) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
