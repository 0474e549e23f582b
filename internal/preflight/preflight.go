// Package preflight verifies the directories a run depends on before any
// file is touched. A missing or read-only target should fail the run up
// front, not halfway through a batch.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"flacfixer/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// EnsureWritableDir creates the directory when missing and then verifies
// access.
func EnsureWritableDir(name, path string) Result {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
	}
	return CheckDirectoryAccess(name, path)
}

// ForRun returns the checks a run depends on: the state directory when
// history is recorded, the export directory when pictures will actually be
// written, and the log directory when file logging is configured.
func ForRun(cfg *config.Config, exporting bool) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	if cfg.History.Enabled {
		results = append(results, EnsureWritableDir("State directory", cfg.Paths.StateDir))
	}
	if exporting {
		results = append(results, EnsureWritableDir("Export directory", cfg.Paths.ExportDir))
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, EnsureWritableDir("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failures filters results down to the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
