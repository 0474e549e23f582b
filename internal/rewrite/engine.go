package rewrite

import (
	"log/slog"
	"time"

	"flacfixer/internal/flacfile"
	"flacfixer/internal/logging"
)

// PictureExporter persists picture payloads pulled out of processed files.
// Export reports whether a new file was written; a fingerprint already
// exported this run returns false with no error.
type PictureExporter interface {
	Export(action ExportAction) (bool, error)
}

// Engine runs one policy over many files. It holds no per-file state, so a
// single engine is shared by all workers of a run; the exporter does its
// own locking.
type Engine struct {
	policy    Policy
	exporter  PictureExporter
	checkOnly bool
	logger    *slog.Logger
}

// NewEngine returns an engine for the given policy. exporter may be nil
// when picture export is disabled; checkOnly plans but never writes.
func NewEngine(policy Policy, exporter PictureExporter, checkOnly bool, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		policy:    policy,
		exporter:  exporter,
		checkOnly: checkOnly,
		logger:    logging.WithComponent(logger, "rewrite"),
	}
}

// CheckOnly reports whether the engine plans without writing.
func (e *Engine) CheckOnly() bool {
	return e.checkOnly
}

// Process takes one file through read, plan and write and reports how it
// went. Every failure is caught and folded into the Result; one bad file
// must never take the batch down, so nothing escapes as an error return.
// A file that Process has started on always runs to completion; callers
// enforce cancellation at the file boundary.
func (e *Engine) Process(path, root string) Result {
	started := time.Now()
	res := Result{Path: path, Root: root}

	f, err := flacfile.Open(path)
	if err != nil {
		return e.fail(res, started, err)
	}
	res.BytesBefore = f.Size
	res.PaddingBefore = f.PaddingBytes()

	plan := BuildPlan(f, e.policy)
	res.WouldChange = plan.Changed
	res.BytesAfter = f.WireSize(plan.Blocks, plan.KeepID3v2, plan.KeepID3v1)
	res.PaddingAfter = plan.PaddingBytes()
	res.PicturesRemoved = f.PictureCount() - plan.PictureCount()
	res.ID3Removed = f.HasID3() && e.policy.RemoveID3
	e.logger.Debug("planned rewrite",
		logging.String(logging.FieldFile, path),
		logging.Bool("changed", plan.Changed),
		logging.Int("pictures_removed", res.PicturesRemoved),
		logging.Int64("padding_before", res.PaddingBefore),
		logging.Int64("padding_after", res.PaddingAfter),
	)

	if e.checkOnly {
		res.Status = StatusSkipped
		res.Duration = time.Since(started)
		return res
	}

	exported, err := e.runExports(plan)
	res.PicturesExported = exported
	if err != nil {
		return e.fail(res, started, err)
	}

	if !plan.Changed {
		res.Status = StatusSkipped
		res.Duration = time.Since(started)
		return res
	}

	if err := flacfile.WriteFile(f, plan.Blocks, plan.KeepID3v2, plan.KeepID3v1); err != nil {
		return e.fail(res, started, err)
	}
	res.Status = StatusWritten
	res.Duration = time.Since(started)
	e.logger.Info("rewrote file",
		logging.String(logging.FieldFile, path),
		logging.Int64("bytes_saved", res.BytesSaved()),
		logging.Int("pictures_removed", res.PicturesRemoved),
	)
	return res
}

func (e *Engine) runExports(plan *Plan) (int, error) {
	if e.exporter == nil || len(plan.Exports) == 0 {
		return 0, nil
	}
	exported := 0
	for _, action := range plan.Exports {
		written, err := e.exporter.Export(action)
		if err != nil {
			return exported, err
		}
		if written {
			exported++
		}
	}
	return exported, nil
}

// fail marks the result failed and resets the size accounting: a failed
// file was left exactly as it was found. Exports that happened first are
// real files on disk and stay counted.
func (e *Engine) fail(res Result, started time.Time, err error) Result {
	res.Status = StatusFailed
	res.Err = err
	res.Kind = KindOf(err)
	res.BytesAfter = res.BytesBefore
	res.PaddingAfter = res.PaddingBefore
	res.PicturesRemoved = 0
	res.ID3Removed = false
	res.Duration = time.Since(started)
	e.logger.Error("processing failed",
		logging.String(logging.FieldFile, res.Path),
		logging.String(logging.FieldErrorKind, string(res.Kind)),
		logging.Error(err),
	)
	return res
}
