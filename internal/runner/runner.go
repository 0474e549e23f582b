// Package runner orchestrates a batch: collect the files, run each through
// the engine, report as results land, and record history when enabled.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"flacfixer/internal/config"
	"flacfixer/internal/ledger"
	"flacfixer/internal/logging"
	"flacfixer/internal/rewrite"
	"flacfixer/internal/scan"
)

// Reporter receives run progress. Calls are serialized by the runner, so
// implementations need no locking of their own.
type Reporter interface {
	RunStarted(total int)
	FileDone(res rewrite.Result)
	RunFinished(summary Summary)
}

// Summary aggregates one run. FilesTotal counts what the scan discovered;
// on an interrupted run the written/skipped/failed counts cover only the
// files that were actually processed.
type Summary struct {
	RunID            string
	Mode             string
	FilesTotal       int
	FilesWritten     int
	FilesSkipped     int
	FilesFailed      int
	BytesReclaimed   int64
	PicturesExported int
	Started          time.Time
	Finished         time.Time
	Interrupted      bool
}

// Processed is how many files reached a terminal state.
func (s Summary) Processed() int {
	return s.FilesWritten + s.FilesSkipped + s.FilesFailed
}

const (
	// ModeFix rewrites files; ModeCheck only reports what a fix would do.
	ModeFix   = "fix"
	ModeCheck = "check"
)

// Runner ties one engine, one reporter and optionally one history store
// into a batch run.
type Runner struct {
	cfg      *config.Config
	engine   *rewrite.Engine
	reporter Reporter
	store    *ledger.Store
	jobs     int
	logger   *slog.Logger
}

// New assembles a runner. store may be nil when history is disabled;
// reporter must not be nil. jobs below 1 is treated as sequential.
func New(cfg *config.Config, engine *rewrite.Engine, reporter Reporter, store *ledger.Store, jobs int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if jobs < 1 {
		jobs = 1
	}
	return &Runner{
		cfg:      cfg,
		engine:   engine,
		reporter: reporter,
		store:    store,
		jobs:     jobs,
		logger:   logging.WithComponent(logger, "runner"),
	}
}

// Run processes every file under the given roots. Scan failures, a held
// history lock and a failed run insert abort before the first file; after
// that, per-file failures are folded into the summary and the batch keeps
// going. The returned error is non-nil when any file failed or the context
// was canceled, so callers can map it straight to the exit code.
func (r *Runner) Run(ctx context.Context, roots []string) (Summary, error) {
	summary := Summary{
		RunID:   uuid.NewString(),
		Mode:    ModeFix,
		Started: time.Now(),
	}
	if r.engine.CheckOnly() {
		summary.Mode = ModeCheck
	}

	entries, err := scan.Collect(roots)
	if err != nil {
		return summary, err
	}
	summary.FilesTotal = len(entries)

	if r.store != nil {
		lock := flock.New(r.cfg.LockPath())
		locked, err := lock.TryLock()
		if err != nil {
			return summary, fmt.Errorf("acquire history lock: %w", err)
		}
		if !locked {
			return summary, fmt.Errorf("another run is recording history (lock held at %s)", r.cfg.LockPath())
		}
		defer func() { _ = lock.Unlock() }()

		if err := r.store.BeginRun(ctx, summary.RunID, summary.Mode, summary.Started); err != nil {
			return summary, fmt.Errorf("record run start: %w", err)
		}
	}

	r.logger.Info("run started",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.String("mode", summary.Mode),
		logging.Int("files", summary.FilesTotal),
		logging.Int("jobs", r.jobs),
	)
	r.reporter.RunStarted(summary.FilesTotal)

	for res := range r.dispatch(ctx, entries) {
		switch res.Status {
		case rewrite.StatusWritten:
			summary.FilesWritten++
			summary.BytesReclaimed += res.BytesSaved()
		case rewrite.StatusSkipped:
			summary.FilesSkipped++
		case rewrite.StatusFailed:
			summary.FilesFailed++
		}
		summary.PicturesExported += res.PicturesExported

		r.reporter.FileDone(res)
		r.recordFile(summary.RunID, res)
	}

	summary.Finished = time.Now()
	summary.Interrupted = ctx.Err() != nil
	r.finishRun(summary)
	r.reporter.RunFinished(summary)
	r.logger.Info("run finished",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.Int("written", summary.FilesWritten),
		logging.Int("skipped", summary.FilesSkipped),
		logging.Int("failed", summary.FilesFailed),
		logging.Int64("bytes_reclaimed", summary.BytesReclaimed),
	)

	if summary.FilesFailed > 0 {
		return summary, fmt.Errorf("%d of %d files failed", summary.FilesFailed, summary.FilesTotal)
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// dispatch fans entries out to r.jobs workers and returns the channel their
// results land on. Cancellation is honored at the file boundary: a file the
// engine has started is finished, files not yet started are dropped.
func (r *Runner) dispatch(ctx context.Context, entries []scan.Entry) <-chan rewrite.Result {
	feed := make(chan scan.Entry)
	results := make(chan rewrite.Result, r.jobs)

	go func() {
		defer close(feed)
		for _, entry := range entries {
			select {
			case feed <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < r.jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range feed {
				if ctx.Err() != nil {
					continue
				}
				results <- r.engine.Process(entry.Path, entry.Root)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// recordFile writes one result to the ledger. History bookkeeping never
// fails a run that is otherwise doing its job; problems are logged and the
// batch continues. Records are written against the background context so an
// in-flight file still lands in history when the run is being canceled.
func (r *Runner) recordFile(runID string, res rewrite.Result) {
	if r.store == nil {
		return
	}
	rec := ledger.FileRecord{
		RunID:            runID,
		Path:             res.Path,
		Status:           string(res.Status),
		ErrorKind:        string(res.Kind),
		BytesBefore:      res.BytesBefore,
		BytesAfter:       res.BytesAfter,
		PicturesRemoved:  res.PicturesRemoved,
		PicturesExported: res.PicturesExported,
		PaddingBefore:    res.PaddingBefore,
		PaddingAfter:     res.PaddingAfter,
		ID3Removed:       res.ID3Removed,
		Duration:         res.Duration,
		ProcessedAt:      time.Now(),
	}
	if res.Err != nil {
		rec.ErrorMessage = res.Err.Error()
	}
	if err := r.store.RecordFile(context.Background(), rec); err != nil {
		r.logger.Warn("failed to record file result",
			logging.String(logging.FieldFile, res.Path),
			logging.Error(err),
		)
	}
}

func (r *Runner) finishRun(summary Summary) {
	if r.store == nil {
		return
	}
	// The run row is finalized even when the context was canceled, so the
	// history shows what the interrupted run got done.
	ctx := context.Background()
	run := ledger.Run{
		ID:               summary.RunID,
		Mode:             summary.Mode,
		StartedAt:        summary.Started,
		FinishedAt:       &summary.Finished,
		FilesTotal:       summary.FilesTotal,
		FilesWritten:     summary.FilesWritten,
		FilesSkipped:     summary.FilesSkipped,
		FilesFailed:      summary.FilesFailed,
		BytesReclaimed:   summary.BytesReclaimed,
		PicturesExported: summary.PicturesExported,
	}
	if err := r.store.FinishRun(ctx, run); err != nil {
		r.logger.Warn("failed to record run finish",
			logging.String(logging.FieldRunID, summary.RunID),
			logging.Error(err),
		)
		return
	}
	if keep := r.cfg.History.KeepRuns; keep > 0 {
		if _, err := r.store.PruneRuns(ctx, keep); err != nil {
			r.logger.Warn("failed to prune run history", logging.Error(err))
		}
	}
}
