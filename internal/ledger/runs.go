package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one recorded invocation of the fix command.
type Run struct {
	ID               string
	Mode             string
	StartedAt        time.Time
	FinishedAt       *time.Time
	FilesTotal       int
	FilesWritten     int
	FilesSkipped     int
	FilesFailed      int
	BytesReclaimed   int64
	PicturesExported int
}

// FileRecord is the stored outcome of one file within a run.
type FileRecord struct {
	RunID            string
	Path             string
	Status           string
	ErrorKind        string
	ErrorMessage     string
	BytesBefore      int64
	BytesAfter       int64
	PicturesRemoved  int
	PicturesExported int
	PaddingBefore    int64
	PaddingAfter     int64
	ID3Removed       bool
	Duration         time.Duration
	ProcessedAt      time.Time
}

const runColumns = "id, mode, started_at, finished_at, files_total, files_written, files_skipped, files_failed, bytes_reclaimed, pictures_exported"

// BeginRun inserts a new run row with zeroed counters.
func (s *Store) BeginRun(ctx context.Context, id, mode string, startedAt time.Time) error {
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, mode, started_at) VALUES (?, ?, ?)`,
		id, mode, startedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters and the finish time for a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET finished_at = ?, files_total = ?, files_written = ?, files_skipped = ?,
             files_failed = ?, bytes_reclaimed = ?, pictures_exported = ?
         WHERE id = ?`,
		nullableTime(run.FinishedAt),
		run.FilesTotal,
		run.FilesWritten,
		run.FilesSkipped,
		run.FilesFailed,
		run.BytesReclaimed,
		run.PicturesExported,
		run.ID,
	); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordFile appends a per-file outcome to a run.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO run_files (
            run_id, path, status, error_kind, error_message,
            bytes_before, bytes_after, pictures_removed, pictures_exported,
            padding_before, padding_after, id3_removed, duration_ms, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Path,
		rec.Status,
		nullableString(rec.ErrorKind),
		nullableString(rec.ErrorMessage),
		rec.BytesBefore,
		rec.BytesAfter,
		rec.PicturesRemoved,
		rec.PicturesExported,
		rec.PaddingBefore,
		rec.PaddingAfter,
		boolToInt(rec.ID3Removed),
		rec.Duration.Milliseconds(),
		rec.ProcessedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record file: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs first, at most limit of them.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a run by full ID or unique prefix. A missing run yields
// (nil, nil); an ambiguous prefix is an error.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2`,
		idOrPrefix, idOrPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, nil
	case 1:
		return runs[0], nil
	default:
		if runs[0].ID == idOrPrefix {
			return runs[0], nil
		}
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

// RunFiles returns the per-file records of a run in processing order.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, path, status, error_kind, error_message,
                bytes_before, bytes_after, pictures_removed, pictures_exported,
                padding_before, padding_after, id3_removed, duration_ms, processed_at
         FROM run_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var records []*FileRecord
	for rows.Next() {
		var (
			rec        FileRecord
			errKind    sql.NullString
			errMessage sql.NullString
			id3        sql.NullInt64
			durationMS int64
			processed  string
		)
		if err := rows.Scan(
			&rec.RunID, &rec.Path, &rec.Status, &errKind, &errMessage,
			&rec.BytesBefore, &rec.BytesAfter, &rec.PicturesRemoved, &rec.PicturesExported,
			&rec.PaddingBefore, &rec.PaddingAfter, &id3, &durationMS, &processed,
		); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		rec.ErrorKind = errKind.String
		rec.ErrorMessage = errMessage.String
		rec.ID3Removed = id3.Valid && id3.Int64 != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if at, err := parseTimeString(processed); err == nil {
			rec.ProcessedAt = at
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// PruneRuns deletes everything but the newest keep runs, including their
// file records, and reports how many runs were removed.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &run.Mode, &startedRaw, &finishedRaw,
		&run.FilesTotal, &run.FilesWritten, &run.FilesSkipped, &run.FilesFailed,
		&run.BytesReclaimed, &run.PicturesExported,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
