package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"flacfixer/internal/ledger"
	"flacfixer/internal/report"
)

const (
	displayTimeLayout = "2006-01-02 15:04"
	runIDDisplayChars = 8
	errorDetailWidth  = 60
)

func renderRunList(runs []*ledger.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.ID),
			run.Mode,
			formatDisplayTime(run.StartedAt),
			strconv.Itoa(run.FilesTotal),
			strconv.Itoa(run.FilesWritten),
			strconv.Itoa(run.FilesFailed),
			formatSize(run.BytesReclaimed),
		})
	}
	return report.RenderTable(
		[]string{"Run", "Mode", "Started", "Files", "Written", "Failed", "Reclaimed"},
		rows,
		[]report.Alignment{
			report.AlignLeft, report.AlignLeft, report.AlignLeft,
			report.AlignRight, report.AlignRight, report.AlignRight, report.AlignRight,
		},
	)
}

func renderRunDetail(out io.Writer, run *ledger.Run, files []*ledger.FileRecord) {
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Mode)
	fmt.Fprintf(out, "  started:   %s\n", formatDisplayTime(run.StartedAt))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "  finished:  %s\n", formatDisplayTime(*run.FinishedAt))
	}
	fmt.Fprintf(out, "  files:     %d total, %d written, %d skipped, %d failed\n",
		run.FilesTotal, run.FilesWritten, run.FilesSkipped, run.FilesFailed)
	fmt.Fprintf(out, "  reclaimed: %s\n", formatSize(run.BytesReclaimed))
	if run.PicturesExported > 0 {
		fmt.Fprintf(out, "  exported:  %d pictures\n", run.PicturesExported)
	}
	if len(files) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, report.RenderTable(
		[]string{"File", "Status", "Saved", "Pictures", "Padding", "ID3", "Error"},
		buildRunFileRows(files),
		[]report.Alignment{
			report.AlignLeft, report.AlignLeft, report.AlignRight,
			report.AlignRight, report.AlignRight, report.AlignLeft, report.AlignLeft,
		},
	))
}

func buildRunFileRows(files []*ledger.FileRecord) [][]string {
	rows := make([][]string, 0, len(files))
	for _, rec := range files {
		saved := "-"
		if delta := rec.BytesBefore - rec.BytesAfter; delta > 0 {
			saved = formatSize(delta)
		}
		pictures := "-"
		if rec.PicturesRemoved > 0 {
			pictures = strconv.Itoa(rec.PicturesRemoved)
		}
		padding := "-"
		switch {
		case rec.PaddingBefore != rec.PaddingAfter:
			padding = formatSize(rec.PaddingBefore) + " -> " + formatSize(rec.PaddingAfter)
		case rec.PaddingBefore > 0:
			padding = formatSize(rec.PaddingBefore)
		}
		errDetail := "-"
		if rec.ErrorMessage != "" {
			errDetail = rec.ErrorMessage
			if rec.ErrorKind != "" {
				errDetail = rec.ErrorKind + ": " + rec.ErrorMessage
			}
			errDetail = truncateDetail(errDetail)
		}
		rows = append(rows, []string{
			rec.Path,
			rec.Status,
			saved,
			pictures,
			padding,
			yesNo(rec.ID3Removed),
			errDetail,
		})
	}
	return rows
}

func shortRunID(id string) string {
	if len(id) > runIDDisplayChars {
		return id[:runIDDisplayChars]
	}
	return id
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(displayTimeLayout)
}

func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func truncateDetail(detail string) string {
	if len(detail) <= errorDetailWidth {
		return detail
	}
	return detail[:errorDetailWidth-3] + "..."
}
