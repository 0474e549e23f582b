// Package report renders run progress and summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"flacfixer/internal/rewrite"
	"flacfixer/internal/runner"
	"flacfixer/internal/textutil"
)

const (
	statusIndent    = "  "
	statusWordWidth = 7
)

// Options configure a console reporter.
type Options struct {
	// CheckOnly replaces per-file line items with a dry-run table rendered
	// once all files are in.
	CheckOnly bool
	// Silent suppresses every line of reporter output.
	Silent bool
	// Progress draws a progress bar on errOut while files are processed;
	// per-file line items then collapse to failures only.
	Progress bool
}

// Console renders run progress for humans. It implements the runner's
// Reporter interface; the runner serializes calls, so no locking happens
// here.
type Console struct {
	out      io.Writer
	errOut   io.Writer
	opts     Options
	colorize bool

	bar         *progressbar.ProgressBar
	checkRows   [][]string
	failures    []rewrite.Result
	wouldSave   int64
	wouldChange int
}

// NewConsole builds a reporter writing line items and tables to out and the
// optional progress bar to errOut. Colors turn on only when out is a
// terminal and silent mode is off.
func NewConsole(out, errOut io.Writer, opts Options) *Console {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &Console{
		out:      out,
		errOut:   errOut,
		opts:     opts,
		colorize: !opts.Silent && ShouldColorize(out),
	}
}

func (c *Console) RunStarted(total int) {
	if c.opts.Silent || !c.opts.Progress || total <= 0 {
		return
	}
	c.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.errOut),
		progressbar.OptionSetDescription(textutil.Ternary(c.opts.CheckOnly, "checking", "fixing")),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (c *Console) FileDone(res rewrite.Result) {
	if c.opts.Silent {
		return
	}
	if c.bar != nil {
		_ = c.bar.Add(1)
	}
	if c.opts.CheckOnly {
		c.checkRows = append(c.checkRows, c.checkRow(res))
		if res.Failed() {
			c.failures = append(c.failures, res)
		}
		c.wouldSave += res.BytesSaved()
		if res.WouldChange {
			c.wouldChange++
		}
		return
	}
	if c.bar != nil {
		if !res.Failed() {
			return
		}
		_ = c.bar.Clear()
	}
	fmt.Fprintln(c.out, c.fileLine(res))
}

func (c *Console) RunFinished(summary runner.Summary) {
	if c.bar != nil {
		_ = c.bar.Finish()
		c.bar = nil
	}
	if c.opts.Silent {
		return
	}
	if c.opts.CheckOnly {
		c.renderCheckTable()
	}
	c.renderSummary(summary)
}

func (c *Console) renderCheckTable() {
	if len(c.checkRows) == 0 {
		return
	}
	headers := []string{"File", "Size", "Saved", "Pictures", "Padding", "ID3", "Change"}
	aligns := []Alignment{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft, AlignLeft}
	fmt.Fprintln(c.out, RenderTable(headers, c.checkRows, aligns))
	for _, res := range c.failures {
		fmt.Fprintln(c.out, c.fileLine(res))
	}
}

func (c *Console) renderSummary(summary runner.Summary) {
	fmt.Fprintln(c.out)

	var headers []string
	var row []string
	if c.opts.CheckOnly {
		headers = []string{"Files", "Would change", "Failed", "Reclaimable"}
		row = []string{
			strconv.Itoa(summary.FilesTotal),
			strconv.Itoa(c.wouldChange),
			strconv.Itoa(summary.FilesFailed),
			sizeOf(c.wouldSave),
		}
	} else {
		headers = []string{"Files", "Written", "Skipped", "Failed", "Reclaimed", "Exported"}
		row = []string{
			strconv.Itoa(summary.FilesTotal),
			strconv.Itoa(summary.FilesWritten),
			strconv.Itoa(summary.FilesSkipped),
			strconv.Itoa(summary.FilesFailed),
			sizeOf(summary.BytesReclaimed),
			strconv.Itoa(summary.PicturesExported),
		}
	}
	aligns := make([]Alignment, len(headers))
	for i := range aligns {
		aligns[i] = AlignRight
	}
	fmt.Fprintln(c.out, RenderTable(headers, [][]string{row}, aligns))

	if summary.Interrupted {
		notice := fmt.Sprintf("Interrupted after %d of %d files", summary.Processed(), summary.FilesTotal)
		fmt.Fprintln(c.out, paint(ansiYellow, notice, c.colorize))
	}

	reclaimed := summary.BytesReclaimed
	verb := "was"
	if c.opts.CheckOnly {
		reclaimed = c.wouldSave
		verb = "would be"
	}
	if summary.Processed() > 1 && reclaimed > 0 {
		fmt.Fprintf(c.out, "\nA total of %s %s removed\n", sizeOf(reclaimed), verb)
	}
}

func (c *Console) fileLine(res rewrite.Result) string {
	word := fmt.Sprintf("%-*s", statusWordWidth, string(res.Status))
	line := statusIndent + paint(statusColor(res.Status), word, c.colorize) + " " + displayPath(res)
	if detail := resultDetail(res); detail != "" {
		line += "  (" + detail + ")"
	}
	return line
}

func (c *Console) checkRow(res rewrite.Result) []string {
	path := displayPath(res)
	if res.Failed() {
		size := textutil.Ternary(res.BytesBefore > 0, sizeOf(res.BytesBefore), "-")
		return []string{path, size, "-", "-", "-", "-", "failed"}
	}

	saved := "-"
	if s := res.BytesSaved(); s > 0 {
		saved = sizeOf(s)
	}
	pictures := "-"
	if res.PicturesRemoved > 0 {
		pictures = strconv.Itoa(res.PicturesRemoved)
	}
	padding := "-"
	switch {
	case res.PaddingBefore != res.PaddingAfter:
		padding = sizeOf(res.PaddingBefore) + " -> " + sizeOf(res.PaddingAfter)
	case res.PaddingBefore > 0:
		padding = sizeOf(res.PaddingBefore)
	}
	id3 := textutil.Ternary(res.ID3Removed, "strip", "-")
	change := textutil.Ternary(res.WouldChange, "yes", "no")
	return []string{path, sizeOf(res.BytesBefore), saved, pictures, padding, id3, change}
}

func statusColor(status rewrite.Status) string {
	switch status {
	case rewrite.StatusWritten:
		return ansiGreen
	case rewrite.StatusFailed:
		return ansiRed
	default:
		return ""
	}
}

// resultDetail summarizes what a rewrite did (or what went wrong) for the
// parenthesized tail of a line item. Empty for an untouched file.
func resultDetail(res rewrite.Result) string {
	if res.Failed() {
		return fmt.Sprintf("%s: %v", res.Kind, res.Err)
	}
	var parts []string
	if n := res.PicturesRemoved; n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s removed", n, textutil.Ternary(n == 1, "picture", "pictures")))
	}
	if n := res.PicturesExported; n > 0 {
		parts = append(parts, fmt.Sprintf("%d exported", n))
	}
	if res.PaddingBefore != res.PaddingAfter {
		parts = append(parts, fmt.Sprintf("padding %s -> %s", sizeOf(res.PaddingBefore), sizeOf(res.PaddingAfter)))
	}
	if res.ID3Removed {
		parts = append(parts, "ID3 stripped")
	}
	if len(parts) == 0 {
		return ""
	}
	if saved := res.BytesSaved(); saved > 0 {
		return "saved " + sizeOf(saved) + ": " + strings.Join(parts, ", ")
	}
	return strings.Join(parts, ", ")
}

// displayPath shortens a path to its run root; paths outside the root (or
// roots the runner never set) render as given.
func displayPath(res rewrite.Result) string {
	if res.Root == "" {
		return res.Path
	}
	rel, err := filepath.Rel(res.Root, res.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return res.Path
	}
	return rel
}

func sizeOf(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
