package report

import (
	"io"
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := RenderTable(
		[]string{"File", "Size", "Change"},
		[][]string{{"a.flac", "1.0 KiB"}},
		[]Alignment{AlignLeft, AlignRight, AlignLeft},
	)
	if !strings.Contains(out, "╭") {
		t.Fatalf("expected rounded corners, got %q", out)
	}
	for _, want := range []string{"File", "Size", "Change", "a.flac", "1.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := RenderTable(nil, [][]string{{"a"}}, nil); out != "" {
		t.Fatalf("expected empty render, got %q", out)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if ShouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestPaint(t *testing.T) {
	if got := paint(ansiGreen, "written", false); got != "written" {
		t.Fatalf("expected plain text without colorize, got %q", got)
	}
	got := paint(ansiGreen, "written", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected color wrapping, got %q", got)
	}
}
