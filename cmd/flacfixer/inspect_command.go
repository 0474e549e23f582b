package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flacfixer/internal/inspect"
	"flacfixer/internal/report"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Describe one FLAC file's metadata layout",
		Long: "Inspect lists every metadata block in a FLAC file along with any ID3\n" +
			"tags wrapped around it, without modifying anything. Block sizes are\n" +
			"exact byte counts so padding and picture weight are easy to verify.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := inspect.Describe(args[0])
			if err != nil {
				return err
			}
			renderInspect(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}

func renderInspect(out io.Writer, rep *inspect.Report) {
	fmt.Fprintf(out, "%s (%s)\n", rep.Path, formatSize(rep.Size))
	fmt.Fprintf(out, "  %d Hz, %d ch, %d bit, %s\n",
		rep.Info.SampleRate, rep.Info.Channels, rep.Info.BitsPerSample,
		rep.Info.Duration().Round(time.Second))
	fmt.Fprintf(out, "  audio: %s starting at byte %d\n", formatSize(rep.AudioSize), rep.AudioOffset)
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(rep.Blocks))
	for _, block := range rep.Blocks {
		rows = append(rows, []string{
			strconv.Itoa(block.Index),
			block.Type,
			strconv.Itoa(block.Size),
			block.Detail,
		})
	}
	fmt.Fprintln(out, report.RenderTable(
		[]string{"#", "Type", "Size", "Detail"},
		rows,
		[]report.Alignment{report.AlignRight, report.AlignLeft, report.AlignRight, report.AlignLeft},
	))

	if rep.ID3v2 != nil {
		fmt.Fprintf(out, "ID3v2: version 2.%d, %d frames, %s\n",
			rep.ID3v2.Version, rep.ID3v2.Frames, formatSize(rep.ID3v2.Size))
	}
	if rep.ID3v1 {
		fmt.Fprintln(out, "ID3v1: present")
	}
	if len(rep.Tags) > 0 {
		fmt.Fprintln(out, "Tags:")
		for _, field := range rep.Tags {
			fmt.Fprintf(out, "  %-14s %s\n", field.Name, field.Value)
		}
	}
}
