package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"flacfixer/internal/config"
	"flacfixer/internal/ledger"
	"flacfixer/internal/logging"
	"flacfixer/internal/pictures"
	"flacfixer/internal/preflight"
	"flacfixer/internal/report"
	"flacfixer/internal/rewrite"
	"flacfixer/internal/runner"
)

func newFixCommand(ctx *commandContext) *cobra.Command {
	var (
		checkOnly      bool
		silent         bool
		keepPictures   bool
		keepID3        bool
		maxPadding     string
		exportPictures bool
		exportDir      string
		jobs           int
		progress       bool
		noHistory      bool
	)

	cmd := &cobra.Command{
		Use:   "fix <path>...",
		Short: "Rewrite FLAC files, dropping pictures, oversized padding and ID3 tags",
		Long: "Fix rewrites every FLAC file found under the given files and directories.\n" +
			"Embedded pictures and ID3 tags are removed, padding is capped at the\n" +
			"configured ceiling, and the encoded audio is carried over untouched.\n" +
			"Files already in shape are left alone. With --check nothing is written;\n" +
			"the command prints what a real run would do instead.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Flag overrides apply to a run-scoped copy so every consumer
			// (preflight, ledger, logging, exporter) sees the same effective
			// configuration.
			runCfg := *cfg
			if keepPictures {
				runCfg.Rewrite.RemovePictures = false
			}
			if keepID3 {
				runCfg.Rewrite.RemoveID3 = false
			}
			if exportPictures {
				runCfg.Rewrite.ExportPictures = true
			}
			if cmd.Flags().Changed("export-dir") {
				expanded, err := config.ExpandPath(exportDir)
				if err != nil {
					return fmt.Errorf("--export-dir: %w", err)
				}
				runCfg.Paths.ExportDir = expanded
			}
			if cmd.Flags().Changed("jobs") {
				if jobs < 1 {
					return errors.New("--jobs must be at least 1")
				}
				runCfg.Run.Jobs = jobs
			}
			if progress {
				runCfg.Run.Progress = true
			}
			if noHistory {
				runCfg.History.Enabled = false
			}
			if silent {
				runCfg.Logging.Level = "error"
			}

			policy := rewrite.Policy{
				RemovePictures: runCfg.Rewrite.RemovePictures,
				RemoveID3:      runCfg.Rewrite.RemoveID3,
				ExportPictures: runCfg.Rewrite.ExportPictures,
			}
			if cmd.Flags().Changed("max-padding") {
				parsed, err := config.ParsePaddingSize(maxPadding)
				if err != nil {
					return fmt.Errorf("--max-padding: %w", err)
				}
				policy.MaxPaddingBytes = parsed
			} else {
				parsed, err := runCfg.MaxPaddingBytes()
				if err != nil {
					return err
				}
				policy.MaxPaddingBytes = parsed
			}

			if failures := preflight.Failures(preflight.ForRun(&runCfg, policy.ExportPictures)); len(failures) > 0 {
				details := make([]string, 0, len(failures))
				for _, result := range failures {
					details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
				}
				return fmt.Errorf("preflight: %s", strings.Join(details, "; "))
			}

			logger, err := logging.NewFromConfig(&runCfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}

			var exporter rewrite.PictureExporter
			if policy.ExportPictures {
				exporter = pictures.NewExporter(runCfg.Paths.ExportDir, logger)
			}

			var store *ledger.Store
			if runCfg.History.Enabled {
				store, err = ledger.Open(&runCfg)
				if err != nil {
					return fmt.Errorf("open run history: %w", err)
				}
				defer func() { _ = store.Close() }()
			}

			engine := rewrite.NewEngine(policy, exporter, checkOnly, logger)
			console := report.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Options{
				CheckOnly: checkOnly,
				Silent:    silent,
				Progress:  runCfg.Run.Progress,
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if _, err := runner.New(&runCfg, engine, console, store, runCfg.Run.Jobs, logger).Run(runCtx, args); err != nil {
				if silent {
					return silencedError{err}
				}
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&checkOnly, "check", false, "Report what would change without writing anything")
	flags.BoolVar(&silent, "silent", false, "Suppress report output; the exit code still reflects failures")
	flags.BoolVar(&keepPictures, "keep-pictures", false, "Leave embedded pictures in place")
	flags.BoolVar(&keepID3, "keep-id3", false, "Leave ID3v1/ID3v2 tags in place")
	flags.StringVar(&maxPadding, "max-padding", "", "Padding ceiling such as \"8 KiB\"; 0 strips padding entirely")
	flags.BoolVar(&exportPictures, "export-pictures", false, "Save removed pictures to the export directory")
	flags.StringVar(&exportDir, "export-dir", "", "Directory for exported pictures (with --export-pictures)")
	flags.IntVar(&jobs, "jobs", 0, "Number of files to process in parallel")
	flags.BoolVar(&progress, "progress", false, "Show a progress bar on stderr")
	flags.BoolVar(&noHistory, "no-history", false, "Skip recording this run in the history database")
	cmd.MarkFlagsMutuallyExclusive("check", "silent")

	return cmd
}
