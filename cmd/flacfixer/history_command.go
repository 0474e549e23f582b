package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flacfixer/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Long: "History lists the most recent runs recorded in the local database,\n" +
			"newest first. Use \"history show\" with a run ID (or unique prefix)\n" +
			"for the per-file outcomes of a single run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderRunList(runs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "How many runs to list")
	cmd.AddCommand(newHistoryShowCommand(ctx))

	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's per-file outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ref := strings.TrimSpace(args[0])
			run, err := store.FindRun(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no run matches %q", ref)
			}
			files, err := store.RunFiles(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			renderRunDetail(cmd.OutOrStdout(), run, files)
			return nil
		},
	}
}

func openHistory(ctx *commandContext) (*ledger.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled in the configuration")
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return store, nil
}
