package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:   "flacfixer",
		Short: "Shrink FLAC files without touching the audio",
		Long: "flacfixer strips embedded pictures, oversized padding and ID3 tags from\n" +
			"FLAC files. Rewrites are atomic and leave the encoded audio byte for byte\n" +
			"identical; a check mode reports what would change without writing anything.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	ctx := newCommandContext(&configFlag)

	cmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file (default: ~/.config/flacfixer/config.toml)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if shouldSkipConfig(cmd) {
			return nil
		}
		_, err := ctx.ensureConfig()
		return err
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}

	cmd.AddCommand(
		newFixCommand(ctx),
		newInspectCommand(),
		newHistoryCommand(ctx),
		newConfigCommand(ctx),
	)

	return cmd
}
