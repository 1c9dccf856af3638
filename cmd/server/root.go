package main

import (
	"github.com/spf13/cobra"

	"github.com/rcleozier/creator-log/internal/config"
	"github.com/rcleozier/creator-log/internal/logging"
)

const serviceName = "creatorlog"

// commandContext carries state shared by subcommands.
type commandContext struct {
	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Open Creator Log and crypto grade API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx.cfg = cfg
			logging.Init(cfg.LogLevel, serviceName)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSnapshotCommand(ctx))
	rootCmd.AddCommand(newCasesCommand(ctx))
	rootCmd.AddCommand(newGradeCommand(ctx))

	return rootCmd
}
