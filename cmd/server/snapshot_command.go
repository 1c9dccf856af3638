package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcleozier/creator-log/internal/normalize"
	"github.com/rcleozier/creator-log/internal/sheet"
	"github.com/rcleozier/creator-log/internal/snapshot"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the sheet and write a dated snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			client := sheet.NewClient(cfg.Sheet.CSVURL, cfg.Sheet.Timeout)
			table, err := client.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch sheet: %w", err)
			}

			now := time.Now()
			cases := normalize.Cases(table, normalize.Options{Now: func() time.Time { return now }})
			path, err := snapshot.NewStore(cfg.Sheet.SnapshotDir).Write(cases, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cases to %s\n", len(cases), path)
			return nil
		},
	}
}
