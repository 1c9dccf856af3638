package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/service"
	"github.com/rcleozier/creator-log/internal/sheet"
	"github.com/rcleozier/creator-log/internal/snapshot"
)

func newCasesCommand(ctx *commandContext) *cobra.Command {
	var status, search, sortOrder string

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Print the case list as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			svc := service.NewCaseService(
				sheet.NewClient(cfg.Sheet.CSVURL, cfg.Sheet.Timeout),
				nil,
				snapshot.NewStore(cfg.Sheet.SnapshotDir),
				service.NewMemoryCache(),
				cfg.Sheet.CacheTTL,
			)

			cases, ds := svc.List(cmd.Context(), service.Filter{
				Status: status,
				Search: search,
				Sort:   sortOrder,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderCases(cases))
			fmt.Fprintf(out, "%d of %d cases (source: %s)\n", len(cases), len(ds.Cases), ds.Source)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show cases with this channel status")
	cmd.Flags().StringVar(&search, "search", "", "Match channel name, reason or description")
	cmd.Flags().StringVar(&sortOrder, "sort", "", "Sort order: newest, oldest, name, subscribers")
	return cmd
}

func renderCases(cases []model.Case) string {
	rows := make([][]string, 0, len(cases))
	for _, c := range cases {
		subs := ""
		if c.SubscriberCount != nil {
			subs = humanize.Comma(int64(*c.SubscriberCount))
		}
		rows = append(rows, []string{
			c.ID,
			c.ChannelName,
			string(c.Status),
			string(c.AppealStatus),
			truncateCell(c.Reason, 40),
			c.SubmittedDate,
			subs,
		})
	}
	return renderTable(
		[]string{"ID", "Channel", "Status", "Appeal", "Reason", "Submitted", "Subscribers"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func truncateCell(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
