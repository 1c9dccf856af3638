package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/service"
)

func newGradeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "grade <coinId>...",
		Short: "Grade one or more coins and print a table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newGradeService(ctx.cfg, service.NewMemoryCache())

			ids := make([]string, 0, len(args))
			for _, a := range args {
				ids = append(ids, strings.ToLower(strings.TrimSpace(a)))
			}
			reports, err := svc.Batch(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				return fmt.Errorf("no grades available for %s", strings.Join(ids, ", "))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderGrades(reports))
			if missing := len(ids) - len(reports); missing > 0 {
				fmt.Fprintf(out, "%d coin(s) could not be graded\n", missing)
			}
			return nil
		},
	}
}

func renderGrades(reports []*model.GradeReport) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Coin.Symbol,
			r.Coin.Name,
			r.Grade.Final,
			r.Grade.Score + " / " + r.Grade.MaxScore,
			r.Metrics.Rank,
			r.Metrics.MarketCap,
			fmt.Sprintf("%+.2f%%", r.Metrics.PriceChange24h),
		})
	}
	return renderTable(
		[]string{"Symbol", "Name", "Grade", "Score", "Rank", "Market Cap", "24h"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}
