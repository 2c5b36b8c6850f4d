package main

import (
	"fmt"
	"os"

	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/recorder"
	"github.com/spf13/cobra"
)

// recordRun stores rs when --record names a database
func recordRun(cmd *cobra.Command, kind string, rs *compare.RankingSet) error {
	path, _ := cmd.Flags().GetString("record")
	if path == "" {
		return nil
	}
	rec, err := recorder.Open(path)
	if err != nil {
		return err
	}
	defer rec.Close()
	if err := rec.RecordRanking(kind, rs); err != nil {
		return fmt.Errorf("failed to record run %s: %w", rs.RunID, err)
	}
	return nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [db-file]",
		Short: "List recorded ranking runs or replay one",
		Long: `List the rank and whatif runs stored with --record, newest first.

Examples:
  savingsim history runs.db
  savingsim history runs.db --run 3f0c1f8e-7a4c-4f3e-9a38-6f1f0d3c2b11 --format csv
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("no run database: %w", err)
			}
			rec, err := recorder.NewSQLiteRecorder(args[0])
			if err != nil {
				return err
			}
			defer rec.Close()

			if runID, _ := cmd.Flags().GetString("run"); runID != "" {
				rs, err := rec.LoadRanking(runID)
				if err != nil {
					return err
				}
				return formatRanking(cmd, rs)
			}

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := rec.RecentRuns(limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No recorded runs")
				return nil
			}
			fmt.Fprintf(w, "%-36s  %-6s  %-16s  %-24s  %-22s  %18s  %6s  %6s\n",
				"RUN ID", "KIND", "RECORDED", "CONTRACT", "BEST", "SURRENDER", "RANKED", "FAILED")
			for _, r := range runs {
				best := r.BestName
				if best == "" {
					best = "-"
				}
				fmt.Fprintf(w, "%-36s  %-6s  %-16s  %-24s  %-22s  %18s  %6d  %6d\n",
					r.RunID, r.Kind, r.RecordedAt.Format("2006-01-02 15:04"), r.ContractName,
					best, r.BestSurrender.StringFixed(0)+" "+r.Currency, r.Entries, r.Failures)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Number of runs to list (0 lists all)")
	cmd.Flags().String("run", "", "Replay the ranking of this run id")
	cmd.Flags().StringP("format", "f", "table", "Output format for --run (table, compact, csv, json)")
	return cmd
}
