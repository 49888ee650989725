package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goattend/storage"
)

var (
	historyDBPath string
	historyRunID  string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past recording runs",
	Long: `List recording runs stored in SQLite, newest first, with the last sync time.

With --run the per-day outcomes of one run are printed.`,
	Example: `
  # List the last 20 runs
  goattend history

  # Show the outcomes of one run
  goattend history --run 3f0c1e6a-...
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigIfPresent()
		if err != nil {
			return err
		}
		store, err := openStore(historyDBPath, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if strings.TrimSpace(historyRunID) != "" {
			run, err := store.GetRun(strings.TrimSpace(historyRunID))
			if err != nil {
				return err
			}
			printRunDetail(out, run)
			return nil
		}

		last, ok, err := store.LastSync()
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(out, "Last sync: %s\n", last.Local().Format(time.RFC3339))
		} else {
			fmt.Fprintln(out, "Last sync: never")
		}

		runs, err := store.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		for _, run := range runs {
			fmt.Fprintln(out, formatRunLine(run))
		}
		return nil
	},
}

func formatRunLine(run storage.Run) string {
	return fmt.Sprintf("%s  %s  %-18s total=%d ok=%d failed=%d",
		run.ID,
		run.StartedAt.Local().Format("2006-01-02 15:04"),
		runLabel(run),
		run.Result.Total,
		run.Result.Successful,
		run.Result.Failed,
	)
}

func printRunDetail(out io.Writer, run storage.Run) {
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, runLabel(run))
	fmt.Fprintf(out, "Started: %s, finished: %s\n", run.StartedAt.Local().Format(time.RFC3339), run.FinishedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Total: %d, Successful: %d, Failed: %d\n", run.Result.Total, run.Result.Successful, run.Result.Failed)
	for _, outcome := range run.Result.Details {
		if outcome.Success {
			fmt.Fprintf(out, "  %s ok (%d attempt(s)) %s\n", outcome.Date, outcome.Attempts, outcome.Message)
			continue
		}
		fmt.Fprintf(out, "  %s failed (%d attempt(s)) %s\n", outcome.Date, outcome.Attempts, outcome.Error)
	}
}

func runLabel(run storage.Run) string {
	if run.DryRun {
		return run.Mode + " (dry run)"
	}
	return run.Mode
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDBPath, "db", "", "Path to local SQLite database (default: storage.db_path or $HOME/.goattend/goattend.db)")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "Show the outcomes of this run id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
}
