package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"goattend/attendance"
	"goattend/config"
	"goattend/importer"
	"goattend/recorder"
)

var (
	recordImported  bool
	recordFrom      string
	recordTo        string
	recordDryRun    bool
	recordDBPath    string
	recordStateFile string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record attendance days in Personio",
	Long: `Read the remote timesheet, select the days that can be recorded, and commit them one by one.

Profile mode (default) generates work/break/work periods from the weekly schedule for the
current month or the --from/--to range. With --imported the periods come from the imported
punches instead; only imported dates are considered.

A day qualifies only if its timecard is trackable, not an off day and has no periods yet.
Every other day is reported with a skip reason. Each day runs refresh, token re-read, validate
and commit, retried with exponential backoff; days are one second apart.

In --dry-run mode the timesheet is read and the selection is printed, but nothing is written.
Authentication uses session cookies from auth state JSON (created by "goattend auth login").`,
	Example: `
  # Preview the current month
  goattend record --dry-run

  # Record the current month from the work profile
  goattend record

  # Record a custom range
  goattend record --from 2024-01-01 --to 2024-01-31

  # Record imported punches
  goattend record --imported
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		p, err := cfg.Profile()
		if err != nil {
			return err
		}

		store, err := openStore(recordDBPath, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		req := recorder.Request{Mode: recorder.ModeProfile, From: recordFrom, To: recordTo, DryRun: recordDryRun}
		if recordImported {
			loc, err := p.Location()
			if err != nil {
				return err
			}
			punches, err := store.ListPunches()
			if err != nil {
				return err
			}
			req.Mode = recorder.ModeImport
			req.Imported = importer.Aggregate(punches, loc)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		report, err := runRecording(ctx, cfg, p, recordStateFile, req, progressPrinter(out))
		if err != nil {
			return err
		}

		printSelection(out, report)
		runID, err := store.SaveRun(report.StoredRun())
		if err != nil {
			return err
		}
		if report.DryRun {
			fmt.Fprintf(out, "Dry run completed. Recordable: %d, Skipped: %d, Run: %s\n", len(report.Recordable), len(report.Skips), runID)
			return nil
		}

		printResult(out, report.Result)
		fmt.Fprintf(out, "Run: %s\n", runID)
		if report.Result.Failed > 0 {
			return fmt.Errorf("%d of %d days failed", report.Result.Failed, report.Result.Total)
		}
		return nil
	},
}

func progressPrinter(out io.Writer) recorder.ProgressFunc {
	return func(index, total int, date string, success bool) {
		status := "ok"
		if !success {
			status = "failed"
		}
		fmt.Fprintf(out, "[%d/%d] %s %s\n", index, total, date, status)
	}
}

func printSelection(out io.Writer, report *recorder.Report) {
	if report.DryRun {
		for _, day := range report.Recordable {
			fmt.Fprintf(out, "Recordable %s %s\n", day.Date, formatPeriods(day.Periods))
		}
	}
	for _, skip := range report.Skips {
		if skip.Detail != "" {
			fmt.Fprintf(out, "Skipped %s: %s (%s)\n", skip.Date, skip.Reason, skip.Detail)
			continue
		}
		fmt.Fprintf(out, "Skipped %s: %s\n", skip.Date, skip.Reason)
	}
}

func printResult(out io.Writer, result attendance.RecordingResult) {
	fmt.Fprintf(out, "Recording completed. Total: %d, Successful: %d, Failed: %d\n", result.Total, result.Successful, result.Failed)
	for _, outcome := range result.Details {
		if outcome.Success {
			continue
		}
		fmt.Fprintf(out, "Failed %s after %d attempt(s): %s\n", outcome.Date, outcome.Attempts, outcome.Error)
	}
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().BoolVar(&recordImported, "imported", false, "Record imported punches instead of the work profile")
	recordCmd.Flags().StringVar(&recordFrom, "from", "", "First date, format YYYY-MM-DD")
	recordCmd.Flags().StringVar(&recordTo, "to", "", "Last date, format YYYY-MM-DD")
	recordCmd.Flags().BoolVar(&recordDryRun, "dry-run", false, "Print recordable days and skip reasons without writing")
	recordCmd.Flags().StringVar(&recordDBPath, "db", "", "Path to local SQLite database (default: storage.db_path or $HOME/.goattend/goattend.db)")
	recordCmd.Flags().StringVar(&recordStateFile, "state-file", "", "Path to auth state JSON (default: $HOME/.goattend/personio-auth-state.json)")
}
