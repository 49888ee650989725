package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"goattend/importer"
	"goattend/output"
)

var (
	exportFormat   string
	exportMode     string
	exportOutput   string
	exportDBPath   string
	exportLimit    int
	exportTimezone string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recording outcomes or imported periods to CSV/Excel",
	Long: `Export data from SQLite.

Modes:
- outcomes: one row per recorded day of the most recent runs
- periods: the work and break periods aggregated from imported punches
- daily: per-day totals of the imported periods (start/end, worked, break)

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export outcomes of the last 20 runs to CSV
  goattend export --mode outcomes --output ./outcomes.csv

  # Export imported periods to Excel
  goattend export --mode periods --output ./periods.xlsx

  # Export daily totals
  goattend export --mode daily --output ./daily-summary.csv

  # Force Excel format independent of extension
  goattend export --mode daily --format excel --output ./daily-summary.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}
		writer, err := output.WriterForFormat(format)
		if err != nil {
			return err
		}

		cfg, err := loadConfigIfPresent()
		if err != nil {
			return err
		}
		store, err := openStore(exportDBPath, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		var table output.Table
		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "outcomes":
			mode = "outcomes"
			runs, err := store.ListRunDetails(exportLimit)
			if err != nil {
				return err
			}
			table = output.OutcomeTable(runs)
		case "periods", "daily":
			loc, err := resolveImportLocation(exportTimezone, cfg.Personio.Timezone)
			if err != nil {
				return err
			}
			punches, err := store.ListPunches()
			if err != nil {
				return err
			}
			byDate := importer.Aggregate(punches, loc)
			if mode == "periods" {
				table = output.PeriodTable(byDate)
			} else {
				table = output.DailySummaryTable(output.BuildDailySummaries(byDate))
			}
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: outcomes, periods, daily)", exportMode)
		}

		if err := writer.Write(exportOutput, table); err != nil {
			return err
		}
		fmt.Printf("Export completed. Rows: %d, Mode: %s, Format: %s, File: %s\n", len(table.Rows), mode, format, exportOutput)
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "outcomes", "Export mode: outcomes|periods|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Path to local SQLite database (default: storage.db_path or $HOME/.goattend/goattend.db)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 20, "Number of most recent runs for --mode outcomes")
	exportCmd.Flags().StringVar(&exportTimezone, "timezone", "", "Timezone for grouping punches by date (default: personio.timezone)")

	_ = exportCmd.MarkFlagRequired("output")
}
