package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goattend/config"
	"goattend/importer"
	"goattend/storage"
)

var (
	importInputs   []string
	importFormat   string
	importDBPath   string
	importTimezone string
	importClearAll bool
	importClearYes bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import clock-in/clock-out punches into the local SQLite database",
	Long: `Read punch files, validate each entry, and persist the valid punches in SQLite.

Every entry needs a start and an end timestamp (keys start/begin/clockin/von and
end/stop/clockout/bis). Timestamps are RFC 3339 or compact YYYYMMDDTHHMMSSZ; values without a
zone are read in the profile timezone. Invalid entries are listed and skipped; a file without
a single valid entry is rejected. Identical punches are stored once.
When --format is omitted, format is inferred from each input file extension.`,
	Example: `
  # Import a JSON export
  goattend import -i ./punches.json

  # Import CSV and Excel files at once
  goattend import -i ./january.csv -i ./february.xlsx

  # Import into a custom database
  goattend import -i ./punches.json --db ./goattend.db

  # Remove all imported punches again
  goattend import clear
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigIfPresent()
		if err != nil {
			return err
		}
		loc, err := resolveImportLocation(importTimezone, cfg.Personio.Timezone)
		if err != nil {
			return err
		}

		result, err := importer.Run(importInputs, importFormat, loc)
		if err != nil {
			return err
		}
		for _, entryErr := range result.Errors {
			fmt.Printf("Skipped entry: %v\n", entryErr)
		}

		store, err := openStore(importDBPath, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		inserted, err := store.InsertPunches(result.Punches)
		if err != nil {
			return err
		}

		summary := result.Summarize(loc)
		fmt.Printf("Import completed. Files: %d, Entries: %d, Valid: %d, Invalid: %d, Persisted: %d\n",
			result.FilesProcessed,
			summary.TotalEntries,
			summary.Valid,
			summary.Invalid,
			inserted,
		)
		if summary.Days > 0 {
			fmt.Printf("Dates: %s to %s (%d days), worked %s\n",
				summary.FirstDate,
				summary.LastDate,
				summary.Days,
				formatDuration(summary.Worked),
			)
		}
		return nil
	},
}

var importClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all imported punches",
	Long: `Destructive cleanup of imported punches.

By default only the punches table is emptied; run history is kept.
With --all the complete SQLite database file is deleted.
Before deletion, an interactive security prompt requires typing exactly "Y" unless --yes is set.`,
	Example: `
  # Delete imported punches
  goattend import clear

  # Delete the complete database file
  goattend import clear --all --db ./goattend.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigIfPresent()
		if err != nil {
			return err
		}
		dbPath, err := resolveDBPath(importDBPath, cfg)
		if err != nil {
			return err
		}

		question := fmt.Sprintf("Delete all imported punches in %q?", dbPath)
		if importClearAll {
			question = fmt.Sprintf("Delete database file %q?", dbPath)
		}
		if !importClearYes {
			confirmed, err := confirmPrompt(promptInput, promptOutput, question)
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}

		if importClearAll {
			if err := removeDatabaseFile(dbPath); err != nil {
				return err
			}
			fmt.Printf("Deleted database file: %s\n", dbPath)
			return nil
		}

		store, err := storage.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := store.DeleteAllPunches()
		if err != nil {
			return err
		}
		fmt.Printf("Deleted punches: %d\n", deleted)
		return nil
	},
}

func resolveImportLocation(flagValue, configured string) (*time.Location, error) {
	name := strings.TrimSpace(flagValue)
	if name == "" {
		name = strings.TrimSpace(configured)
	}
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

func resolveDBPath(flagValue string, cfg *config.Config) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue), nil
	}
	return cfg.DBPath()
}

func openStore(flagValue string, cfg *config.Config) (*storage.SQLiteStore, error) {
	path, err := resolveDBPath(flagValue, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	return storage.OpenSQLite(path)
}

func formatDuration(value time.Duration) string {
	minutes := int(value.Round(time.Minute) / time.Minute)
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importClearCmd)

	importCmd.PersistentFlags().StringVar(&importDBPath, "db", "", "Path to local SQLite database (default: storage.db_path or $HOME/.goattend/goattend.db)")
	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file path (repeatable)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: json|csv|excel (optional, inferred from extension when omitted)")
	importCmd.Flags().StringVar(&importTimezone, "timezone", "", "Timezone for timestamps without offset (default: personio.timezone)")

	importClearCmd.Flags().BoolVar(&importClearAll, "all", false, "Delete the complete SQLite database file")
	importClearCmd.Flags().BoolVarP(&importClearYes, "yes", "y", false, "Delete without confirmation prompt")

	_ = importCmd.MarkFlagRequired("input")
}
