package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goattend/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration, including the work profile, before printing values.`,
	Example: `
  # Show active configuration
  goattend config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
			fmt.Println("Configuration:")
			fmt.Printf("personio.instance: %s\n", cfg.Personio.Instance)
			fmt.Printf("personio.employee_id: %d\n", cfg.Personio.EmployeeID)
			fmt.Printf("personio.timezone: %s\n", cfg.Personio.Timezone)
			fmt.Printf("schedule entries: %d\n", len(cfg.Schedule))
			if cfg.Legacy != nil {
				fmt.Printf("legacy.working_days: %v\n", cfg.Legacy.WorkingDays)
			}
			fmt.Printf("recording.max_attempts: %d\n", cfg.Recording.MaxAttempts)
			fmt.Printf("recording.backoff_base: %s\n", cfg.Recording.BackoffBase)
			fmt.Printf("recording.day_delay: %s\n", cfg.Recording.DayDelay)
			fmt.Printf("recording.session_settle: %s\n", cfg.Recording.SessionSettle)
			fmt.Printf("recording.timeout: %s\n", cfg.Recording.Timeout)
			dbPath, dbErr := cfg.DBPath()
			if dbErr != nil {
				dbPath = dbErr.Error()
			}
			fmt.Printf("storage.db_path: %s\n", dbPath)
			fmt.Printf("auth.state_file: %s\n", displayOrDefault(cfg.Auth.StateFile))
			fmt.Printf("log.level: %s\n", cfg.Log.Level)
			fmt.Printf("server.addr: %s\n", cfg.Server.Addr)
		}
	},
}

func displayOrDefault(value string) string {
	if value == "" {
		return "(default)"
	}
	return value
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
