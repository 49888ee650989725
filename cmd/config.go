package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage goattend configuration file values.",
	Long: `Create, edit, display, and delete the goattend configuration file.

The configuration stores the Personio account, the weekly work profile and recording settings:
- personio.instance / personio.employee_id / personio.timezone
- schedule.<weekday>.enabled / work_start / work_end / break_start / break_end
- legacy.working_days and flat times (older single-schedule layout)
- recording.max_attempts / backoff_base / day_delay / session_settle / timeout
- storage.db_path, auth.state_file, log.level, server.addr`,
	Example: `
  # Create default config in $HOME/.goattend.yaml
  goattend config create

  # Show active config and source file
  goattend config show

  # Open active config in editor (creates example if missing)
  goattend config edit

  # Delete active config file
  goattend config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
