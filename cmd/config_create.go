package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the same example template used by "config edit".

The template contains a placeholder Personio instance and employee id and the default
weekly schedule (Monday to Thursday 08:00-17:00, Friday 08:00-13:00).
If a configuration file is already in use, no new file is written.`,
	Example: `
  # Create default config at $HOME/.goattend.yaml
  goattend config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("Config file already exists at: %s\n", configPath)
			return nil
		}

		fmt.Printf("New config file created at: %s\n", configPath)
		fmt.Println("Next steps:")
		fmt.Println("  1. set personio.instance and personio.employee_id (goattend config edit)")
		fmt.Println("  2. log in once: goattend auth login")
		fmt.Println("  3. preview the current month: goattend record --dry-run")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCreateCmd)
}
