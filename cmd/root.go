/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goattend/config"
	"goattend/internal/logger"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "goattend",
	Short: "Record daily attendance in Personio from a work profile or imported punches.",
	Long: `
**********************************************
*              GO ATTEND GO                  *
**********************************************

This CLI records attendance days in Personio. Days are either generated from the weekly
work profile in the configuration file or aggregated from imported clock-in/clock-out punches
kept in a local SQLite database.

Every day is committed through the validate-then-commit protocol with session refresh,
retries and a pause between days.

Supported punch formats:
- JSON: .json (array of objects with start/end)
- CSV: .csv (comma or semicolon separated)
- Excel: .xlsx, .xlsm, .xls
`,
	Example: `
  # Create configuration file
  goattend config create

  # Log in through the browser and save the session cookies
  goattend auth login

  # Preview the current month without writing
  goattend record --dry-run

  # Record the current month from the work profile
  goattend record

  # Import punches and record the imported days
  goattend import -i ./punches.json
  goattend record --imported

  # Show past runs
  goattend history
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.goattend.yaml, then ./.goattend.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides log.level)")
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".goattend")
	}

	// GOATTEND_PERSONIO_EMPLOYEE_ID overrides personio.employee_id
	viper.SetEnvPrefix("GOATTEND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: goattend config create")
	}
}

func appLogger() *logger.Logger {
	return logger.Get(viper.GetString(config.KeyLogLevel))
}
