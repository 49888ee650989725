package cmd

import "github.com/spf13/cobra"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate against Personio via interactive browser login.",
	Long: `Authentication helpers for Personio session cookies.

Use "auth login" to perform an interactive browser login and save auth state.
Use "auth status" to check that the saved session carries a usable XSRF token.
Use "auth show-token" to print the current XSRF token for direct REST calls.`,
}

func init() {
	rootCmd.AddCommand(authCmd)
}
