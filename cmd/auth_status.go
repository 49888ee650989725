package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goattend/personio"
)

var (
	authStatusStateFile string
	authStatusInstance  string
	authStatusVerify    bool
)

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the saved session is usable.",
	Long: `Read the auth state JSON and run the same token pre-flight check as "record".

With --verify the session is also refreshed against Personio and rotated cookies are saved.`,
	Example: `
  # Check saved cookies
  goattend auth status

  # Check and refresh the session remotely
  goattend auth status --verify
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigIfPresent()
		if err != nil {
			return err
		}
		session, err := openRecordingSession(cfg, authStatusStateFile, authStatusInstance)
		if err != nil {
			return err
		}

		token, err := session.tokens.CurrentToken(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Auth state file: %s\n", session.stateFile)
		fmt.Printf("Instance: %s\n", session.target.Host)
		fmt.Printf("XSRF token: %s\n", maskToken(token))
		for _, line := range describeCookieExpiry(session.state.ForHost(session.target.Hostname()), time.Now()) {
			fmt.Println(line)
		}

		if !authStatusVerify {
			return nil
		}
		ctx, cancel := withTimeout(context.Background(), cfg.Recording.Timeout)
		defer cancel()
		if err := session.client.RefreshSession(ctx, token); err != nil {
			return fmt.Errorf("session refresh failed: %w", err)
		}
		if err := session.saveCookies(); err != nil {
			return err
		}
		fmt.Println("Session refresh successful.")
		return nil
	},
}

var (
	authShowTokenStateFile string
	authShowTokenInstance  string
)

var authShowTokenCmd = &cobra.Command{
	Use:   "show-token",
	Short: "Print the current XSRF token.",
	Long: `Read auth state JSON and print the value expected in the x-athena-xsrf-token header.

The session cookies must be present as well; otherwise the command fails like "record" would.`,
	Example: `
  # Print token from default auth state file
  goattend auth show-token
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigIfPresent()
		if err != nil {
			return err
		}
		session, err := openRecordingSession(cfg, authShowTokenStateFile, authShowTokenInstance)
		if err != nil {
			return err
		}
		token, err := session.tokens.CurrentToken(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// describeCookieExpiry lists the session relevant cookies with their expiry.
func describeCookieExpiry(state personio.State, now time.Time) []string {
	relevant := map[string]bool{personio.CookieXSRFToken: true}
	for _, name := range personio.RequiredSessionCookies {
		relevant[name] = true
	}

	lines := make([]string, 0, len(relevant))
	for _, cookie := range state.Cookies {
		if !relevant[cookie.Name] {
			continue
		}
		switch {
		case cookie.Expires <= 0:
			lines = append(lines, fmt.Sprintf("%s: session cookie", cookie.Name))
		default:
			expires := time.Unix(int64(cookie.Expires), 0)
			if expires.Before(now) {
				lines = append(lines, fmt.Sprintf("%s: expired at %s", cookie.Name, expires.Format(time.RFC3339)))
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: expires %s", cookie.Name, expires.Format(time.RFC3339)))
		}
	}
	sort.Strings(lines)
	return lines
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authShowTokenCmd)

	authStatusCmd.Flags().StringVar(&authStatusStateFile, "state-file", "", "Path to auth state JSON (default: $HOME/.goattend/personio-auth-state.json)")
	authStatusCmd.Flags().StringVar(&authStatusInstance, "instance", "", "Override personio.instance from config (tenant host)")
	authStatusCmd.Flags().BoolVar(&authStatusVerify, "verify", false, "Refresh the session against Personio")

	authShowTokenCmd.Flags().StringVar(&authShowTokenStateFile, "state-file", "", "Path to auth state JSON (default: $HOME/.goattend/personio-auth-state.json)")
	authShowTokenCmd.Flags().StringVar(&authShowTokenInstance, "instance", "", "Override personio.instance from config (tenant host)")
}
