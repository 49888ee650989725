package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"

	"goattend/personio"
)

var (
	authLoginInstance     string
	authLoginStateFile    string
	authLoginProfileDir   string
	authLoginSkipVerify   bool
	authLoginBrowserBin   string
	authLoginTimeout      time.Duration
	authLoginDebugCookies bool
)

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start interactive browser login and save authenticated state.",
	Long: `Open a visible browser for the Personio login and save auth state as JSON.

The command waits until the XSRF token cookie and both session cookies are present.
By default, it also verifies the session with a session refresh call.`,
	Example: `
  # Open browser, log in manually, save auth state, verify API access
  goattend auth login

  # Log in to a different tenant than the configured one
  goattend auth login --instance other-company.app.personio.com
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigIfPresent()
		if err != nil {
			return err
		}
		stateFile, err := resolveAuthStatePath(authLoginStateFile, cfg.Auth.StateFile)
		if err != nil {
			return err
		}
		target, err := resolveInstanceURL(authLoginInstance, cfg.Personio.Instance)
		if err != nil {
			return err
		}

		profileDir, isTempProfile, err := resolveProfileDir(authLoginProfileDir)
		if err != nil {
			return err
		}
		if isTempProfile {
			defer os.RemoveAll(profileDir)
		}
		if err := os.MkdirAll(profileDir, 0o700); err != nil {
			return fmt.Errorf("create profile directory %q: %w", profileDir, err)
		}

		allocOptions := []chromedp.ExecAllocatorOption{
			chromedp.Flag("headless", false),
			chromedp.UserDataDir(profileDir),
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("new-window", true),
			chromedp.Flag("restore-last-session", false),
			chromedp.NoDefaultBrowserCheck,
			chromedp.NoFirstRun,
		}
		if strings.TrimSpace(authLoginBrowserBin) != "" {
			allocOptions = append(allocOptions, chromedp.ExecPath(strings.TrimSpace(authLoginBrowserBin)))
		}

		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOptions...)
		defer allocCancel()

		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		loginURL := target.String() + "/"
		if err := chromedp.Run(ctx,
			network.Enable(),
			chromedp.Navigate(loginURL),
		); err != nil {
			return fmt.Errorf("open browser and navigate failed: %w", err)
		}

		fmt.Println("Complete the Personio login in the opened browser.")
		fmt.Printf("Waiting for Personio session cookies (timeout: %s)...\n", authLoginTimeout)
		waitCtx, waitCancel := context.WithTimeout(ctx, authLoginTimeout)
		defer waitCancel()
		host, err := waitForSessionCookies(waitCtx, loginURL, target.Hostname(), authLoginDebugCookies)
		if err != nil {
			return err
		}
		if host != target.Hostname() {
			target = &url.URL{Scheme: target.Scheme, Host: host}
		}

		allCookies, err := getBrowserCookies(ctx)
		if err != nil {
			return fmt.Errorf("read browser cookies failed: %w", err)
		}

		state := personio.State{
			Cookies: filterCookiesForHost(allCookies, host),
			Origins: []any{},
		}
		if err := personio.SaveState(stateFile, state); err != nil {
			return err
		}

		if authLoginSkipVerify {
			fmt.Printf("Auth state saved: %s\n", stateFile)
			fmt.Println("Session cookies are present and ready for REST calls.")
			return nil
		}

		if err := verifySession(state, target, stateFile, cfg.Recording.Timeout); err != nil {
			return fmt.Errorf("auth verification failed (session refresh): %w", err)
		}

		fmt.Printf("Auth state saved: %s\n", stateFile)
		fmt.Println("Auth verification successful.")
		return nil
	},
}

// verifySession refreshes the session once and stores any rotated cookies.
func verifySession(state personio.State, target *url.URL, stateFile string, timeout time.Duration) error {
	jar, err := personio.NewJar(state, target)
	if err != nil {
		return err
	}
	client, err := personio.NewClient(personio.ClientConfig{
		BaseURL:   target.String(),
		UserAgent: userAgent,
		Jar:       jar,
		Timeout:   timeout,
	})
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(context.Background(), timeout)
	defer cancel()

	token, err := personio.NewJarSession(jar, target).CurrentToken(ctx)
	if err != nil {
		return err
	}
	if err := client.RefreshSession(ctx, token); err != nil {
		return err
	}
	return personio.SaveState(stateFile, personio.MergeJar(state, jar, target))
}

func waitForSessionCookies(ctx context.Context, loginURL, preferredHost string, debug bool) (string, error) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastURL := loginURL

	for {
		var currentURL string
		if err := chromedp.Run(ctx, chromedp.Location(&currentURL)); err == nil && strings.TrimSpace(currentURL) != "" {
			lastURL = currentURL
		}

		cookies, err := getBrowserCookies(ctx)
		if debug {
			if err != nil {
				fmt.Printf("[auth-debug] url=%s cookie-read-error=%v\n", lastURL, err)
			} else {
				fmt.Printf("[auth-debug] url=%s %s\n", lastURL, summarizeCookieInventory(cookies))
			}
		}
		if err == nil && hasRequiredSessionCookies(cookies, preferredHost) {
			return preferredHost, nil
		}
		if err == nil {
			if detected := findSessionCookieHost(cookies); detected != "" {
				return detected, nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf(
					"timed out waiting for Personio session cookies; finish login in browser and retry (or increase --timeout). last URL: %s",
					lastURL,
				)
			}
			return "", fmt.Errorf("waiting for Personio login interrupted: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// hasRequiredSessionCookies reports whether host holds the XSRF token and
// every session cookie. An empty host accepts cookies of any domain.
func hasRequiredSessionCookies(cookies []*network.Cookie, host string) bool {
	required := append([]string{personio.CookieXSRFToken}, personio.RequiredSessionCookies...)
	present := make(map[string]bool, len(required))
	filterByHost := strings.TrimSpace(host) != ""
	for _, cookie := range cookies {
		if cookie == nil || strings.TrimSpace(cookie.Value) == "" {
			continue
		}
		if filterByHost && !personio.CookieDomainMatches(cookie.Domain, host) {
			continue
		}
		present[cookie.Name] = true
	}
	for _, name := range required {
		if !present[name] {
			return false
		}
	}
	return true
}

// findSessionCookieHost returns the first host, in sorted order, that has
// the complete cookie set.
func findSessionCookieHost(cookies []*network.Cookie) string {
	hosts := make(map[string]struct{})
	for _, cookie := range cookies {
		if cookie == nil || cookie.Name != personio.CookieXSRFToken {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cookie.Domain)), ".")
		if host != "" {
			hosts[host] = struct{}{}
		}
	}

	candidates := make([]string, 0, len(hosts))
	for host := range hosts {
		candidates = append(candidates, host)
	}
	sort.Strings(candidates)
	for _, host := range candidates {
		if hasRequiredSessionCookies(cookies, host) {
			return host
		}
	}
	return ""
}

func getBrowserCookies(ctx context.Context) ([]*network.Cookie, error) {
	chromeCtx := chromedp.FromContext(ctx)
	if chromeCtx == nil || chromeCtx.Browser == nil {
		return nil, errors.New("browser context not available for cookie read")
	}
	browserExecutorCtx := cdp.WithExecutor(ctx, chromeCtx.Browser)
	return storage.GetCookies().Do(browserExecutorCtx)
}

func summarizeCookieInventory(cookies []*network.Cookie) string {
	if len(cookies) == 0 {
		return "cookies=0"
	}

	byDomain := make(map[string][]string)
	for _, cookie := range cookies {
		if cookie == nil {
			continue
		}
		domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cookie.Domain)), ".")
		if domain == "" {
			domain = "<empty-domain>"
		}
		name := strings.TrimSpace(cookie.Name)
		if name == "" {
			continue
		}
		byDomain[domain] = append(byDomain[domain], name)
	}

	domains := make([]string, 0, len(byDomain))
	for domain := range byDomain {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	parts := make([]string, 0, len(domains))
	for _, domain := range domains {
		names := byDomain[domain]
		sort.Strings(names)
		names = uniqueStrings(names)
		parts = append(parts, fmt.Sprintf("%s=[%s]", domain, strings.Join(names, ",")))
	}

	return fmt.Sprintf("cookies=%d domains{%s}", len(cookies), strings.Join(parts, "; "))
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	last := ""
	for i, value := range values {
		if i == 0 || value != last {
			out = append(out, value)
		}
		last = value
	}
	return out
}

func filterCookiesForHost(cookies []*network.Cookie, host string) []personio.StateCookie {
	out := make([]personio.StateCookie, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie == nil {
			continue
		}
		if !personio.CookieDomainMatches(cookie.Domain, host) {
			continue
		}
		out = append(out, personio.StateCookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			Expires:  float64(cookie.Expires),
			HTTPOnly: cookie.HTTPOnly,
			Secure:   cookie.Secure,
			SameSite: cookie.SameSite.String(),
		})
	}
	return out
}

func init() {
	authCmd.AddCommand(authLoginCmd)

	authLoginCmd.Flags().StringVar(&authLoginInstance, "instance", "", "Override personio.instance from config (tenant host)")
	authLoginCmd.Flags().StringVar(&authLoginStateFile, "state-file", "", "Path to save auth state JSON (default: $HOME/.goattend/personio-auth-state.json)")
	authLoginCmd.Flags().StringVar(&authLoginProfileDir, "profile-dir", "", "Browser profile directory (optional; default is a fresh temporary profile per run)")
	authLoginCmd.Flags().StringVar(&authLoginBrowserBin, "browser-bin", "", "Optional browser binary path (Chrome/Chromium)")
	authLoginCmd.Flags().DurationVar(&authLoginTimeout, "timeout", 10*time.Minute, "Maximum wait time for successful browser login")
	authLoginCmd.Flags().BoolVar(&authLoginDebugCookies, "debug-cookies", false, "Print cookie names/domains while waiting for login detection")
	authLoginCmd.Flags().BoolVar(&authLoginSkipVerify, "skip-verify", false, "Skip the session refresh verification after saving auth state")
}
