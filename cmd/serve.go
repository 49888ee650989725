package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"goattend/config"
	"goattend/internal/timeutil"
	"goattend/recorder"
	"goattend/web"
)

var (
	serveAddr      string
	serveDBPath    string
	serveStateFile string
	serveMonth     string
	serveNoOpen    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start local web API with run history and live recording progress",
	Long: `Start a local HTTP server for the single configured user.

Endpoints:
- GET  /api/days, /api/runs, /api/runs/:id, /api/profile, /api/status
- POST /api/plan (dry run) and /api/record (starts a batch in the background)
- GET  /ws/progress (WebSocket stream of per-day progress)

Only one recording batch runs at a time.`,
	Example: `
  # Start local server on the configured address
  goattend serve

  # Start with explicit db/auth-state and custom address
  goattend serve --addr 127.0.0.1:9090 --db ./goattend.db --state-file ~/.goattend/personio-auth-state.json
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
		loc, err := p.Location()
		if err != nil {
			return err
		}
		landing, err := serveLandingPath(serveMonth, time.Now().In(loc))
		if err != nil {
			return err
		}

		store, err := openStore(serveDBPath, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		webServer := web.NewServer(web.Options{
			Store:   store,
			Punches: store,
			Profile: p,
			Log:     appLogger(),
			Run: func(ctx context.Context, req recorder.Request, progress recorder.ProgressFunc) (*recorder.Report, error) {
				return runRecording(ctx, cfg, p, serveStateFile, req, progress)
			},
		})

		addr := strings.TrimSpace(serveAddr)
		if addr == "" {
			addr = cfg.Server.Addr
		}
		server := &http.Server{
			Addr:              addr,
			Handler:           withLandingRedirect(webServer, landing),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		listenURL := "http://" + addr
		fmt.Printf("Listening on %s\n", listenURL)
		if !serveNoOpen {
			if openErr := openURLInBrowser(listenURL + landing); openErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to open browser: %v\n", openErr)
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			webServer.Shutdown()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			webServer.Shutdown()
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

// serveLandingPath is the day overview of month (YYYY-MM), or of the month of now.
func serveLandingPath(month string, now time.Time) (string, error) {
	start := now
	if raw := strings.TrimSpace(month); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, now.Location())
		if err != nil {
			return "", fmt.Errorf("invalid --month value %q (expected YYYY-MM)", raw)
		}
		start = parsed
	}
	first, last := timeutil.MonthRange(start)

	query := url.Values{}
	query.Set("from", timeutil.FormatDate(first))
	query.Set("to", timeutil.FormatDate(last))
	return "/api/days?" + query.Encode(), nil
}

func withLandingRedirect(next http.Handler, landing string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/" && landing != "" {
			http.Redirect(w, r, landing, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func openURLInBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	return cmd.Start()
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to local SQLite database (default: storage.db_path or $HOME/.goattend/goattend.db)")
	serveCmd.Flags().StringVar(&serveStateFile, "state-file", "", "Path to auth state JSON (default: $HOME/.goattend/personio-auth-state.json)")
	serveCmd.Flags().StringVar(&serveMonth, "month", "", "Month of the landing page, format YYYY-MM (default: current month)")
	serveCmd.Flags().BoolVar(&serveNoOpen, "no-open", false, "Do not open browser automatically")
}
