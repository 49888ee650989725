package cmd

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"goattend/config"
	"goattend/internal/logger"
	"goattend/personio"
	"goattend/profile"
	"goattend/recorder"
)

const userAgent = "goattend/1.0"

// recordingSession bundles the saved auth state with the live cookie jar
// that the HTTP client and the token source share.
type recordingSession struct {
	stateFile string
	state     personio.State
	target    *url.URL
	jar       *cookiejar.Jar
	client    *personio.HTTPClient
	tokens    *personio.JarSession
}

func openRecordingSession(cfg *config.Config, stateFileFlag, instanceFlag string) (*recordingSession, error) {
	target, err := resolveInstanceURL(instanceFlag, cfg.Personio.Instance)
	if err != nil {
		return nil, err
	}
	stateFile, err := resolveAuthStatePath(stateFileFlag, cfg.Auth.StateFile)
	if err != nil {
		return nil, err
	}
	state, err := personio.LoadState(stateFile)
	if err != nil {
		return nil, fmt.Errorf("%w; run \"goattend auth login\" first", err)
	}

	jar, err := personio.NewJar(state, target)
	if err != nil {
		return nil, err
	}
	client, err := personio.NewClient(personio.ClientConfig{
		BaseURL:   target.String(),
		UserAgent: userAgent,
		Jar:       jar,
		Timeout:   cfg.Recording.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &recordingSession{
		stateFile: stateFile,
		state:     state,
		target:    target,
		jar:       jar,
		client:    client,
		tokens:    personio.NewJarSession(jar, target),
	}, nil
}

func (s *recordingSession) protocol(cfg *config.Config, p profile.WorkProfile, log *logger.Logger) *recorder.Protocol {
	return &recorder.Protocol{
		Client:        s.client,
		Session:       s.tokens,
		EmployeeID:    p.EmployeeID,
		MaxAttempts:   cfg.Recording.MaxAttempts,
		BackoffBase:   cfg.Recording.BackoffBase,
		SessionSettle: cfg.Recording.SessionSettle,
		Logger:        log,
	}
}

func (s *recordingSession) workflow(cfg *config.Config, p profile.WorkProfile, log *logger.Logger, progress recorder.ProgressFunc) *recorder.Workflow {
	return &recorder.Workflow{
		Protocol: s.protocol(cfg, p, log),
		Profile:  p,
		DayDelay: cfg.Recording.DayDelay,
		Progress: progress,
	}
}

// saveCookies writes rotated session cookies back to the auth state file.
func (s *recordingSession) saveCookies() error {
	return personio.SaveState(s.stateFile, personio.MergeJar(s.state, s.jar, s.target))
}

// runRecording executes one workflow and always tries to persist the
// session cookies, even when the run failed.
func runRecording(ctx context.Context, cfg *config.Config, p profile.WorkProfile, stateFileFlag string, req recorder.Request, progress recorder.ProgressFunc) (*recorder.Report, error) {
	log := appLogger()
	session, err := openRecordingSession(cfg, stateFileFlag, "")
	if err != nil {
		return nil, err
	}

	report, runErr := session.workflow(cfg, p, log, progress).Run(ctx, req)
	if err := session.saveCookies(); err != nil {
		log.Warnw("could not update auth state file", "path", session.stateFile, "err", err)
	}
	return report, runErr
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
