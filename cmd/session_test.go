package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"goattend/attendance"
	"goattend/config"
	"goattend/personio"
	"goattend/recorder"
)

func TestRunRecording_CommitsWithRotatedTokenAndSavesCookies(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		requests []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path+" token="+r.Header.Get("x-athena-xsrf-token"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/projects":
			http.SetCookie(w, &http.Cookie{Name: personio.CookieXSRFToken, Value: "rotated", Path: "/"})
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodGet && r.URL.Path == "/svc/attendance-bff/v1/timesheet/123456":
			_, _ = w.Write([]byte(`{"timecards":[
				{"date":"2026-03-02","state":"trackable","is_off_day":false,"periods":[],"day_id":"day-1"},
				{"date":"2026-03-03","state":"trackable","is_off_day":true,"periods":[],"day_id":"day-2"}
			]}`))
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/svc/attendance-api/validate-and-calculate-full-day"):
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodPut && r.URL.Path == "/svc/attendance-api/v1/days/day-1":
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	stateFile := filepath.Join(t.TempDir(), "state.json")
	state := personio.State{Cookies: []personio.StateCookie{
		{Name: personio.CookieXSRFToken, Value: "initial", Domain: "127.0.0.1", Path: "/", Expires: -1},
		{Name: personio.CookieAthenaSession, Value: "athena", Domain: "127.0.0.1", Path: "/", Expires: -1},
		{Name: personio.CookiePersonioSession, Value: "session", Domain: "127.0.0.1", Path: "/", Expires: -1},
	}}
	if err := personio.SaveState(stateFile, state); err != nil {
		t.Fatalf("save state: %v", err)
	}

	cfg := &config.Config{}
	cfg.Personio.Instance = server.URL
	cfg.Recording.MaxAttempts = 1
	cfg.Recording.DayDelay = time.Millisecond

	var progress []string
	report, err := runRecording(context.Background(), cfg, testProfile(), stateFile, recorder.Request{
		Mode: recorder.ModeProfile,
		From: "2026-03-02",
		To:   "2026-03-03",
	}, func(index, total int, date string, success bool) {
		progress = append(progress, date)
	})
	if err != nil {
		t.Fatalf("run recording: %v", err)
	}

	if report.Result.Total != 1 || report.Result.Successful != 1 {
		t.Fatalf("unexpected result: %+v", report.Result)
	}
	if len(progress) != 1 || progress[0] != "2026-03-02" {
		t.Fatalf("unexpected progress: %v", progress)
	}
	if len(report.Skips) != 1 || report.Skips[0].Reason != attendance.SkipOffDay {
		t.Fatalf("unexpected skips: %+v", report.Skips)
	}

	mu.Lock()
	defer mu.Unlock()
	var commits int
	for _, line := range requests {
		if strings.HasPrefix(line, http.MethodPut) {
			commits++
			if !strings.HasSuffix(line, "token=rotated") {
				t.Fatalf("expected commit with rotated token, got %q", line)
			}
		}
	}
	if commits != 1 {
		t.Fatalf("expected one commit, got %d: %v", commits, requests)
	}

	saved, err := personio.LoadState(stateFile)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	var token string
	for _, cookie := range saved.Cookies {
		if cookie.Name == personio.CookieXSRFToken {
			token = cookie.Value
		}
	}
	if token != "rotated" {
		t.Fatalf("expected rotated token in state file, got %q", token)
	}
}

func TestRunRecording_MissingStateFile(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Personio.Instance = "acme.app.personio.com"

	_, err := runRecording(context.Background(), cfg, testProfile(), filepath.Join(t.TempDir(), "missing.json"), recorder.Request{}, nil)
	if err == nil || !strings.Contains(err.Error(), "auth login") {
		t.Fatalf("expected login hint, got %v", err)
	}
}
