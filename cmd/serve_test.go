package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestServeLandingPath_NoFlagUsesCurrentMonth(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.February, 14, 9, 30, 0, 0, time.UTC)
	got, err := serveLandingPath("", now)
	if err != nil {
		t.Fatalf("landing path: %v", err)
	}
	if got != "/api/days?from=2026-02-01&to=2026-02-28" {
		t.Fatalf("unexpected landing path: %q", got)
	}
}

func TestServeLandingPath_ExplicitMonth(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.February, 14, 9, 30, 0, 0, time.UTC)
	got, err := serveLandingPath("2024-02", now)
	if err != nil {
		t.Fatalf("landing path: %v", err)
	}
	if got != "/api/days?from=2024-02-01&to=2024-02-29" {
		t.Fatalf("unexpected landing path: %q", got)
	}
}

func TestServeLandingPath_RejectsInvalidMonth(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"2026-13", "03-2026", "2026/03"} {
		if _, err := serveLandingPath(value, time.Now()); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestWithLandingRedirect(t *testing.T) {
	t.Parallel()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusNoContent)
	})

	handler := withLandingRedirect(next, "/api/days?from=2026-03-01&to=2026-03-31")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusFound {
		t.Fatalf("expected redirect status, got %d", res.Code)
	}
	if got := res.Header().Get("Location"); got != "/api/days?from=2026-03-01&to=2026-03-31" {
		t.Fatalf("unexpected redirect target: %q", got)
	}
	if nextCalled {
		t.Fatalf("expected wrapper to intercept root redirect")
	}
}

func TestWithLandingRedirect_PassesOtherPaths(t *testing.T) {
	t.Parallel()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusNoContent)
	})

	handler := withLandingRedirect(next, "/api/days")

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/runs", nil),
		httptest.NewRequest(http.MethodPost, "/", nil),
	} {
		nextCalled = false
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusNoContent || !nextCalled {
			t.Fatalf("expected %s %s to reach next handler, got %d", req.Method, req.URL.Path, res.Code)
		}
	}
}
