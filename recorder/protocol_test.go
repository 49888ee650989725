package recorder

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"goattend/attendance"
)

func TestProtocol_ReadsTokenAfterRefresh(t *testing.T) {
	t.Parallel()

	client, session, events := newFakes()
	sleeper := &sleepRecorder{}
	protocol := newProtocol(client, session, sleeper)

	result := protocol.RecordDay(context.Background(), day("2024-03-04", workPeriod("2024-03-04")))
	if result.Err != nil {
		t.Fatalf("record day: %v", result.Err)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", result.Attempts)
	}

	want := []string{"token:tok-0", "refresh:tok-0", "token:tok-1", "validate:tok-1", "commit:tok-1"}
	if !reflect.DeepEqual(*events, want) {
		t.Fatalf("unexpected sequence:\nwant %v\ngot  %v", want, *events)
	}
	if string(result.Response) != `{"id":"day-2024-03-04"}` {
		t.Fatalf("unexpected response %s", result.Response)
	}
}

func TestProtocol_ValidationFailureNeverCommits(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	client.validateErr = func(string, int) error { return rejection(422, "break outside work time") }
	sleeper := &sleepRecorder{}
	protocol := newProtocol(client, session, sleeper)

	result := protocol.RecordDay(context.Background(), day("2024-03-04", workPeriod("2024-03-04")))
	if result.Err == nil || result.Err.Error() != "HTTP 422: break outside work time" {
		t.Fatalf("unexpected error %v", result.Err)
	}
	if result.Attempts != DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxAttempts, result.Attempts)
	}
	if client.commits["day-2024-03-04"] != 0 {
		t.Fatal("commit must not follow a failed validation")
	}
	if client.refreshes != DefaultMaxAttempts {
		t.Fatalf("every attempt must refresh, got %d refreshes", client.refreshes)
	}
	if !reflect.DeepEqual(sleeper.waits, []time.Duration{time.Second, 2 * time.Second}) {
		t.Fatalf("unexpected backoff waits %v", sleeper.waits)
	}
}

func TestProtocol_RetriesAfterCommitFailure(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	client.commitErr = func(_ string, call int) error {
		if call == 1 {
			return &attendance.TransportError{Method: "PUT", Path: "/days", Err: errors.New("reset")}
		}
		return nil
	}
	protocol := newProtocol(client, session, &sleepRecorder{})

	result := protocol.RecordDay(context.Background(), day("2024-03-04", workPeriod("2024-03-04")))
	if result.Err != nil {
		t.Fatalf("expected success on retry: %v", result.Err)
	}
	if result.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", result.Attempts)
	}
}

func TestProtocol_RefreshFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	client, session, events := newFakes()
	client.refreshErr = rejection(500, "")
	protocol := newProtocol(client, session, &sleepRecorder{})

	result := protocol.RecordDay(context.Background(), day("2024-03-04", workPeriod("2024-03-04")))
	if result.Err != nil {
		t.Fatalf("refresh failure must not abort: %v", result.Err)
	}
	if (*events)[len(*events)-1] != "commit:tok-1" {
		t.Fatalf("expected commit with re-read token, got %v", *events)
	}
}

func TestProtocol_SettlesAfterRefresh(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	sleeper := &sleepRecorder{}
	protocol := newProtocol(client, session, sleeper)
	protocol.SessionSettle = DefaultSessionSettle

	if result := protocol.RecordDay(context.Background(), day("2024-03-04", workPeriod("2024-03-04"))); result.Err != nil {
		t.Fatalf("record day: %v", result.Err)
	}
	if !reflect.DeepEqual(sleeper.waits, []time.Duration{DefaultSessionSettle}) {
		t.Fatalf("unexpected waits %v", sleeper.waits)
	}
}

func TestProtocol_AuthErrorFailsAttempt(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	session.err = &attendance.AuthError{Reason: "no cookie"}
	protocol := newProtocol(client, session, &sleepRecorder{})
	protocol.MaxAttempts = 2

	result := protocol.RecordDay(context.Background(), day("2024-03-04", workPeriod("2024-03-04")))
	var authErr *attendance.AuthError
	if !errors.As(result.Err, &authErr) {
		t.Fatalf("expected AuthError, got %v", result.Err)
	}
	if result.Attempts != 2 || client.refreshes != 0 {
		t.Fatalf("unexpected attempts=%d refreshes=%d", result.Attempts, client.refreshes)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 0, want: time.Second},
	}
	for _, tc := range tests {
		if got := Backoff(time.Second, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: want %s, got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestSleepContextHonorsCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
