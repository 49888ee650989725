package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goattend/attendance"
	"goattend/internal/logger"
	"goattend/personio"
)

const (
	DefaultMaxAttempts   = 3
	DefaultBackoffBase   = time.Second
	DefaultSessionSettle = 500 * time.Millisecond
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Protocol commits one day through refresh, token re-read, validate and
// commit. The steps run in exactly this order on every attempt.
type Protocol struct {
	Client     personio.Client
	Session    personio.TokenSource
	EmployeeID int64

	MaxAttempts   int
	BackoffBase   time.Duration
	SessionSettle time.Duration

	Sleep  SleepFunc
	Logger *logger.Logger
}

// DayResult is the outcome of all attempts for one day.
type DayResult struct {
	Response json.RawMessage
	Attempts int
	Err      error
}

// RecordDay runs the protocol with retries. Errors end up in DayResult.Err.
func (p *Protocol) RecordDay(ctx context.Context, day attendance.RecordableDay) DayResult {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var result DayResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt
		response, err := p.attempt(ctx, day)
		if err == nil {
			result.Response = response
			result.Err = nil
			return result
		}
		result.Err = err
		p.log().Warnw("attempt failed", "date", day.Date, "attempt", attempt, "max_attempts", maxAttempts, "error", err)

		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		if err := p.sleep(ctx, Backoff(p.backoffBase(), attempt)); err != nil {
			break
		}
	}
	return result
}

func (p *Protocol) attempt(ctx context.Context, day attendance.RecordableDay) (json.RawMessage, error) {
	// 1. refresh with whatever token is current before the call
	entryToken, err := p.Session.CurrentToken(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Client.RefreshSession(ctx, entryToken); err != nil {
		p.log().Warnw("session refresh failed, continuing", "date", day.Date, "error", err)
	}
	if err := p.sleep(ctx, p.SessionSettle); err != nil {
		return nil, err
	}

	// 2. the refresh may have rotated the token
	token, err := p.Session.CurrentToken(ctx)
	if err != nil {
		return nil, err
	}

	// 3. validate
	request := personio.DayRequest{
		AttendanceDayID: day.DayID,
		EmployeeID:      p.EmployeeID,
		Periods:         day.Periods,
	}
	if _, err := p.Client.ValidateDay(ctx, token, request); err != nil {
		return nil, err
	}

	// 4. commit with the same token
	response, err := p.Client.CommitDay(ctx, token, day.DayID, personio.NewCommitRequest(request))
	if err != nil {
		return nil, err
	}
	return response, nil
}

// ReadTimesheet fetches a timesheet with the same refresh then re-read
// ordering as a day commit.
func (p *Protocol) ReadTimesheet(ctx context.Context, query personio.TimesheetQuery) (attendance.Timesheet, error) {
	entryToken, err := p.Session.CurrentToken(ctx)
	if err != nil {
		return attendance.Timesheet{}, err
	}
	if err := p.Client.RefreshSession(ctx, entryToken); err != nil {
		p.log().Warnw("session refresh failed, continuing", "error", err)
	}
	if err := p.sleep(ctx, p.SessionSettle); err != nil {
		return attendance.Timesheet{}, err
	}
	token, err := p.Session.CurrentToken(ctx)
	if err != nil {
		return attendance.Timesheet{}, err
	}
	sheet, err := p.Client.FetchTimesheet(ctx, token, query)
	if err != nil {
		return attendance.Timesheet{}, fmt.Errorf("fetch timesheet %s..%s: %w", query.StartDate, query.EndDate, err)
	}
	return sheet, nil
}

// Backoff returns the wait after the given failed attempt: base, 2*base, 4*base ...
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

// SleepContext is the default SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Protocol) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (p *Protocol) backoffBase() time.Duration {
	if p.BackoffBase <= 0 {
		return DefaultBackoffBase
	}
	return p.BackoffBase
}

func (p *Protocol) log() *logger.Logger {
	if p.Logger == nil {
		return logger.Nop()
	}
	return p.Logger
}
