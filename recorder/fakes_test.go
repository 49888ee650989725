package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goattend/attendance"
	"goattend/personio"
	"goattend/profile"
)

type fakeSession struct {
	events *[]string
	token  string
	err    error
}

func (s *fakeSession) CurrentToken(ctx context.Context) (string, error) {
	*s.events = append(*s.events, "token:"+s.token)
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

// fakeClient rotates the session token on every refresh.
type fakeClient struct {
	events     *[]string
	session    *fakeSession
	refreshes  int
	refreshErr error
	// validateErr and commitErr decide the answer per call by date.
	validateErr func(dayID string, call int) error
	commitErr   func(dayID string, call int) error
	validates   map[string]int
	commits     map[string]int
	timesheets  map[string]attendance.Timesheet
	queries     []personio.TimesheetQuery
}

func newFakes() (*fakeClient, *fakeSession, *[]string) {
	events := &[]string{}
	session := &fakeSession{events: events, token: "tok-0"}
	client := &fakeClient{
		events:     events,
		session:    session,
		validates:  map[string]int{},
		commits:    map[string]int{},
		timesheets: map[string]attendance.Timesheet{},
	}
	return client, session, events
}

func (c *fakeClient) RefreshSession(ctx context.Context, token string) error {
	*c.events = append(*c.events, "refresh:"+token)
	c.refreshes++
	c.session.token = fmt.Sprintf("tok-%d", c.refreshes)
	return c.refreshErr
}

func (c *fakeClient) FetchTimesheet(ctx context.Context, token string, query personio.TimesheetQuery) (attendance.Timesheet, error) {
	*c.events = append(*c.events, "timesheet:"+token)
	c.queries = append(c.queries, query)
	return c.timesheets[query.StartDate], nil
}

func (c *fakeClient) ValidateDay(ctx context.Context, token string, request personio.DayRequest) (json.RawMessage, error) {
	*c.events = append(*c.events, "validate:"+token)
	c.validates[request.AttendanceDayID]++
	if c.validateErr != nil {
		if err := c.validateErr(request.AttendanceDayID, c.validates[request.AttendanceDayID]); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(`{"valid":true}`), nil
}

func (c *fakeClient) CommitDay(ctx context.Context, token string, dayID string, request personio.CommitRequest) (json.RawMessage, error) {
	*c.events = append(*c.events, "commit:"+token)
	c.commits[dayID]++
	if c.commitErr != nil {
		if err := c.commitErr(dayID, c.commits[dayID]); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(`{"id":"` + dayID + `"}`), nil
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func (s *sleepRecorder) count(d time.Duration) int {
	n := 0
	for _, wait := range s.waits {
		if wait == d {
			n++
		}
	}
	return n
}

func newProtocol(client *fakeClient, session *fakeSession, sleeper *sleepRecorder) *Protocol {
	return &Protocol{
		Client:     client,
		Session:    session,
		EmployeeID: 42,
		Sleep:      sleeper.Sleep,
	}
}

func testProfile() profile.WorkProfile {
	return profile.WorkProfile{
		Instance:   "acme.app.personio.com",
		EmployeeID: 42,
		Timezone:   "UTC",
		Schedule:   profile.DefaultSchedule(),
	}
}

func day(date string, periods ...attendance.Period) attendance.RecordableDay {
	return attendance.RecordableDay{Date: date, DayID: "day-" + date, Periods: periods}
}

func workPeriod(date string) attendance.Period {
	return attendance.Period{
		ID:         "p-" + date,
		Start:      date + " 08:00:00",
		End:        date + " 12:00:00",
		PeriodType: attendance.PeriodWork,
	}
}

func rejection(status int, body string) error {
	return &attendance.RemoteRejection{StatusCode: status, Body: body}
}
