package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"goattend/attendance"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
}

func TestWorkflow_ProfileModeReadsCurrentMonth(t *testing.T) {
	t.Parallel()

	client, session, events := newFakes()
	client.timesheets["2024-03-01"] = attendance.Timesheet{Timecards: []attendance.Timecard{
		trackable("2024-03-04"),
		trackable("2024-03-09"),
	}}
	workflow := &Workflow{
		Protocol: newProtocol(client, session, &sleepRecorder{}),
		Profile:  testProfile(),
		Now:      fixedNow,
	}

	report, err := workflow.Run(context.Background(), Request{Mode: ModeProfile})
	if err != nil {
		t.Fatalf("run workflow: %v", err)
	}
	if len(client.queries) != 1 || client.queries[0].StartDate != "2024-03-01" || client.queries[0].EndDate != "2024-03-31" {
		t.Fatalf("unexpected timesheet queries: %+v", client.queries)
	}
	if client.queries[0].EmployeeID != 42 || client.queries[0].Timezone != "UTC" {
		t.Fatalf("unexpected query identity: %+v", client.queries[0])
	}
	if report.Result.Total != 1 || report.Result.Successful != 1 {
		t.Fatalf("unexpected result: %+v", report.Result)
	}
	if len(report.Skips) != 1 || report.Skips[0].Reason != attendance.SkipWeekdayDisabled {
		t.Fatalf("unexpected skips: %+v", report.Skips)
	}

	// the timesheet read follows the same refresh then re-read order
	want := []string{"token:tok-0", "token:tok-0", "refresh:tok-0", "token:tok-1", "timesheet:tok-1"}
	for i, event := range want {
		if (*events)[i] != event {
			t.Fatalf("event %d: want %s, got %v", i, event, *events)
		}
	}
}

func TestWorkflow_DryRunDoesNotWrite(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	client.timesheets["2024-03-01"] = attendance.Timesheet{Timecards: []attendance.Timecard{trackable("2024-03-04")}}
	workflow := &Workflow{
		Protocol: newProtocol(client, session, &sleepRecorder{}),
		Profile:  testProfile(),
		Now:      fixedNow,
	}

	report, err := workflow.Run(context.Background(), Request{DryRun: true})
	if err != nil {
		t.Fatalf("run workflow: %v", err)
	}
	if len(report.Recordable) != 1 || len(client.validates) != 0 || len(client.commits) != 0 {
		t.Fatalf("dry run must not write: recordable=%d validates=%v", len(report.Recordable), client.validates)
	}
}

func TestWorkflow_ImportModeReadsEachMonth(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	client.timesheets["2024-02-28"] = attendance.Timesheet{Timecards: []attendance.Timecard{trackable("2024-02-28")}}
	client.timesheets["2024-03-01"] = attendance.Timesheet{Timecards: []attendance.Timecard{trackable("2024-03-01")}}
	workflow := &Workflow{
		Protocol: newProtocol(client, session, &sleepRecorder{}),
		Profile:  testProfile(),
		Now:      fixedNow,
	}

	report, err := workflow.Run(context.Background(), Request{
		Mode: ModeImport,
		Imported: map[string][]attendance.Period{
			"2024-02-28": {workPeriod("2024-02-28")},
			"2024-03-01": {workPeriod("2024-03-01")},
			"2024-04-15": {workPeriod("2024-04-15")},
		},
		To: "2024-03-31",
	})
	if err != nil {
		t.Fatalf("run workflow: %v", err)
	}
	if len(client.queries) != 2 {
		t.Fatalf("expected one read per month, got %+v", client.queries)
	}
	if client.queries[0].EndDate != "2024-02-28" || client.queries[1].StartDate != "2024-03-01" || client.queries[1].EndDate != "2024-03-01" {
		t.Fatalf("unexpected ranges: %+v", client.queries)
	}
	if report.Result.Successful != 2 {
		t.Fatalf("unexpected result: %+v", report.Result)
	}
}

func TestWorkflow_PreflightAuthFailureAborts(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	session.err = &attendance.AuthError{Reason: "no session"}
	workflow := &Workflow{Protocol: newProtocol(client, session, &sleepRecorder{}), Profile: testProfile(), Now: fixedNow}

	_, err := workflow.Run(context.Background(), Request{})
	var authErr *attendance.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if len(client.queries) != 0 || client.refreshes != 0 {
		t.Fatal("no remote call expected after failed pre-flight")
	}
}

func TestWorkflow_InvalidProfileAborts(t *testing.T) {
	t.Parallel()

	client, session, events := newFakes()
	p := testProfile()
	p.EmployeeID = 0
	workflow := &Workflow{Protocol: newProtocol(client, session, &sleepRecorder{}), Profile: p, Now: fixedNow}

	_, err := workflow.Run(context.Background(), Request{})
	var validation *attendance.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(*events) != 0 {
		t.Fatalf("nothing may run after a validation failure: %v", *events)
	}
}

func TestWorkflow_ImportModeWithoutDays(t *testing.T) {
	t.Parallel()

	client, session, _ := newFakes()
	workflow := &Workflow{Protocol: newProtocol(client, session, &sleepRecorder{}), Profile: testProfile(), Now: fixedNow}
	if _, err := workflow.Run(context.Background(), Request{Mode: ModeImport}); err == nil {
		t.Fatal("expected error for empty import")
	}
}
