package config

import (
	"errors"
	"strings"
	"testing"

	"goattend/attendance"
)

func TestValidateYAMLContent_AcceptsExampleTemplate(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("expected example config to validate: %v", err)
	}
	if cfg.Personio.EmployeeID != 123456 {
		t.Fatalf("unexpected employee id: %d", cfg.Personio.EmployeeID)
	}
	if cfg.Recording.MaxAttempts != 3 || cfg.Recording.DayDelay.String() != "1s" {
		t.Fatalf("unexpected recording settings: %+v", cfg.Recording)
	}

	p, err := cfg.Profile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got := p.EnabledWeekdays(); len(got) != 5 || got[0] != 1 || got[4] != 5 {
		t.Fatalf("unexpected enabled weekdays: %v", got)
	}
	if p.Schedule[5].WorkEnd != "13:00" {
		t.Fatalf("unexpected friday schedule: %+v", p.Schedule[5])
	}
}

func TestValidateYAMLContent_AppliesDefaults(t *testing.T) {
	t.Parallel()

	content := []byte(`personio:
  instance: "acme.app.personio.com"
  employee_id: 42
`)

	cfg, err := ValidateYAMLContent(content)
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Personio.Timezone != "Europe/Berlin" {
		t.Fatalf("expected default timezone, got %q", cfg.Personio.Timezone)
	}
	if cfg.Server.Addr != "127.0.0.1:8787" {
		t.Fatalf("expected default server addr, got %q", cfg.Server.Addr)
	}
	if cfg.Recording.SessionSettle.String() != "500ms" {
		t.Fatalf("expected default settle, got %s", cfg.Recording.SessionSettle)
	}

	p, err := cfg.Profile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(p.Schedule) != 7 || !p.Enabled(1) || p.Enabled(6) {
		t.Fatalf("expected default schedule, got %+v", p.Schedule)
	}
}

func TestValidateYAMLContent_MigratesLegacySchedule(t *testing.T) {
	t.Parallel()

	content := []byte(`personio:
  instance: "acme.app.personio.com"
  employee_id: 42
  timezone: "UTC"
legacy:
  working_days: [1, 3]
  work_start: "09:00"
  work_end: "18:00"
  break_start: "13:00"
  break_end: "14:00"
`)

	cfg, err := ValidateYAMLContent(content)
	if err != nil {
		t.Fatalf("expected legacy config to validate: %v", err)
	}
	p, err := cfg.Profile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Legacy != nil {
		t.Fatalf("expected legacy fields folded into schedule")
	}
	if got := p.EnabledWeekdays(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected enabled weekdays: %v", got)
	}
	if p.Schedule[3].WorkStart != "09:00" || p.Schedule[3].BreakEnd != "14:00" {
		t.Fatalf("unexpected wednesday: %+v", p.Schedule[3])
	}
}

func TestValidateYAMLContent_ListsEveryProblem(t *testing.T) {
	t.Parallel()

	content := []byte(`personio:
  instance: "acme.app.personio.com"
  employee_id: 0
  timezone: "Mars/Olympus"
schedule:
  "1": { enabled: true, work_start: "25:00", work_end: "17:00", break_start: "12:00", break_end: "13:00" }
  someday: { enabled: true }
`)

	_, err := ValidateYAMLContent(content)
	var validation *attendance.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	joined := strings.Join(validation.Problems, "\n")
	for _, want := range []string{"unknown weekday", "employee id", "timezone", "work start"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected problem mentioning %q in:\n%s", want, joined)
		}
	}
}

func TestValidateYAMLContent_RejectsBadLogLevel(t *testing.T) {
	t.Parallel()

	content := []byte(`personio:
  instance: "acme.app.personio.com"
  employee_id: 42
log:
  level: chatty
`)

	if _, err := ValidateYAMLContent(content); err == nil {
		t.Fatalf("expected validation error for unknown log level")
	}
}

func TestProfile_AcceptsWeekdayNamesAndNumbers(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Personio: PersonioConfig{Instance: "acme.app.personio.com", EmployeeID: 7, Timezone: "UTC"},
		Schedule: map[string]DayConfig{
			"Tue": {Enabled: true, WorkStart: "08:00", WorkEnd: "16:00", BreakStart: "12:00", BreakEnd: "12:30"},
			"6":   {Enabled: false},
		},
	}

	p, err := cfg.Profile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !p.Enabled(2) || p.Enabled(6) || p.Enabled(1) {
		t.Fatalf("unexpected schedule: %+v", p.Schedule)
	}
}

func TestProfile_RejectsDuplicateWeekday(t *testing.T) {
	t.Parallel()

	day := DayConfig{Enabled: true, WorkStart: "08:00", WorkEnd: "16:00", BreakStart: "12:00", BreakEnd: "12:30"}
	cfg := Config{
		Personio: PersonioConfig{Instance: "acme.app.personio.com", EmployeeID: 7, Timezone: "UTC"},
		Schedule: map[string]DayConfig{"1": day, "monday": day},
	}

	_, err := cfg.Profile()
	if err == nil || !strings.Contains(err.Error(), "configured twice") {
		t.Fatalf("expected duplicate weekday error, got %v", err)
	}
}

func TestDBPath_UsesConfiguredValue(t *testing.T) {
	t.Parallel()

	cfg := Config{Storage: StorageConfig{DBPath: " /tmp/goattend.db "}}
	path, err := cfg.DBPath()
	if err != nil {
		t.Fatalf("db path: %v", err)
	}
	if path != "/tmp/goattend.db" {
		t.Fatalf("unexpected path %q", path)
	}
}
