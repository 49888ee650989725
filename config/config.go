package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"goattend/attendance"
	"goattend/profile"
)

const (
	KeyPersonioInstance   = "personio.instance"
	KeyPersonioEmployeeID = "personio.employee_id"
	KeyPersonioTimezone   = "personio.timezone"
	KeyAuthStateFile      = "auth.state_file"
	KeyMaxAttempts        = "recording.max_attempts"
	KeyBackoffBase        = "recording.backoff_base"
	KeyDayDelay           = "recording.day_delay"
	KeySessionSettle      = "recording.session_settle"
	KeyRequestTimeout     = "recording.timeout"
	KeyDBPath             = "storage.db_path"
	KeyLogLevel           = "log.level"
	KeyServerAddr         = "server.addr"
)

type Config struct {
	Personio  PersonioConfig       `mapstructure:"personio"`
	Schedule  map[string]DayConfig `mapstructure:"schedule"`
	Legacy    *LegacyConfig        `mapstructure:"legacy"`
	Auth      AuthConfig           `mapstructure:"auth"`
	Recording RecordingConfig      `mapstructure:"recording"`
	Storage   StorageConfig        `mapstructure:"storage"`
	Log       LogConfig            `mapstructure:"log"`
	Server    ServerConfig         `mapstructure:"server"`
}

type PersonioConfig struct {
	Instance   string `mapstructure:"instance"`
	EmployeeID int64  `mapstructure:"employee_id"`
	Timezone   string `mapstructure:"timezone"`
}

// DayConfig is one entry below schedule; the key is 1..7 or a weekday name.
type DayConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WorkStart  string `mapstructure:"work_start"`
	WorkEnd    string `mapstructure:"work_end"`
	BreakStart string `mapstructure:"break_start"`
	BreakEnd   string `mapstructure:"break_end"`
}

// LegacyConfig is the older flat schedule with a list of working days.
type LegacyConfig struct {
	WorkingDays []int  `mapstructure:"working_days"`
	WorkStart   string `mapstructure:"work_start"`
	WorkEnd     string `mapstructure:"work_end"`
	BreakStart  string `mapstructure:"break_start"`
	BreakEnd    string `mapstructure:"break_end"`
}

type AuthConfig struct {
	StateFile string `mapstructure:"state_file"`
}

type RecordingConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	BackoffBase   time.Duration `mapstructure:"backoff_base" validate:"gte=0"`
	DayDelay      time.Duration `mapstructure:"day_delay" validate:"gte=0"`
	SessionSettle time.Duration `mapstructure:"session_settle" validate:"gte=0"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# goattend configuration
personio:
  instance: "your-company.app.personio.com"
  employee_id: 123456
  timezone: "Europe/Berlin"

# Keys are ISO weekdays (1=Monday .. 7=Sunday) or weekday names.
schedule:
  monday:    { enabled: true, work_start: "08:00", work_end: "17:00", break_start: "12:00", break_end: "13:00" }
  tuesday:   { enabled: true, work_start: "08:00", work_end: "17:00", break_start: "12:00", break_end: "13:00" }
  wednesday: { enabled: true, work_start: "08:00", work_end: "17:00", break_start: "12:00", break_end: "13:00" }
  thursday:  { enabled: true, work_start: "08:00", work_end: "17:00", break_start: "12:00", break_end: "13:00" }
  friday:    { enabled: true, work_start: "08:00", work_end: "13:00", break_start: "12:00", break_end: "12:30" }
  saturday:  { enabled: false }
  sunday:    { enabled: false }

recording:
  max_attempts: 3
  backoff_base: 1s
  day_delay: 1s
  session_settle: 500ms
  timeout: 30s

storage:
  db_path: ""   # default: $HOME/.goattend/goattend.db

log:
  level: warn

server:
  addr: "127.0.0.1:8787"
`
}

// Profile converts the configured schedule shapes into one normalized,
// validated WorkProfile. A config without any schedule gets the default week.
func (c Config) Profile() (profile.WorkProfile, error) {
	p := profile.WorkProfile{
		Instance:   strings.TrimSpace(c.Personio.Instance),
		EmployeeID: c.Personio.EmployeeID,
		Timezone:   strings.TrimSpace(c.Personio.Timezone),
	}

	problems := make([]string, 0)
	if len(c.Schedule) > 0 {
		p.Schedule = make(map[int]profile.DaySchedule, len(c.Schedule))
		keys := make([]string, 0, len(c.Schedule))
		for key := range c.Schedule {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			weekday, err := profile.ParseWeekday(key)
			if err != nil {
				problems = append(problems, fmt.Sprintf("schedule.%s: %v", key, err))
				continue
			}
			if _, dup := p.Schedule[weekday]; dup {
				problems = append(problems, fmt.Sprintf("schedule.%s: %s configured twice", key, profile.WeekdayName(weekday)))
				continue
			}
			day := c.Schedule[key]
			p.Schedule[weekday] = profile.DaySchedule{
				Enabled:    day.Enabled,
				WorkStart:  strings.TrimSpace(day.WorkStart),
				WorkEnd:    strings.TrimSpace(day.WorkEnd),
				BreakStart: strings.TrimSpace(day.BreakStart),
				BreakEnd:   strings.TrimSpace(day.BreakEnd),
			}
		}
	}
	if c.Legacy != nil {
		p.Legacy = &profile.LegacySchedule{
			WorkingDays: c.Legacy.WorkingDays,
			WorkStart:   strings.TrimSpace(c.Legacy.WorkStart),
			WorkEnd:     strings.TrimSpace(c.Legacy.WorkEnd),
			BreakStart:  strings.TrimSpace(c.Legacy.BreakStart),
			BreakEnd:    strings.TrimSpace(c.Legacy.BreakEnd),
		}
	}
	if len(p.Schedule) == 0 && p.Legacy == nil && len(problems) == 0 {
		p.Schedule = profile.DefaultSchedule()
	}

	normalized := profile.Normalize(p)
	if err := profile.Validate(normalized); err != nil {
		var validation *attendance.ValidationError
		if !errors.As(err, &validation) {
			return profile.WorkProfile{}, err
		}
		problems = append(problems, validation.Problems...)
	}
	if len(problems) > 0 {
		return profile.WorkProfile{}, &attendance.ValidationError{Problems: problems}
	}
	return normalized, nil
}

// DBPath resolves the database location, defaulting below $HOME/.goattend.
func (c Config) DBPath() (string, error) {
	if path := strings.TrimSpace(c.Storage.DBPath); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".goattend", "goattend.db"), nil
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := cfg.Profile(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPersonioTimezone, "Europe/Berlin")
	v.SetDefault(KeyMaxAttempts, 3)
	v.SetDefault(KeyBackoffBase, "1s")
	v.SetDefault(KeyDayDelay, "1s")
	v.SetDefault(KeySessionSettle, "500ms")
	v.SetDefault(KeyRequestTimeout, "30s")
	v.SetDefault(KeyDBPath, "")
	v.SetDefault(KeyAuthStateFile, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyServerAddr, "127.0.0.1:8787")
}
