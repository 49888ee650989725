package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goattend/attendance"
	"goattend/config"
	"goattend/internal/timeutil"
	"goattend/profile"
)

var (
	profilePreviewFrom string
	profilePreviewTo   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the work profile stored in the configuration file.",
	Long: `The work profile is the weekly schedule in the configuration file.
Older configs with a flat legacy schedule are migrated to the per-weekday form when loaded.`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the normalized weekly schedule.",
	Example: `
  # Show schedule per weekday
  goattend profile show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		fmt.Printf("Instance: %s\n", p.Instance)
		fmt.Printf("Employee: %d\n", p.EmployeeID)
		fmt.Printf("Timezone: %s\n", p.Timezone)
		for weekday := 1; weekday <= 7; weekday++ {
			day, _ := p.DayFor(weekday)
			if !day.Enabled {
				fmt.Printf("%-9s  off\n", profile.WeekdayName(weekday))
				continue
			}
			fmt.Printf("%-9s  %s-%s  break %s-%s\n", profile.WeekdayName(weekday), day.WorkStart, day.WorkEnd, day.BreakStart, day.BreakEnd)
		}
		return nil
	},
}

var profilePreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the periods the profile generates for a date range.",
	Long: `Expand the schedule into work/break/work periods for every enabled weekday in the range.

No remote call is made; remote timecards may still exclude days (off days, existing periods).
Without --from/--to the current month is used.`,
	Example: `
  # Preview the current month
  goattend profile preview

  # Preview one week
  goattend profile preview --from 2024-01-01 --to 2024-01-07
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		loc, err := p.Location()
		if err != nil {
			return err
		}
		from, to, err := resolveDateRange(profilePreviewFrom, profilePreviewTo, time.Now().In(loc), loc)
		if err != nil {
			return err
		}

		days := previewDays(p, from, to)
		for _, day := range days {
			fmt.Printf("%s %s\n", day.Date, formatPeriods(day.Periods))
		}
		fmt.Printf("Days: %d\n", len(days))
		return nil
	},
}

func loadProfile() (profile.WorkProfile, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return profile.WorkProfile{}, err
	}
	return cfg.Profile()
}

// previewDays generates periods for every enabled weekday between from and to.
func previewDays(p profile.WorkProfile, from, to time.Time) []attendance.RecordableDay {
	out := make([]attendance.RecordableDay, 0, 31)
	for day := timeutil.StartOfDay(from); !day.After(to); day = day.AddDate(0, 0, 1) {
		weekday := timeutil.ISOWeekday(day)
		if !p.Enabled(weekday) {
			continue
		}
		date := timeutil.FormatDate(day)
		out = append(out, attendance.RecordableDay{Date: date, Periods: profile.GeneratePeriods(date, p, weekday)})
	}
	return out
}

// resolveDateRange parses --from/--to; both empty means the month of now.
func resolveDateRange(fromValue, toValue string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	fromValue = strings.TrimSpace(fromValue)
	toValue = strings.TrimSpace(toValue)
	if fromValue == "" && toValue == "" {
		first, last := timeutil.MonthRange(now)
		return first, last, nil
	}
	if fromValue == "" || toValue == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from and --to must be given together")
	}
	from, err := timeutil.ParseDate(fromValue, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value %q (expected YYYY-MM-DD)", fromValue)
	}
	to, err := timeutil.ParseDate(toValue, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value %q (expected YYYY-MM-DD)", toValue)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range: --from must be <= --to")
	}
	return from, to, nil
}

func formatPeriods(periods []attendance.Period) string {
	parts := make([]string, 0, len(periods))
	for _, period := range periods {
		parts = append(parts, fmt.Sprintf("%s %s-%s", period.PeriodType, clockPart(period.Start), clockPart(period.End)))
	}
	return strings.Join(parts, ", ")
}

// clockPart cuts HH:MM out of "YYYY-MM-DD HH:MM:SS".
func clockPart(wallClock string) string {
	if len(wallClock) >= 16 {
		return wallClock[11:16]
	}
	return wallClock
}

func formatWeekdays(weekdays []int) string {
	if len(weekdays) == 0 {
		return "none"
	}
	names := make([]string, 0, len(weekdays))
	for _, weekday := range weekdays {
		names = append(names, profile.WeekdayName(weekday))
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profilePreviewCmd)

	profilePreviewCmd.Flags().StringVar(&profilePreviewFrom, "from", "", "First date, format YYYY-MM-DD")
	profilePreviewCmd.Flags().StringVar(&profilePreviewTo, "to", "", "Last date, format YYYY-MM-DD")
}
