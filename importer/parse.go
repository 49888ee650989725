package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"goattend/attendance"
)

var compactTimestampPattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})T(\d{2})(\d{2})(\d{2})Z?$`)

// ParseTimestamp accepts standard timestamps (RFC 3339 and a few close
// variants) and the compact YYYYMMDDTHHMMSSZ form, which is always UTC.
// Standard values without an offset are read in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}

	zoned := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
	}
	for _, layout := range zoned {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	local := []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	for _, layout := range local {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}

	if match := compactTimestampPattern.FindStringSubmatch(value); match != nil {
		parts := make([]int, 6)
		for i := range parts {
			parts[i], _ = strconv.Atoi(match[i+1])
		}
		parsed := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)
		// time.Date normalizes overflow; reject values that do not round-trip.
		if parsed.Format("20060102T150405") == value[:15] {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}

// ParsePunch reads start/end columns of one record.
func ParsePunch(record Record, loc *time.Location) (attendance.Punch, error) {
	rawStart := record.Get("start", "begin", "clockin", "von")
	rawEnd := record.Get("end", "stop", "clockout", "bis")
	if rawStart == "" || rawEnd == "" {
		return attendance.Punch{}, &attendance.ParseError{
			Item: record.RowNumber,
			Err:  errors.New("'start' and 'end' are required"),
		}
	}

	start, err := ParseTimestamp(rawStart, loc)
	if err != nil {
		return attendance.Punch{}, &attendance.ParseError{Item: record.RowNumber, Field: "start", Value: rawStart, Err: err}
	}
	end, err := ParseTimestamp(rawEnd, loc)
	if err != nil {
		return attendance.Punch{}, &attendance.ParseError{Item: record.RowNumber, Field: "end", Value: rawEnd, Err: err}
	}
	if !end.After(start) {
		return attendance.Punch{}, &attendance.ParseError{
			Item: record.RowNumber,
			Err:  errors.New("'end' must be after 'start'"),
		}
	}

	return attendance.Punch{Start: start, End: end}, nil
}
