package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/caffinity-cli/internal/model"
)

const dayKeyLayout = "2006-01-02"

// DayKey is a local calendar date in YYYY-MM-DD form.
type DayKey string

// NormalizeDay buckets t into the local calendar day it falls on.
func NormalizeDay(t time.Time) DayKey {
	y, m, d := t.Local().Date()
	return DayKey(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

var localTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dayKeyLayout,
}

// ParseTimestamp accepts RFC3339 instants and local date or date-time forms.
// A bare date is midnight local time.
func ParseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", model.ErrInvalidTimestamp)
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", model.ErrInvalidTimestamp, raw)
}

func NormalizeRaw(raw string) (DayKey, error) {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return "", err
	}
	return NormalizeDay(t), nil
}

// ParseDayKey returns local midnight of day.
func ParseDayKey(day DayKey) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, strings.TrimSpace(string(day)), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q, expected YYYY-MM-DD", model.ErrInvalidTimestamp, string(day))
	}
	return t, nil
}

// AddDays moves day by n calendar days. time.Date normalizes month and year
// overflow and keeps DST shifts out of the arithmetic.
func AddDays(day DayKey, n int) (DayKey, error) {
	t, err := ParseDayKey(day)
	if err != nil {
		return "", err
	}
	y, m, d := t.Date()
	return NormalizeDay(time.Date(y, m, d+n, 0, 0, 0, 0, time.Local)), nil
}

// Today is the day key of now in local time.
func Today(now time.Time) DayKey {
	return NormalizeDay(now)
}

// DisplayDay renders day relative to today: "Today", "Yesterday", or
// "Monday, Jan 2".
func DisplayDay(day, today DayKey) string {
	if day == today {
		return "Today"
	}
	if yesterday, err := AddDays(today, -1); err == nil && day == yesterday {
		return "Yesterday"
	}
	t, err := ParseDayKey(day)
	if err != nil {
		return string(day)
	}
	return t.Format("Monday, Jan 2")
}
