package utils

import (
	"fmt"
	"time"
)

// DayLayout is the date format accepted on the command line and in query strings
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD date as midnight UTC
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseRange parses an inclusive from/to pair. An empty from defaults to one
// year before to, an empty to defaults to today.
func ParseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if to != "" {
		var err error
		if end, err = ParseDay(to); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	start := end.AddDate(-1, 0, 0)
	if from != "" {
		var err error
		if start, err = ParseDay(from); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("from date %s is after to date %s", start.Format(DayLayout), end.Format(DayLayout))
	}
	return start, end, nil
}
