package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateTimeLayouts are tried in order, in the location of now.
var dateTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDateTime parses a user-entered due date relative to now.
//
// Accepted forms:
//   - RFC 3339 timestamps ("2024-05-10T17:00:00Z")
//   - local date and time ("2024-05-10 17:00", "2024-05-10T17:00")
//   - local date ("2024-05-10"), meaning the end of that day
//   - "today" and "tomorrow", meaning the end of that day
//   - offsets from now: "+90m", "+3h", "+2d", "+1w"
func ParseDateTime(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	loc := now.Location()

	switch strings.ToLower(s) {
	case "today":
		return EndOfDay(now), nil
	case "tomorrow":
		return EndOfDay(now.AddDate(0, 0, 1)), nil
	}

	if strings.HasPrefix(s, "+") {
		return parseOffset(s[1:], now)
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return EndOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q (use YYYY-MM-DD, YYYY-MM-DD HH:MM, today, tomorrow or +N[m|h|d|w])", input)
}

func parseOffset(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid offset %q", "+"+s)
	}
	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid offset %q", "+"+s)
	}

	switch unit {
	case 'm':
		return now.Add(time.Duration(n) * time.Minute), nil
	case 'h':
		return now.Add(time.Duration(n) * time.Hour), nil
	case 'd':
		return now.AddDate(0, 0, n), nil
	case 'w':
		return now.AddDate(0, 0, 7*n), nil
	default:
		return time.Time{}, fmt.Errorf("invalid offset unit %q in %q", unit, "+"+s)
	}
}

// EndOfDay returns 23:59 on t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 0, 0, t.Location())
}
