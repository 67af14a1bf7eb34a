// Package utils holds small helpers shared across modules.
package utils

import (
	"database/sql"
	"fmt"
	"time"
)

// DateLayout is the canonical period-end date format (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the date at midnight UTC
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// UnixToTime converts a stored Unix timestamp to UTC time
func UnixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// NullableUnix converts an optional time to a value suitable for a nullable INTEGER column
func NullableUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// TimeFromNull converts a scanned nullable INTEGER column back to an optional time
func TimeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := UnixToTime(v.Int64)
	return &t
}
