package typesys

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseISODate requires a bare calendar date with no time-of-day or offset.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("typesys: %q is not an ISO date: %w", s, err)
	}
	return t, nil
}

// ParseISODateTime accepts RFC3339 with or without a UTC offset. Input
// lacking an offset is treated as UTC.
func ParseISODateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("typesys: %q is not an ISO datetime", s)
}

// FormatDate renders the canonical ISO date form (no offset).
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// FormatDateTime renders the canonical ISO datetime form (UTC, offset "Z").
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
