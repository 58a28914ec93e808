// Package datetime provides standardized date handling across the application.
// All dates are stored and transmitted in UTC using ISO 8601 format.
package datetime

import (
	"encoding/json"
	"strings"
	"time"
)

// Standard date formats used throughout the application.
const (
	// DateFormat is the standard date-only format (YYYY-MM-DD).
	DateFormat = "2006-01-02"

	// DateTimeFormat is the standard datetime format (ISO 8601 / RFC3339).
	DateTimeFormat = time.RFC3339
)

// Date represents a date-only value (no time component).
// It serializes to/from JSON as "YYYY-MM-DD" format.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns today's date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format, falling back to
// RFC3339 (the date portion is kept).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err == nil {
		return Date{t}, nil
	}

	t, rfcErr := time.Parse(time.RFC3339, s)
	if rfcErr == nil {
		return NewDate(t.Year(), t.Month(), t.Day()), nil
	}

	return Date{}, err
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateFormat))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	if s == "" || s == "null" {
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = parsed.Time
	return nil
}

// MarshalText implements encoding.TextMarshaler, so Date works as a JSON
// map key with chronological ordering.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = parsed.Time
	return nil
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

// OnOrBefore reports whether d falls on or before other, at day precision.
func (d Date) OnOrBefore(other Date) bool {
	return !d.Time.After(other.Time)
}

// SameMonthOrBefore reports whether d's (year, month) is at or before
// other's (year, month). Day of month is ignored.
func (d Date) SameMonthOrBefore(other Date) bool {
	if d.Year() != other.Year() {
		return d.Year() < other.Year()
	}
	return d.Month() <= other.Month()
}

// StartOfMonth returns the first day of the month at 00:00:00 UTC.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of the month at 23:59:59.999999999 UTC.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// MonthEnd returns the last calendar day of t's month as a Date.
func MonthEnd(t time.Time) Date {
	e := EndOfMonth(t)
	return NewDate(e.Year(), e.Month(), e.Day())
}

// nextMonthEnd steps from any date to the last day of the following month.
// Stepping through the first of the month avoids day-overflow normalization
// (Jan 31 + one month must land in February, not March).
func nextMonthEnd(d Date) Date {
	return MonthEnd(StartOfMonth(d.Time).AddDate(0, 1, 0))
}

// MonthEndSeries generates the ordered date grid for a valuation window:
// the valuation date itself first, then one month-end per month through the
// month containing maxMaturity, inclusive. When the valuation date is the
// last day of its own month, that month-end is skipped and the series
// resumes at the following month's end.
func MonthEndSeries(valuation, maxMaturity Date) []Date {
	dates := []Date{valuation}

	current := MonthEnd(valuation.Time)
	if !current.Time.After(valuation.Time) {
		current = nextMonthEnd(current)
	}

	for current.SameMonthOrBefore(maxMaturity) {
		dates = append(dates, current)
		current = nextMonthEnd(current)
	}

	return dates
}
