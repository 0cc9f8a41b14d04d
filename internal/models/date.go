package models

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 layout used to read and write dates.
const DateFormat = "2006-01-02"

// Date represents a calendar day with no time component.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// dateTimeFormats are accepted in place of a plain date; only the day is kept.
var dateTimeFormats = []string{time.RFC3339Nano, "2006-01-02T15:04:05"}

// ParseDate parses a YYYY-MM-DD string or a full date-time.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) <= len(DateFormat) {
		t, err := time.Parse(DateFormat, s)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return NewDate(t.Date()), nil
	}
	for _, layout := range dateTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Date()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current local date.
func Today() Date { return NewDate(time.Now().Date()) }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateFormat)
}

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.Time().After(x.Time()) }

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

// MonthsBetween returns the calendar month difference from a to b, ignoring the day of month.
func MonthsBetween(a, b Date) int {
	return (b.y-a.y)*12 + int(b.m-a.m)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
