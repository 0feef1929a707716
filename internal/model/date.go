package model

import (
	"fmt"
	"time"
)

// Date is a civil calendar date with no time-of-day or location attached.
// The zero value sorts before every real date and is used as the
// "never ran" sentinel by the reset scheduler.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil date of t in t's location. Callers decide the
// reference timezone by converting t first (e.g. time.Now().In(loc)).
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero sentinel.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Time returns midnight UTC of the date, the canonical form used for
// DATE-typed query parameters.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
