// Package civiltime handles the wall-clock calendar of the organization.
//
// All scheduling decisions in this system are made against a single fixed
// civil timezone (Asia/Kolkata). Storage and processing use UTC; this
// package is the only place that converts between the two.
package civiltime

import (
	"fmt"
	"time"
)

// Fixed business rules: tasks become visible on dashboards at 10:00 IST,
// generated occurrences are due at 19:00 IST.
const (
	VisibilityHour   = 10
	VisibilityMinute = 0
	DuePinHour       = 19
	DuePinMinute     = 0
)

const zoneName = "Asia/Kolkata"

// Zone is the fixed civil timezone. IST has no DST, so the fixed-offset
// fallback used when tzdata is unavailable is exact.
var Zone = loadZone()

func loadZone() *time.Location {
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return time.FixedZone("IST", 5*3600+30*60)
	}
	return loc
}

// Date is a calendar date in the civil timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil calendar date of t.
func DateOf(t time.Time) Date {
	y, m, d := t.In(Zone).Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current civil date.
func Today(now time.Time) Date { return DateOf(now) }

// At returns the aware timestamp for the given wall-clock time on d,
// expressed in UTC for storage.
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, Zone).UTC()
}

// VisibilityAnchor is 10:00 IST on d.
func (d Date) VisibilityAnchor() time.Time { return d.At(VisibilityHour, VisibilityMinute) }

// DuePin is 19:00 IST on d.
func (d Date) DuePin() time.Time { return d.At(DuePinHour, DuePinMinute) }

// Weekday returns the day of week of d.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, Zone).Weekday()
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) After(other Date) bool { return other.Before(d) }

func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, Zone))
}

// AddMonths returns d shifted by n months, clamped to the last valid day of
// the target month. Jan 31 + 1 month is Feb 28 (or 29), never March 2.
func (d Date) AddMonths(n int) Date {
	y := d.Year
	m := int(d.Month) - 1 + n
	y += m / 12
	m = m % 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := min(d.Day, daysIn(y, month))
	return Date{Year: y, Month: month, Day: day}
}

// AddYears returns d shifted by n years, clamping Feb 29 to Feb 28 on
// non-leap targets.
func (d Date) AddYears(n int) Date {
	day := min(d.Day, daysIn(d.Year+n, d.Month))
	return Date{Year: d.Year + n, Month: d.Month, Day: day}
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String formats d as an ISO date, e.g. "2024-03-15".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate parses an ISO "2006-01-02" date string as a civil date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, Zone)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}
