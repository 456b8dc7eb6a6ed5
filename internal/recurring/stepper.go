// Package recurring computes the schedule of recurring task series:
// the next occurrence of a Daily/Weekly/Monthly/Yearly series on the
// working-day calendar, and whether a given occurrence is visible yet.
package recurring

import (
	"context"
	"log/slog"
	"time"

	"github.com/cadencehq/cadence/internal/calendar"
	"github.com/cadencehq/cadence/internal/civiltime"
	"github.com/cadencehq/cadence/internal/domain"
)

// CatchUpLimit bounds the catch-up loop. 730 daily steps is roughly two
// years; an anchor older than that is a data anomaly, not a backlog.
const CatchUpLimit = 730

// Stepper computes next occurrences against the working-day calendar.
type Stepper struct {
	cal *calendar.Service
}

func NewStepper(cal *calendar.Service) *Stepper {
	return &Stepper{cal: cal}
}

// Next computes the occurrence following prev for the given cadence.
//
// The civil date of prev is advanced by freq units of the mode's period
// using calendar-aware arithmetic (month and year steps clamp to the last
// valid day of the target month). If the resulting date is not a working
// day it rolls forward, and the time-of-day is pinned to 19:00 IST
// regardless of the time prev carried. The result is returned in UTC.
//
// A nil result means the mode does not describe a recurring cadence.
func (s *Stepper) Next(ctx context.Context, prev time.Time, mode string, freq int) *time.Time {
	m, ok := domain.ParseMode(mode)
	if !ok {
		return nil
	}

	step := domain.NormalizeFrequency(freq)
	date := civiltime.DateOf(prev)

	switch m {
	case domain.ModeDaily:
		date = date.AddDays(step)
	case domain.ModeWeekly:
		date = date.AddDays(7 * step)
	case domain.ModeMonthly:
		date = date.AddMonths(step)
	case domain.ModeYearly:
		date = date.AddYears(step)
	}

	if !s.cal.IsWorkingDay(ctx, date) {
		date = s.cal.NextWorkingDay(ctx, date)
	}

	next := date.DuePin()
	return &next
}

// NextUntil is Next with a series end bound: when the computed occurrence
// falls on a civil date after end, the series has terminated and nil is
// returned.
func (s *Stepper) NextUntil(ctx context.Context, prev time.Time, mode string, freq int, end civiltime.Date) *time.Time {
	next := s.Next(ctx, prev, mode, freq)
	if next == nil {
		return nil
	}
	if civiltime.DateOf(*next).After(end) {
		return nil
	}
	return next
}

// NextAfter steps repeatedly from prev until the result is strictly after
// now (catch-up after outages or backlogs). Returns nil if the cadence is
// invalid or no future occurrence is found within CatchUpLimit steps; the
// exhaustion case is logged so batch callers can continue.
func (s *Stepper) NextAfter(ctx context.Context, prev time.Time, mode string, freq int, now time.Time) *time.Time {
	next := s.Next(ctx, prev, mode, freq)
	if next == nil {
		return nil
	}

	for i := 0; !next.After(now); i++ {
		if i >= CatchUpLimit {
			slog.WarnContext(ctx, "catch-up exhausted without reaching a future occurrence",
				"prev", prev, "mode", mode, "frequency", freq, "limit", CatchUpLimit)
			return nil
		}
		next = s.Next(ctx, *next, mode, freq)
		if next == nil {
			return nil
		}
	}
	return next
}

// PreserveFirstOccurrence normalizes the timestamp of a series' first,
// user-chosen occurrence. The wall-clock time is kept exactly as given;
// date-only input (midnight) is normalized to the 10:00 visibility anchor;
// a Sunday or holiday date shifts to the next working day at the same time.
func (s *Stepper) PreserveFirstOccurrence(ctx context.Context, planned time.Time) time.Time {
	local := planned.In(civiltime.Zone)
	hour, minute := local.Hour(), local.Minute()
	if hour == 0 && minute == 0 && local.Second() == 0 {
		hour, minute = civiltime.VisibilityHour, civiltime.VisibilityMinute
	}

	date := civiltime.DateOf(planned)
	if !s.cal.IsWorkingDay(ctx, date) {
		date = s.cal.NextWorkingDay(ctx, date)
	}
	return date.At(hour, minute)
}
