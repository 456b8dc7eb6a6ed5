// Package calendar decides which civil dates are working days.
//
// Working days are Monday through Saturday, excluding administrator-
// configured holidays. The holiday collaborator is injected so tests can
// run against synthetic sets and production against the settings store.
package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/cadencehq/cadence/internal/civiltime"
)

// HolidaySet answers whether a civil date is a registered holiday.
type HolidaySet interface {
	Contains(ctx context.Context, d civiltime.Date) (bool, error)
}

// StaticHolidays is an in-memory HolidaySet for tests and fixed configs.
type StaticHolidays map[civiltime.Date]struct{}

func (s StaticHolidays) Contains(_ context.Context, d civiltime.Date) (bool, error) {
	_, ok := s[d]
	return ok, nil
}

// nextWorkingDayCap bounds the forward search. A span of 90 consecutive
// non-working days means the holiday data is corrupt; returning the input
// unchanged beats looping forever.
const nextWorkingDayCap = 90

// Service answers working-day queries against a HolidaySet.
type Service struct {
	holidays HolidaySet
}

func NewService(holidays HolidaySet) *Service {
	return &Service{holidays: holidays}
}

// IsWorkingDay reports whether d is a working day: not a Sunday and not a
// registered holiday. A failed holiday lookup degrades to "working day" so
// date computation never stalls; the degradation is logged.
func (s *Service) IsWorkingDay(ctx context.Context, d civiltime.Date) bool {
	if d.Weekday() == time.Sunday {
		return false
	}
	holiday, err := s.holidays.Contains(ctx, d)
	if err != nil {
		slog.WarnContext(ctx, "holiday lookup failed, treating as working day",
			"date", d.String(), "error", err)
		return true
	}
	return !holiday
}

// NextWorkingDay returns the smallest working date on or after d.
func (s *Service) NextWorkingDay(ctx context.Context, d civiltime.Date) civiltime.Date {
	candidate := d
	for i := 0; i < nextWorkingDayCap; i++ {
		if s.IsWorkingDay(ctx, candidate) {
			return candidate
		}
		candidate = candidate.AddDays(1)
	}
	slog.ErrorContext(ctx, "no working day found within search cap",
		"from", d.String(), "cap", nextWorkingDayCap)
	return d
}
