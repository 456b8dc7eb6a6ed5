package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/internal/calendar"
	"github.com/cadencehq/cadence/internal/civiltime"
)

func newTestStepper(holidays calendar.StaticHolidays) *Stepper {
	if holidays == nil {
		holidays = calendar.StaticHolidays{}
	}
	return NewStepper(calendar.NewService(holidays))
}

// ist builds an instant at IST wall-clock time, returned in UTC like
// everything the stepper handles.
func ist(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, civiltime.Zone).UTC()
}

func TestNextPinsDueTime(t *testing.T) {
	s := newTestStepper(nil)

	// Previous occurrence completed at an arbitrary time; the next one is
	// pinned to 19:00 IST no matter what.
	prev := ist(2024, time.March, 14, 9, 23)
	next := s.Next(context.Background(), prev, "Daily", 1)
	require.NotNil(t, next)
	assert.Equal(t, ist(2024, time.March, 15, 19, 0), *next)
}

func TestNextSteps(t *testing.T) {
	s := newTestStepper(nil)
	ctx := context.Background()
	prev := ist(2024, time.March, 14, 19, 0) // Thursday

	tests := []struct {
		name string
		mode string
		freq int
		want time.Time
	}{
		{"daily", "Daily", 1, ist(2024, time.March, 15, 19, 0)},
		{"every third day", "Daily", 3, ist(2024, time.March, 18, 19, 0)}, // 17th is Sunday, rolls to Monday
		{"weekly", "Weekly", 1, ist(2024, time.March, 21, 19, 0)},
		{"biweekly", "Weekly", 2, ist(2024, time.March, 28, 19, 0)},
		{"monthly", "Monthly", 1, ist(2024, time.April, 15, 19, 0)}, // 14th is a Sunday in April
		{"yearly", "Yearly", 1, ist(2025, time.March, 14, 19, 0)},
		{"zero frequency treated as one", "Daily", 0, ist(2024, time.March, 15, 19, 0)},
		{"lowercase mode synonym", "daily", 1, ist(2024, time.March, 15, 19, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := s.Next(ctx, prev, tt.mode, tt.freq)
			require.NotNil(t, next)
			assert.Equal(t, tt.want, *next)
		})
	}
}

func TestNextRejectsNonRecurringMode(t *testing.T) {
	s := newTestStepper(nil)
	for _, mode := range []string{"", "Once", "fortnightly"} {
		if next := s.Next(context.Background(), ist(2024, time.March, 14, 19, 0), mode, 1); next != nil {
			t.Errorf("mode %q: expected nil, got %v", mode, *next)
		}
	}
}

func TestNextRollsOffSunday(t *testing.T) {
	s := newTestStepper(nil)

	// Saturday completion: the natural next day is Sunday 2024-03-17,
	// which rolls to Monday.
	prev := ist(2024, time.March, 16, 19, 0)
	next := s.Next(context.Background(), prev, "Daily", 1)
	require.NotNil(t, next)
	assert.Equal(t, ist(2024, time.March, 18, 19, 0), *next)
}

func TestNextRollsOffHoliday(t *testing.T) {
	holiday := civiltime.Date{Year: 2024, Month: time.March, Day: 18} // Monday
	s := newTestStepper(calendar.StaticHolidays{holiday: {}})

	prev := ist(2024, time.March, 16, 19, 0) // Saturday
	next := s.Next(context.Background(), prev, "Daily", 1)
	require.NotNil(t, next)
	// Sunday and the Monday holiday are both skipped.
	assert.Equal(t, ist(2024, time.March, 19, 19, 0), *next)
}

func TestNextClampsMonthEnd(t *testing.T) {
	s := newTestStepper(nil)
	ctx := context.Background()

	t.Run("non-leap february", func(t *testing.T) {
		next := s.Next(ctx, ist(2025, time.January, 31, 19, 0), "Monthly", 1)
		require.NotNil(t, next)
		assert.Equal(t, ist(2025, time.February, 28, 19, 0), *next)
	})

	t.Run("leap february", func(t *testing.T) {
		next := s.Next(ctx, ist(2024, time.January, 31, 19, 0), "Monthly", 1)
		require.NotNil(t, next)
		assert.Equal(t, ist(2024, time.February, 29, 19, 0), *next)
	})
}

func TestNextUntil(t *testing.T) {
	s := newTestStepper(nil)
	ctx := context.Background()
	prev := ist(2024, time.March, 14, 19, 0)

	t.Run("within bound", func(t *testing.T) {
		end := civiltime.Date{Year: 2024, Month: time.March, Day: 15}
		next := s.NextUntil(ctx, prev, "Daily", 1, end)
		require.NotNil(t, next)
		assert.Equal(t, ist(2024, time.March, 15, 19, 0), *next)
	})

	t.Run("past bound terminates series", func(t *testing.T) {
		end := civiltime.Date{Year: 2024, Month: time.March, Day: 14}
		assert.Nil(t, s.NextUntil(ctx, prev, "Daily", 1, end))
	})
}

func TestNextAfterCatchesUp(t *testing.T) {
	s := newTestStepper(nil)
	now := ist(2024, time.March, 15, 9, 45)

	// A weekly series last completed a month ago must land on the first
	// occurrence strictly after now, not the stale next one.
	prev := ist(2024, time.February, 15, 19, 0) // Thursday
	next := s.NextAfter(context.Background(), prev, "Weekly", 1, now)
	require.NotNil(t, next)
	assert.Equal(t, ist(2024, time.March, 21, 19, 0), *next)
	assert.True(t, next.After(now))
}

func TestNextAfterSkipsExactNow(t *testing.T) {
	s := newTestStepper(nil)

	// "Strictly after": an occurrence landing exactly at now is stepped
	// over.
	prev := ist(2024, time.March, 14, 19, 0)
	now := ist(2024, time.March, 15, 19, 0)
	next := s.NextAfter(context.Background(), prev, "Daily", 1, now)
	require.NotNil(t, next)
	assert.Equal(t, ist(2024, time.March, 16, 19, 0), *next)
}

// TestNextAfterTerminates guards the catch-up loop against hanging on
// pathological anchors. A five-year-old daily anchor exceeds the catch-up
// limit and must yield nil quickly rather than loop.
func TestNextAfterTerminates(t *testing.T) {
	s := newTestStepper(nil)
	now := ist(2024, time.March, 15, 12, 0)

	tests := []struct {
		name    string
		prev    time.Time
		wantNil bool
	}{
		{"one year backlog resolves", ist(2023, time.March, 15, 19, 0), false},
		{"five year backlog gives up", ist(2019, time.March, 15, 19, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan *time.Time, 1)
			go func() { done <- s.NextAfter(context.Background(), tt.prev, "Daily", 1, now) }()

			select {
			case next := <-done:
				if tt.wantNil {
					assert.Nil(t, next)
				} else {
					require.NotNil(t, next)
					assert.True(t, next.After(now))
					// Within one period of now.
					assert.False(t, next.After(now.AddDate(0, 0, 4)))
				}
			case <-time.After(10 * time.Second):
				t.Fatal("NextAfter did not terminate")
			}
		})
	}
}

func TestPreserveFirstOccurrence(t *testing.T) {
	s := newTestStepper(nil)
	ctx := context.Background()

	t.Run("explicit time kept", func(t *testing.T) {
		planned := ist(2024, time.March, 15, 14, 30)
		assert.Equal(t, planned, s.PreserveFirstOccurrence(ctx, planned))
	})

	t.Run("midnight normalized to visibility anchor", func(t *testing.T) {
		planned := ist(2024, time.March, 15, 0, 0)
		assert.Equal(t, ist(2024, time.March, 15, 10, 0), s.PreserveFirstOccurrence(ctx, planned))
	})

	t.Run("sunday shifts keeping the time", func(t *testing.T) {
		planned := ist(2024, time.March, 17, 14, 30)
		assert.Equal(t, ist(2024, time.March, 18, 14, 30), s.PreserveFirstOccurrence(ctx, planned))
	})
}
