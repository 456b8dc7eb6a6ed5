package materialize

import (
	"context"
	"time"

	"github.com/cadencehq/cadence/internal/civiltime"
	"github.com/cadencehq/cadence/internal/domain"
)

// Repository is the persistence contract the materializer needs.
// Implemented by internal/storage/sql.
type Repository interface {
	// DistinctSeries enumerates the series keys present among non-voided
	// recurring occurrences, optionally restricted to one assignee.
	// Stored NULL/zero frequencies are normalized to 1.
	DistinctSeries(ctx context.Context, assigneeID *int64) ([]domain.SeriesKey, error)

	// TodayOccurrenceExists reports whether any occurrence of the series is
	// due on day: matched by civil due date, or by a ±1 minute window around
	// the day's 19:00 pin to absorb clock rounding. The check is
	// status-blind: a voided (leave-skipped) row still counts, so a
	// deliberately skipped occurrence is never resurrected.
	TodayOccurrenceExists(ctx context.Context, key domain.SeriesKey, day civiltime.Date) (bool, error)

	// FuturePendingExists reports whether any Pending occurrence of the
	// series is due strictly after now.
	FuturePendingExists(ctx context.Context, key domain.SeriesKey, now time.Time) (bool, error)

	// PendingExistsNear reports whether a Pending occurrence of the series
	// is due within the half-open window [at-window, at+window).
	PendingExistsNear(ctx context.Context, key domain.SeriesKey, at time.Time, window time.Duration) (bool, error)

	// LatestCompleted returns the most recent non-voided Completed
	// occurrence of the series, or (nil, nil) when there is none.
	LatestCompleted(ctx context.Context, key domain.SeriesKey) (*domain.Occurrence, error)

	// CreateOccurrence inserts occ. The insert must be atomic against the
	// per-series-per-day idempotency key; when a conflicting row already
	// exists the insert is a no-op and inserted is false.
	CreateOccurrence(ctx context.Context, occ *domain.Occurrence) (inserted bool, err error)
}

// LeaveGuard is the leave subsystem's assignment veto: true means the user
// must not be assigned work on the given civil date. The materializer
// treats guard errors as blocked (fail closed).
type LeaveGuard interface {
	Blocked(ctx context.Context, userID int64, d civiltime.Date) (bool, error)
}

// LeaveGuardFunc adapts a function to the LeaveGuard interface.
type LeaveGuardFunc func(ctx context.Context, userID int64, d civiltime.Date) (bool, error)

func (f LeaveGuardFunc) Blocked(ctx context.Context, userID int64, d civiltime.Date) (bool, error) {
	return f(ctx, userID, d)
}
