// Package materialize fills the one gap the event-driven stepper leaves
// open: the "due today" occurrence that exists on the calendar but not yet
// in the store. The steady-state trigger (OnOccurrenceSaved) only ever
// pushes strictly-future rows; this package backfills today's.
package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/civiltime"
	"github.com/cadencehq/cadence/internal/domain"
	"github.com/cadencehq/cadence/internal/recurring"
)

// Options controls a single materializer run.
type Options struct {
	// AssigneeID restricts the run to one user's series when non-nil.
	AssigneeID *int64

	// DryRun reports what would be created without writing anything.
	DryRun bool
}

// Materializer creates missing "today" occurrences for recurring series.
// Safe to invoke arbitrarily many times per day: every creation is guarded
// by status-blind existence checks and the storage idempotency key.
type Materializer struct {
	repo    Repository
	guard   LeaveGuard
	stepper *recurring.Stepper
	now     func() time.Time
}

// Option is a functional option for configuring Materializer.
type Option func(*Materializer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Materializer) { m.now = now }
}

func New(repo Repository, guard LeaveGuard, stepper *recurring.Stepper, opts ...Option) *Materializer {
	m := &Materializer{
		repo:    repo,
		guard:   guard,
		stepper: stepper,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run evaluates every recurring series once and creates the occurrences
// whose next step lands on today's civil date. One series' failure never
// aborts the batch; it is logged and counted as skipped.
func (m *Materializer) Run(ctx context.Context, opts Options) (*Report, error) {
	report := newReport()
	now := m.now()
	today := civiltime.DateOf(now)

	seeds, err := m.repo.DistinctSeries(ctx, opts.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate series: %w", err)
	}

	slog.InfoContext(ctx, "materializing today's occurrences",
		"series", len(seeds), "day", today.String(), "dry_run", opts.DryRun)

	for _, key := range seeds {
		if err := m.runSeries(ctx, key, today, now, opts.DryRun, report); err != nil {
			slog.ErrorContext(ctx, "series materialization failed",
				"assignee_id", key.AssigneeID, "task", key.TaskName, "error", err)
			report.SkippedNotToday++
			report.add(key.AssigneeID, "", "failed:"+key.TaskName)
		}
	}

	slog.InfoContext(ctx, "materializer run finished",
		"created", report.Created,
		"skipped_exists", report.SkippedExists,
		"skipped_leave", report.SkippedLeave,
		"skipped_no_completed", report.SkippedNoCompleted,
		"skipped_not_today", report.SkippedNotToday,
		"skipped_future_pending", report.SkippedFuturePending)
	return report, nil
}

func (m *Materializer) runSeries(ctx context.Context, key domain.SeriesKey, today civiltime.Date, now time.Time, dryRun bool, report *Report) error {
	mode, ok := domain.ParseMode(string(key.Mode))
	if !ok {
		return nil // not a recurring series
	}
	key.Mode = mode
	key.Frequency = domain.NormalizeFrequency(key.Frequency)

	exists, err := m.repo.TodayOccurrenceExists(ctx, key, today)
	if err != nil {
		return fmt.Errorf("existence check: %w", err)
	}
	if exists {
		report.SkippedExists++
		report.add(key.AssigneeID, "", "exists:"+key.TaskName)
		return nil
	}

	futurePending, err := m.repo.FuturePendingExists(ctx, key, now)
	if err != nil {
		return fmt.Errorf("future-pending check: %w", err)
	}
	if futurePending {
		report.SkippedFuturePending++
		report.add(key.AssigneeID, "", "future_pending:"+key.TaskName)
		return nil
	}

	completed, err := m.repo.LatestCompleted(ctx, key)
	if err != nil {
		return fmt.Errorf("latest-completed lookup: %w", err)
	}
	if completed == nil {
		// No completed anchor to step from; the per-completion trigger owns
		// the earlier cases.
		report.SkippedNoCompleted++
		report.add(key.AssigneeID, "", "no_completed:"+key.TaskName)
		return nil
	}

	// Catch up from the completed anchor. The 1s slack keeps an occurrence
	// landing exactly at "now" from being stepped over.
	next := m.stepper.NextAfter(ctx, completed.DueAt, string(key.Mode), key.Frequency, now.Add(-time.Second))
	if next == nil || !civiltime.DateOf(*next).Equal(today) {
		report.SkippedNotToday++
		report.add(key.AssigneeID, "", "not_today:"+key.TaskName)
		return nil
	}

	// Leave veto, evaluated at today's assignment anchor. Guard failure is
	// treated as blocked: never create speculatively.
	blocked, err := m.guard.Blocked(ctx, key.AssigneeID, today)
	if err != nil {
		slog.WarnContext(ctx, "leave guard failed, treating as blocked",
			"assignee_id", key.AssigneeID, "task", key.TaskName, "error", err)
		blocked = true
	}
	if blocked {
		report.SkippedLeave++
		report.add(key.AssigneeID, "", "leave_blocked:"+key.TaskName)
		return nil
	}

	if dryRun {
		report.Created++
		report.add(key.AssigneeID, "dry-run", "would_create:"+key.TaskName)
		return nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate occurrence ID: %w", err)
	}

	occ := completed.Clone(id.String(), *next, now.UTC())
	inserted, err := m.repo.CreateOccurrence(ctx, occ)
	if err != nil {
		return fmt.Errorf("failed to create occurrence: %w", err)
	}
	if !inserted {
		// Another process won the race; the storage idempotency key held.
		report.SkippedExists++
		report.add(key.AssigneeID, "", "conflict:"+key.TaskName)
		return nil
	}

	report.Created++
	report.add(key.AssigneeID, occ.ID, "created:"+key.TaskName)
	slog.InfoContext(ctx, "created today's occurrence",
		"occurrence_id", occ.ID, "assignee_id", key.AssigneeID,
		"task", key.TaskName, "due_at", occ.DueAt)
	return nil
}
