package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/domain"
)

// dupWindow is the tolerance around a computed due time inside which an
// existing Pending row counts as the same occurrence.
const dupWindow = time.Minute

// OnOccurrenceSaved is the steady-state generator, invoked explicitly by
// the persistence-write path whenever an occurrence is saved.
//
// When a recurring occurrence is freshly Completed, or is past due and
// still Pending, it steps the series once (with catch-up) so that exactly
// one strictly-future Pending occurrence exists. It never creates today's
// row; that is the materializer's job.
func (m *Materializer) OnOccurrenceSaved(ctx context.Context, occ *domain.Occurrence) error {
	if occ == nil || !occ.Recurring() {
		return nil
	}

	now := m.now()
	completed := occ.Status == domain.StatusCompleted
	overdue := occ.Status == domain.StatusPending && occ.DueAt.Before(now)
	if !completed && !overdue {
		return nil
	}

	key := occ.Key()

	futurePending, err := m.repo.FuturePendingExists(ctx, key, now)
	if err != nil {
		return fmt.Errorf("future-pending check: %w", err)
	}
	if futurePending {
		return nil
	}

	next := m.stepper.NextAfter(ctx, occ.DueAt, string(key.Mode), key.Frequency, now)
	if next == nil {
		slog.WarnContext(ctx, "no future occurrence found for series",
			"occurrence_id", occ.ID, "task", key.TaskName, "mode", key.Mode)
		return nil
	}

	dupe, err := m.repo.PendingExistsNear(ctx, key, *next, dupWindow)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if dupe {
		slog.InfoContext(ctx, "duplicate future occurrence prevented",
			"task", key.TaskName, "due_at", *next)
		return nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate occurrence ID: %w", err)
	}

	clone := occ.Clone(id.String(), *next, now.UTC())
	inserted, err := m.repo.CreateOccurrence(ctx, clone)
	if err != nil {
		return fmt.Errorf("failed to create next occurrence: %w", err)
	}
	if inserted {
		slog.InfoContext(ctx, "created next recurring occurrence",
			"occurrence_id", clone.ID, "task", key.TaskName, "due_at", clone.DueAt)
	}
	return nil
}
