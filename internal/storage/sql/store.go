package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cadencehq/cadence/internal/civiltime"
	"github.com/cadencehq/cadence/internal/domain"
)

// Store implements the materializer's Repository, the calendar HolidaySet,
// and the leave-blocking guard over one database.
type Store struct {
	db      *sql.DB
	dialect string
}

// NewStore wraps an open database connection. Use Open to also run
// migrations.
func NewStore(db *sql.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// rebind converts `?` placeholders to the dialect's form. SQLite takes `?`
// as-is; postgres needs `$1..$n`.
func (s *Store) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// seriesWhere builds the tolerant series-match predicate: a stored NULL
// frequency matches frequency 1, and the group filter applies only when the
// key carries a group.
func seriesWhere(key domain.SeriesKey) (string, []any) {
	clauses := []string{
		"assignee_id = ?",
		"task_name = ?",
		"mode = ?",
		"(frequency = ? OR (frequency IS NULL AND ? = 1))",
	}
	args := []any{key.AssigneeID, key.TaskName, string(key.Mode), key.Frequency, key.Frequency}
	if key.Group != nil && *key.Group != "" {
		clauses = append(clauses, "group_name = ?")
		args = append(args, *key.Group)
	}
	return strings.Join(clauses, " AND "), args
}

// === materialize.Repository ===

// DistinctSeries enumerates series keys among non-voided recurring rows.
func (s *Store) DistinctSeries(ctx context.Context, assigneeID *int64) ([]domain.SeriesKey, error) {
	query := `SELECT DISTINCT assignee_id, task_name, mode, COALESCE(frequency, 1), group_name
		FROM occurrences
		WHERE mode IN ('Daily', 'Weekly', 'Monthly', 'Yearly')
		  AND skipped_for_leave = FALSE`
	var args []any
	if assigneeID != nil {
		query += " AND assignee_id = ?"
		args = append(args, *assigneeID)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate series: %w", err)
	}
	defer rows.Close()

	var keys []domain.SeriesKey
	for rows.Next() {
		var key domain.SeriesKey
		var mode string
		var group sql.NullString
		if err := rows.Scan(&key.AssigneeID, &key.TaskName, &mode, &key.Frequency, &group); err != nil {
			return nil, fmt.Errorf("failed to scan series key: %w", err)
		}
		key.Mode = domain.Mode(mode)
		key.Frequency = domain.NormalizeFrequency(key.Frequency)
		if group.Valid && group.String != "" {
			key.Group = &group.String
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// TodayOccurrenceExists matches by civil due date or by the ±1 minute
// window around the day's 19:00 pin. Status-blind on purpose: voided rows
// count, so a leave-skipped occurrence is never recreated.
func (s *Store) TodayOccurrenceExists(ctx context.Context, key domain.SeriesKey, day civiltime.Date) (bool, error) {
	where, args := seriesWhere(key)
	pin := day.DuePin()

	query := fmt.Sprintf(`SELECT EXISTS (
		SELECT 1 FROM occurrences
		WHERE %s AND (due_date = ? OR (due_at >= ? AND due_at < ?))
	)`, where)
	args = append(args, day.String(), pin.Add(-time.Minute), pin.Add(time.Minute))

	var exists bool
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("today-existence query failed: %w", err)
	}
	return exists, nil
}

// FuturePendingExists reports a Pending row due strictly after now.
func (s *Store) FuturePendingExists(ctx context.Context, key domain.SeriesKey, now time.Time) (bool, error) {
	where, args := seriesWhere(key)
	query := fmt.Sprintf(`SELECT EXISTS (
		SELECT 1 FROM occurrences
		WHERE %s AND status = ? AND due_at > ?
	)`, where)
	args = append(args, string(domain.StatusPending), now.UTC())

	var exists bool
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("future-pending query failed: %w", err)
	}
	return exists, nil
}

// PendingExistsNear reports a Pending row due within [at-window, at+window).
func (s *Store) PendingExistsNear(ctx context.Context, key domain.SeriesKey, at time.Time, window time.Duration) (bool, error) {
	where, args := seriesWhere(key)
	query := fmt.Sprintf(`SELECT EXISTS (
		SELECT 1 FROM occurrences
		WHERE %s AND status = ? AND due_at >= ? AND due_at < ?
	)`, where)
	args = append(args, string(domain.StatusPending), at.UTC().Add(-window), at.UTC().Add(window))

	var exists bool
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("duplicate-window query failed: %w", err)
	}
	return exists, nil
}

// LatestCompleted returns the most recent non-voided Completed occurrence
// of the series, or nil when there is none.
func (s *Store) LatestCompleted(ctx context.Context, key domain.SeriesKey) (*domain.Occurrence, error) {
	where, args := seriesWhere(key)
	query := fmt.Sprintf(`SELECT %s FROM occurrences
		WHERE %s AND status = ? AND skipped_for_leave = FALSE
		ORDER BY due_at DESC, id DESC
		LIMIT 1`, occurrenceColumns, where)
	args = append(args, string(domain.StatusCompleted))

	occ, err := scanOccurrence(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest-completed query failed: %w", err)
	}
	return occ, nil
}

// CreateOccurrence inserts occ, relying on the per-series-per-day unique
// index for at-most-once semantics. Returns false when a conflicting row
// already exists.
func (s *Store) CreateOccurrence(ctx context.Context, occ *domain.Occurrence) (bool, error) {
	query := `INSERT INTO occurrences (
		id, assigner_id, assignee_id, task_name, message, mode, frequency,
		group_name, kind, priority, estimated_minutes, attachment_required,
		remind_before_days, notify_to, auditor_id, due_at, due_date, status,
		completed_at, skipped_for_leave, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	res, err := s.db.ExecContext(ctx, s.rebind(query),
		occ.ID,
		occ.AssignerID,
		occ.AssigneeID,
		occ.TaskName,
		occ.Message,
		string(occ.Mode),
		nullableFrequency(occ.Frequency),
		nullableString(occ.Group),
		string(occ.Kind),
		string(occ.Priority),
		occ.EstimatedMinutes,
		occ.AttachmentRequired,
		occ.RemindBeforeDays,
		nullableInt64(occ.NotifyTo),
		nullableInt64(occ.AuditorID),
		occ.DueAt.UTC(),
		civiltime.DateOf(occ.DueAt).String(),
		string(occ.Status),
		nullableTime(occ.CompletedAt),
		occ.SkippedForLeave,
		occ.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert occurrence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// === occurrence helpers ===

// GetOccurrence fetches one occurrence by ID.
func (s *Store) GetOccurrence(ctx context.Context, id string) (*domain.Occurrence, error) {
	query := fmt.Sprintf("SELECT %s FROM occurrences WHERE id = ?", occurrenceColumns)
	occ, err := scanOccurrence(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get occurrence: %w", err)
	}
	return occ, nil
}

// MarkCompleted transitions an occurrence to Completed at the given time
// and returns the updated row so the caller can feed the save trigger.
func (s *Store) MarkCompleted(ctx context.Context, id string, at time.Time) (*domain.Occurrence, error) {
	query := `UPDATE occurrences SET status = ?, completed_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(query), string(domain.StatusCompleted), at.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark occurrence completed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}
	return s.GetOccurrence(ctx, id)
}

// VoidForLeave flags an occurrence as skipped because the assignee was on
// leave. Voided rows still satisfy the today-existence check.
func (s *Store) VoidForLeave(ctx context.Context, id string) error {
	query := `UPDATE occurrences SET skipped_for_leave = TRUE WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(query), id)
	if err != nil {
		return fmt.Errorf("failed to void occurrence: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// === calendar.HolidaySet ===

// Contains reports whether d is a registered holiday.
func (s *Store) Contains(ctx context.Context, d civiltime.Date) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM holidays WHERE day = ?)`
	if err := s.db.QueryRowContext(ctx, s.rebind(query), d.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("holiday query failed: %w", err)
	}
	return exists, nil
}

// AddHoliday registers d as a non-working day.
func (s *Store) AddHoliday(ctx context.Context, d civiltime.Date, label string) error {
	query := `INSERT INTO holidays (day, label) VALUES (?, ?) ON CONFLICT DO NOTHING`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), d.String(), label); err != nil {
		return fmt.Errorf("failed to add holiday: %w", err)
	}
	return nil
}

// === materialize.LeaveGuard ===

// Blocked reports whether the user has a live (applied or approved) leave
// day on d. Rejected leave unlocks the day.
func (s *Store) Blocked(ctx context.Context, userID int64, d civiltime.Date) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
		SELECT 1 FROM leave_days
		WHERE user_id = ? AND day = ? AND status IN ('applied', 'approved')
	)`
	if err := s.db.QueryRowContext(ctx, s.rebind(query), userID, d.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("leave query failed: %w", err)
	}
	return exists, nil
}

// SetLeaveDay records or updates a leave day for the user.
func (s *Store) SetLeaveDay(ctx context.Context, userID int64, d civiltime.Date, status string) error {
	query := `INSERT INTO leave_days (user_id, day, status) VALUES (?, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET status = excluded.status`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), userID, d.String(), status); err != nil {
		return fmt.Errorf("failed to set leave day: %w", err)
	}
	return nil
}

// === row scanning ===

const occurrenceColumns = `id, assigner_id, assignee_id, task_name, message,
	mode, frequency, group_name, kind, priority, estimated_minutes,
	attachment_required, remind_before_days, notify_to, auditor_id, due_at,
	status, completed_at, skipped_for_leave, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOccurrence(row rowScanner) (*domain.Occurrence, error) {
	var occ domain.Occurrence
	var mode, kind, priority, status string
	var frequency, notifyTo, auditorID sql.NullInt64
	var group sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&occ.ID, &occ.AssignerID, &occ.AssigneeID, &occ.TaskName, &occ.Message,
		&mode, &frequency, &group, &kind, &priority, &occ.EstimatedMinutes,
		&occ.AttachmentRequired, &occ.RemindBeforeDays, &notifyTo, &auditorID,
		&occ.DueAt, &status, &completedAt, &occ.SkippedForLeave, &occ.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	occ.Mode = domain.Mode(mode)
	occ.Kind = domain.Kind(kind)
	occ.Priority = domain.Priority(priority)
	occ.Status = domain.Status(status)
	if frequency.Valid {
		occ.Frequency = int(frequency.Int64)
	}
	if group.Valid && group.String != "" {
		occ.Group = &group.String
	}
	if notifyTo.Valid {
		occ.NotifyTo = &notifyTo.Int64
	}
	if auditorID.Valid {
		occ.AuditorID = &auditorID.Int64
	}
	if completedAt.Valid {
		t := completedAt.Time
		occ.CompletedAt = &t
	}
	return &occ, nil
}

func nullableFrequency(freq int) any {
	if freq < 1 {
		return nil // legacy rows: NULL means "every period"
	}
	return freq
}

func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
