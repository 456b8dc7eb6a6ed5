package domain

import (
	"time"
)

// SeriesKey identifies a logical recurring series. It is not stored as its
// own entity; it is derived by grouping occurrence rows.
//
// Invariant: all occurrences sharing a key represent the same recurring
// task assigned to the same person.
type SeriesKey struct {
	AssigneeID int64
	TaskName   string
	Mode       Mode
	Frequency  int // always >= 1; legacy NULLs normalize to 1
	Group      *string
}

// GroupLabel returns the optional group label, empty when unset.
func (k SeriesKey) GroupLabel() string {
	if k.Group == nil {
		return ""
	}
	return *k.Group
}

// Occurrence is one concrete instance of a task due at a specific moment.
//
// Occurrences are created by the recurrence stepper or materializer (cloning
// a prior occurrence's payload) or directly by a user (first occurrence of a
// series). The scheduling core mutates them only at creation and never
// deletes them; completion is an external user action.
type Occurrence struct {
	ID string

	// Series key fields
	AssigneeID int64
	TaskName   string
	Mode       Mode
	Frequency  int // 0 on legacy rows; use Key() for the normalized value
	Group      *string

	// Scheduling
	Kind   Kind
	DueAt  time.Time // timezone-aware, stored in UTC
	Status Status

	// Lifecycle
	CompletedAt     *time.Time
	SkippedForLeave bool // voided because the assignee was on leave
	CreatedAt       time.Time

	// Payload, copied verbatim when a new occurrence is spawned
	AssignerID         int64
	Message            string
	Priority           Priority
	EstimatedMinutes   int
	AttachmentRequired bool
	RemindBeforeDays   int
	NotifyTo           *int64
	AuditorID          *int64
}

// Key derives the series key for this occurrence, normalizing the legacy
// zero frequency.
func (o *Occurrence) Key() SeriesKey {
	return SeriesKey{
		AssigneeID: o.AssigneeID,
		TaskName:   o.TaskName,
		Mode:       o.Mode,
		Frequency:  NormalizeFrequency(o.Frequency),
		Group:      o.Group,
	}
}

// Recurring reports whether this occurrence belongs to a recurring series.
func (o *Occurrence) Recurring() bool {
	_, ok := ParseMode(string(o.Mode))
	return ok
}

// Clone spawns a new Pending occurrence due at dueAt, copying the payload
// fields from o. The caller supplies the new ID and creation time.
func (o *Occurrence) Clone(id string, dueAt, createdAt time.Time) *Occurrence {
	return &Occurrence{
		ID:                 id,
		AssigneeID:         o.AssigneeID,
		TaskName:           o.TaskName,
		Mode:               o.Mode,
		Frequency:          NormalizeFrequency(o.Frequency),
		Group:              o.Group,
		Kind:               o.Kind,
		DueAt:              dueAt,
		Status:             StatusPending,
		CreatedAt:          createdAt,
		AssignerID:         o.AssignerID,
		Message:            o.Message,
		Priority:           o.Priority,
		EstimatedMinutes:   o.EstimatedMinutes,
		AttachmentRequired: o.AttachmentRequired,
		RemindBeforeDays:   o.RemindBeforeDays,
		NotifyTo:           o.NotifyTo,
		AuditorID:          o.AuditorID,
	}
}
