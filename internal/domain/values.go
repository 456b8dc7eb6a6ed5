package domain

import "strings"

// Mode is the recurrence cadence of a task series.
// Value object - immutable string enum.
type Mode string

const (
	ModeDaily   Mode = "Daily"
	ModeWeekly  Mode = "Weekly"
	ModeMonthly Mode = "Monthly"
	ModeYearly  Mode = "Yearly"
)

// RecurringModes lists every valid cadence, in stepping order.
var RecurringModes = []Mode{ModeDaily, ModeWeekly, ModeMonthly, ModeYearly}

// ParseMode normalizes a raw mode string into a Mode.
// Case-insensitive synonyms are accepted ("day", "weekly", "annually", ...).
// Returns false when the input does not describe a recurring cadence; that
// is a signal, not an error - the row is simply not a recurring task.
func ParseMode(raw string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "day", "daily":
		return ModeDaily, true
	case "week", "weekly":
		return ModeWeekly, true
	case "month", "monthly":
		return ModeMonthly, true
	case "year", "yearly", "annual", "annually":
		return ModeYearly, true
	default:
		return "", false
	}
}

// Status is the lifecycle state of a task occurrence.
// Value object - immutable string enum.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Priority is the priority level of a task occurrence.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// Kind distinguishes how a task gates dashboard visibility on its due day.
type Kind string

const (
	// KindChecklist tasks are anchor-gated: hidden on the due day until the
	// 10:00 IST visibility anchor (or their own due time, whichever first).
	KindChecklist Kind = "checklist"

	// KindDelegation tasks are visible as soon as their due day arrives.
	KindDelegation Kind = "delegation"

	// KindHelpTicket tasks behave like delegations.
	KindHelpTicket Kind = "help_ticket"
)

// AnchorGated reports whether k waits for the visibility anchor on its
// due day.
func (k Kind) AnchorGated() bool { return k == KindChecklist }

// NormalizeFrequency coerces a stored frequency multiplier to a usable step.
// Legacy rows carry zero or negative values; both mean "every period".
func NormalizeFrequency(freq int) int {
	if freq < 1 {
		return 1
	}
	return freq
}
