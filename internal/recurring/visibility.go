package recurring

import (
	"time"

	"github.com/cadencehq/cadence/internal/civiltime"
	"github.com/cadencehq/cadence/internal/domain"
)

// IsVisible decides whether a task occurrence should currently be shown on
// a dashboard.
//
// Rules, evaluated on civil (IST) dates:
//   - due day before today: visible (past-due stays until completed)
//   - due day after today: hidden
//   - due day is today: anchor-gated kinds show once now reaches the 10:00
//     anchor OR the occurrence's own due time, whichever comes first;
//     immediate kinds show all day.
func IsVisible(due, now time.Time, kind domain.Kind) bool {
	dueDate := civiltime.DateOf(due)
	today := civiltime.DateOf(now)

	if dueDate.Before(today) {
		return true
	}
	if dueDate.After(today) {
		return false
	}

	if !kind.AnchorGated() {
		return true
	}
	if !due.After(now) {
		return true
	}
	return !now.Before(dueDate.VisibilityAnchor())
}

// Cutoff captures a dashboard render moment so that a page full of rows is
// filtered against one consistent "now".
type Cutoff struct {
	now   time.Time
	today civiltime.Date
}

func NewCutoff(now time.Time) Cutoff {
	return Cutoff{now: now, today: civiltime.DateOf(now)}
}

// ShouldShow applies IsVisible, optionally restricted to rows due today.
func (c Cutoff) ShouldShow(due time.Time, kind domain.Kind, todayOnly bool) bool {
	if todayOnly && !civiltime.DateOf(due).Equal(c.today) {
		return false
	}
	return IsVisible(due, c.now, kind)
}
