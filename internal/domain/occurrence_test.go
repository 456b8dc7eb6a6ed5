package domain

import (
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw  string
		want Mode
		ok   bool
	}{
		{"Daily", ModeDaily, true},
		{"daily", ModeDaily, true},
		{"day", ModeDaily, true},
		{"  Weekly ", ModeWeekly, true},
		{"week", ModeWeekly, true},
		{"MONTH", ModeMonthly, true},
		{"monthly", ModeMonthly, true},
		{"annually", ModeYearly, true},
		{"Year", ModeYearly, true},
		{"", "", false},
		{"Once", "", false},
		{"fortnightly", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseMode(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeFrequency(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {12, 12}} {
		if got := NormalizeFrequency(tt.in); got != tt.want {
			t.Errorf("NormalizeFrequency(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAnchorGated(t *testing.T) {
	if !KindChecklist.AnchorGated() {
		t.Error("checklist must be anchor-gated")
	}
	if KindDelegation.AnchorGated() || KindHelpTicket.AnchorGated() {
		t.Error("delegation and help ticket must be visible immediately")
	}
}

func TestKeyNormalizesLegacyFrequency(t *testing.T) {
	occ := &Occurrence{AssigneeID: 42, TaskName: "Daily Report", Mode: ModeDaily, Frequency: 0}
	if got := occ.Key().Frequency; got != 1 {
		t.Errorf("expected legacy zero frequency normalized to 1, got %d", got)
	}
}

func TestRecurring(t *testing.T) {
	if !(&Occurrence{Mode: ModeMonthly}).Recurring() {
		t.Error("monthly occurrence must be recurring")
	}
	if (&Occurrence{Mode: "Once"}).Recurring() {
		t.Error("one-off occurrence must not be recurring")
	}
}

func TestCloneCopiesPayloadAndResetsLifecycle(t *testing.T) {
	completedAt := time.Date(2024, 3, 14, 13, 30, 0, 0, time.UTC)
	notifyTo := int64(7)
	group := "Ops"

	src := &Occurrence{
		ID:                 "src-id",
		AssigneeID:         42,
		TaskName:           "Daily Report",
		Mode:               ModeDaily,
		Frequency:          0,
		Group:              &group,
		Kind:               KindChecklist,
		DueAt:              time.Date(2024, 3, 14, 13, 30, 0, 0, time.UTC),
		Status:             StatusCompleted,
		CompletedAt:        &completedAt,
		SkippedForLeave:    true,
		AssignerID:         9,
		Message:            "send the numbers",
		Priority:           PriorityHigh,
		EstimatedMinutes:   30,
		AttachmentRequired: true,
		RemindBeforeDays:   1,
		NotifyTo:           &notifyTo,
	}

	dueAt := time.Date(2024, 3, 15, 13, 30, 0, 0, time.UTC)
	createdAt := time.Date(2024, 3, 15, 4, 15, 0, 0, time.UTC)
	got := src.Clone("new-id", dueAt, createdAt)

	if got.ID != "new-id" || !got.DueAt.Equal(dueAt) || !got.CreatedAt.Equal(createdAt) {
		t.Errorf("identity fields not set: %+v", got)
	}
	if got.Status != StatusPending || got.CompletedAt != nil || got.SkippedForLeave {
		t.Errorf("lifecycle not reset: %+v", got)
	}
	if got.Frequency != 1 {
		t.Errorf("expected frequency normalized on clone, got %d", got.Frequency)
	}
	if got.TaskName != src.TaskName || got.Message != src.Message || got.Priority != src.Priority ||
		got.EstimatedMinutes != src.EstimatedMinutes || !got.AttachmentRequired ||
		got.RemindBeforeDays != src.RemindBeforeDays || got.NotifyTo != src.NotifyTo ||
		got.Group != src.Group || got.Kind != src.Kind {
		t.Errorf("payload not copied: %+v", got)
	}
}

func TestGroupLabel(t *testing.T) {
	if got := (SeriesKey{}).GroupLabel(); got != "" {
		t.Errorf("expected empty label, got %q", got)
	}
	g := "Finance"
	if got := (SeriesKey{Group: &g}).GroupLabel(); got != "Finance" {
		t.Errorf("expected Finance, got %q", got)
	}
}
