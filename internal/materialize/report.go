package materialize

// detailCap bounds the per-series detail log carried in a report.
const detailCap = 100

// Detail records the outcome for one series in a materializer run.
type Detail struct {
	UserID    int64  `json:"user_id"`
	CreatedID string `json:"created_id,omitempty"`
	Note      string `json:"note"`
}

// Report summarizes one materializer run. Every enumerated series lands in
// exactly one counter.
type Report struct {
	Created              int `json:"created"`
	SkippedLeave         int `json:"skipped_leave"`
	SkippedExists        int `json:"skipped_exists"`
	SkippedNoCompleted   int `json:"skipped_no_completed"`
	SkippedNotToday      int `json:"skipped_not_today"`
	SkippedFuturePending int `json:"skipped_future_pending"`

	PerUser map[int64]int `json:"per_user"`
	Details []Detail      `json:"details"`
}

func newReport() *Report {
	return &Report{PerUser: make(map[int64]int)}
}

func (r *Report) add(userID int64, createdID, note string) {
	if createdID != "" {
		r.PerUser[userID]++
	}
	if len(r.Details) < detailCap {
		r.Details = append(r.Details, Detail{UserID: userID, CreatedID: createdID, Note: note})
	}
}
