package model

// SessionState is the lightweight per-block state toggled by user
// interaction without a full regenerate.
type SessionState string

const (
	SessionPending  SessionState = "pending"
	SessionAccepted SessionState = "accepted"
	SessionSkipped  SessionState = "skipped"
)

// ScheduledBlock is one placed work session. Start/End/GapStart are "HH:MM"
// wall-clock labels within the planned day.
type ScheduledBlock struct {
	TaskID      string
	GapStart    string // start of the gap the session was placed into
	Start       string
	End         string
	DurationMin int
	State       SessionState
}

// DroppedTask records a mandatory task that found no gap. Only
// deadline-type tasks are ever reported here.
type DroppedTask struct {
	TaskID string
	Reason string
}

// DropReasonNoGap is the reason attached to every mandatory drop.
const DropReasonNoGap = "no available gap"

// ScheduleResult is the output of one regenerate pass: placed sessions
// sorted by start time plus the mandatory tasks that could not be placed.
// Recomputed wholesale; individual blocks carry session state mutated
// in place by accept/skip/resize.
type ScheduleResult struct {
	Scheduled []ScheduledBlock
	Dropped   []DroppedTask
}

// Clone returns a deep copy so a caller can hand out snapshots without
// exposing the mutable slices.
func (r ScheduleResult) Clone() ScheduleResult {
	out := ScheduleResult{}
	if r.Scheduled != nil {
		out.Scheduled = make([]ScheduledBlock, len(r.Scheduled))
		copy(out.Scheduled, r.Scheduled)
	}
	if r.Dropped != nil {
		out.Dropped = make([]DroppedTask, len(r.Dropped))
		copy(out.Dropped, r.Dropped)
	}
	return out
}
