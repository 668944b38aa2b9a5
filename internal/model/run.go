package model

import "time"

// Run status constants.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimedOut  = "timed_out"
)

// Workload mode constants. Each mode selects the set of task names the
// compiler accepts.
const (
	ModeStructural = "structural"
	ModeProperty   = "property"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning: true,
		StatusFailed:  true,
	},
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusTimedOut:  true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Run represents one benchmark run of a workload against a database engine.
type Run struct {
	ID         string     `json:"id"`
	Database   string     `json:"database"`
	Dataset    string     `json:"dataset"`
	Workload   string     `json:"workload"`
	Mode       string     `json:"mode"`
	Seed       int64      `json:"seed"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	DurationS  *float64   `json:"duration_s,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// TaskResult records the outcome of one executed task within a run, as
// reported by the external runner through the progress protocol.
type TaskResult struct {
	ID              int64     `json:"id"`
	RunID           string    `json:"run_id"`
	TaskIndex       int       `json:"task_index"`
	TaskName        string    `json:"task_name"`
	Status          string    `json:"status"`
	DurationSeconds float64   `json:"duration_seconds"`
	OriginalOps     int       `json:"original_ops"`
	ValidOps        int       `json:"valid_ops"`
	FilteredOps     int       `json:"filtered_ops"`
	CreatedAt       time.Time `json:"created_at"`
}

// EventRecord is a persisted progress event, kept for post-run inspection.
type EventRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq"`
	Kind      string    `json:"kind"`
	TaskName  string    `json:"task_name,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
