package model

// Progress event kinds sent by the in-container runner.
const (
	EventTaskStart        = "task_start"
	EventTaskComplete     = "task_complete"
	EventSubtaskStart     = "subtask_start"
	EventSubtaskComplete  = "subtask_complete"
	EventSnapshotStart    = "snapshot_start"
	EventSnapshotComplete = "snapshot_complete"
	EventRestoreStart     = "restore_start"
	EventRestoreComplete  = "restore_complete"
	EventCleanupStart     = "cleanup_start"
	EventCleanupComplete  = "cleanup_complete"
	EventLogMessage       = "log_message"
	EventErrorMessage     = "error_message"
)

var knownEvents = map[string]bool{
	EventTaskStart:        true,
	EventTaskComplete:     true,
	EventSubtaskStart:     true,
	EventSubtaskComplete:  true,
	EventSnapshotStart:    true,
	EventSnapshotComplete: true,
	EventRestoreStart:     true,
	EventRestoreComplete:  true,
	EventCleanupStart:     true,
	EventCleanupComplete:  true,
	EventLogMessage:       true,
	EventErrorMessage:     true,
}

// KnownEvent reports whether kind is a recognized progress event kind.
func KnownEvent(kind string) bool {
	return knownEvents[kind]
}

// Event is a single progress event received from the external runner.
// The payload is a tagged union: which fields are populated depends on Event.
// Fields mirror the runner's wire format exactly.
type Event struct {
	Event            string   `json:"event"`
	TaskName         string   `json:"task_name,omitempty"`
	TaskIndex        *int     `json:"task_index,omitempty"`
	TotalTasks       *int     `json:"total_tasks,omitempty"`
	WorkloadFile     string   `json:"workload_file,omitempty"`
	DurationSeconds  *float64 `json:"duration_seconds,omitempty"`
	Status           string   `json:"status,omitempty"`
	NumOps           *int     `json:"num_ops,omitempty"`
	OriginalOpsCount *int     `json:"original_ops_count,omitempty"`
	ValidOpsCount    *int     `json:"valid_ops_count,omitempty"`
	FilteredOpsCount *int     `json:"filtered_ops_count,omitempty"`
	Message          string   `json:"message,omitempty"`
	Level            string   `json:"level,omitempty"`
	ErrorType        string   `json:"error_type,omitempty"`
}
