package store

import (
	"context"
	"errors"

	"github.com/rdelaney/graphmark/internal/model"
)

// ErrInvalidTransition is returned when a run status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound is returned when a run is not found.
var ErrNotFound = errors.New("run not found")

// RunStats holds aggregate run statistics.
type RunStats struct {
	Total           int            `json:"total"`
	CountByStatus   map[string]int `json:"count_by_status"`
	CountByDatabase map[string]int `json:"count_by_database"`
	AvgDurationS    float64        `json:"avg_duration_s"`
}

// Store defines the persistence operations for benchmark runs.
type Store interface {
	CreateRun(ctx context.Context, r *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error)
	UpdateRunStatus(ctx context.Context, id, status string) error
	UpdateRun(ctx context.Context, r *model.Run) error
	GetRunStats(ctx context.Context) (*RunStats, error)
	InsertTaskResult(ctx context.Context, tr *model.TaskResult) error
	GetTaskResults(ctx context.Context, runID string) ([]model.TaskResult, error)
	InsertEvent(ctx context.Context, runID string, seq int, kind, taskName, message string) error
	GetEvents(ctx context.Context, runID string) ([]model.EventRecord, error)
	Close() error
}
