package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rdelaney/graphmark/internal/model"
	"github.com/rdelaney/graphmark/internal/runner"
	"github.com/rdelaney/graphmark/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type createRunRequest struct {
	Database string `json:"database"`
	Dataset  string `json:"dataset"`
	Workload string `json:"workload"`
	Mode     string `json:"mode"`
	Seed     int64  `json:"seed"`
}

type listRunsResponse struct {
	Runs  []*model.Run `json:"runs"`
	Total int          `json:"total"`
}

// handleCreateRun registers a new benchmark run. The run becomes the active
// run, so subsequent progress events are attributed to it.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Database == "" || req.Dataset == "" || req.Workload == "" {
		s.writeError(w, http.StatusBadRequest, "database, dataset and workload are required")
		return
	}
	if req.Mode == "" {
		req.Mode = model.ModeStructural
	}
	if req.Mode != model.ModeStructural && req.Mode != model.ModeProperty {
		s.writeError(w, http.StatusBadRequest, "mode must be structural or property")
		return
	}

	run := &model.Run{
		ID:        model.NewID(),
		Database:  req.Database,
		Dataset:   req.Dataset,
		Workload:  req.Workload,
		Mode:      req.Mode,
		Seed:      req.Seed,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateRun(r.Context(), run); err != nil {
		s.logger.Error("create run", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	s.mu.Lock()
	s.activeRun = run.ID
	s.eventSeq = 0
	s.mu.Unlock()

	s.logger.Info("run created", "run_id", run.ID, "database", run.Database, "mode", run.Mode)
	s.writeJSON(w, http.StatusCreated, run)
}

// handleStartRun transitions a pending run to running and dispatches it to
// the runner. The response is immediate; execution progress arrives through
// /progress and the terminal status is written when the runner returns.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("get run", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if s.executor == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no runner configured")
		return
	}

	if err := s.store.UpdateRunStatus(r.Context(), id, model.StatusRunning); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			s.writeError(w, http.StatusConflict, "run is not startable: "+run.Status)
			return
		}
		s.logger.Error("start run", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to start run")
		return
	}

	s.mu.Lock()
	s.activeRun = run.ID
	s.eventSeq = 0
	s.mu.Unlock()
	s.coord.Reset()

	go s.executeRun(run)

	run.Status = model.StatusRunning
	s.logger.Info("run started", "run_id", run.ID, "database", run.Database, "workload", run.Workload)
	s.writeJSON(w, http.StatusAccepted, run)
}

// executeRun drives one dispatched run to its terminal status. Runs on its
// own goroutine for the lifetime of the execution.
func (s *Server) executeRun(run *model.Run) {
	ctx := context.Background()

	result, err := s.executor.Execute(ctx, runner.ExecuteRequest{
		WorkloadDir: run.Workload,
		Database:    run.Database,
		CallbackURL: s.callbackURL,
	})

	final := model.StatusCompleted
	var runErr string
	switch {
	case s.coord.TimedOut():
		final = model.StatusTimedOut
		runErr = "subtask deadline exceeded"
	case err != nil:
		final = model.StatusFailed
		runErr = err.Error()
	case result.Status != "success":
		final = model.StatusFailed
		runErr = result.Error
	}

	if err := s.store.UpdateRunStatus(ctx, run.ID, final); err != nil {
		s.logger.Error("finish run", "run_id", run.ID, "status", final, "error", err)
		return
	}

	fresh, getErr := s.store.GetRun(ctx, run.ID)
	if getErr != nil {
		s.logger.Error("load finished run", "run_id", run.ID, "error", getErr)
		return
	}
	if runErr != "" {
		fresh.Error = runErr
	}
	if result != nil {
		d := result.DurationSeconds
		fresh.DurationS = &d
	}
	if err := s.store.UpdateRun(ctx, fresh); err != nil {
		s.logger.Error("record run outcome", "run_id", run.ID, "error", err)
	}

	s.logger.Info("run finished", "run_id", run.ID, "status", final, "error", runErr)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("get run", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := parseIntQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	runs, total, err := s.store.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	s.writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs, Total: total})
}

func (s *Server) handleGetRunResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("get run", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	results, err := s.store.GetTaskResults(r.Context(), id)
	if err != nil {
		s.logger.Error("get task results", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get task results")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGetRunEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("get run", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	events, err := s.store.GetEvents(r.Context(), id)
	if err != nil {
		s.logger.Error("get events", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
