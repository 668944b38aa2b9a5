package api

import (
	"encoding/json"
	"net/http"

	"github.com/rdelaney/graphmark/internal/model"
)

// handleProgress accepts a single progress event from the runner. Well-formed
// events are always acknowledged with a fixed success body; the coordinator
// decides what, if anything, happens as a result. Malformed bodies and
// unknown event kinds are rejected.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		progressRejectedTotal.WithLabelValues("malformed").Inc()
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ev.Event == "" || !model.KnownEvent(ev.Event) {
		progressRejectedTotal.WithLabelValues("unknown_kind").Inc()
		s.writeError(w, http.StatusBadRequest, "unknown event kind")
		return
	}

	s.coord.HandleEvent(ev)
	s.persistEvent(r, &ev)

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// persistEvent appends the event to the active run's event log. Events that
// arrive with no run in flight are still acknowledged, just not persisted.
func (s *Server) persistEvent(r *http.Request, ev *model.Event) {
	s.mu.Lock()
	runID := s.activeRun
	s.eventSeq++
	seq := s.eventSeq
	s.mu.Unlock()

	if runID == "" {
		return
	}

	if err := s.store.InsertEvent(r.Context(), runID, seq, ev.Event, ev.TaskName, ev.Message); err != nil {
		s.logger.Error("persist event", "run_id", runID, "event", ev.Event, "error", err)
	}

	switch ev.Event {
	case model.EventTaskComplete:
		s.persistTaskResult(r, runID, ev)
	case model.EventErrorMessage:
		run, err := s.store.GetRun(r.Context(), runID)
		if err != nil {
			s.logger.Error("load run for error event", "run_id", runID, "error", err)
			return
		}
		run.Error = ev.Message
		if err := s.store.UpdateRun(r.Context(), run); err != nil {
			s.logger.Error("record run error", "run_id", runID, "error", err)
		}
	}
}

func (s *Server) persistTaskResult(r *http.Request, runID string, ev *model.Event) {
	tr := &model.TaskResult{
		RunID:       runID,
		TaskName:    ev.TaskName,
		Status:      ev.Status,
		OriginalOps: intOrZero(ev.OriginalOpsCount),
		ValidOps:    intOrZero(ev.ValidOpsCount),
		FilteredOps: intOrZero(ev.FilteredOpsCount),
	}
	if ev.TaskIndex != nil {
		tr.TaskIndex = *ev.TaskIndex
	}
	if ev.DurationSeconds != nil {
		tr.DurationSeconds = *ev.DurationSeconds
	}
	if err := s.store.InsertTaskResult(r.Context(), tr); err != nil {
		s.logger.Error("persist task result", "run_id", runID, "task", ev.TaskName, "error", err)
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
