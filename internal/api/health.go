package api

import "net/http"

type healthResponse struct {
	Status      string `json:"status"`
	ActiveRun   string `json:"active_run,omitempty"`
	CurrentTask string `json:"current_task,omitempty"`
}

// handleHealthz reports liveness plus a snapshot of what the control plane
// is doing: the run events are attributed to and the subtask currently
// under deadline, when there is one.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := s.activeRun
	s.mu.Unlock()

	resp := healthResponse{Status: "ok", ActiveRun: active}
	if cur := s.coord.Current(); cur != nil {
		resp.CurrentTask = cur.TaskName
	}
	s.writeJSON(w, http.StatusOK, resp)
}
