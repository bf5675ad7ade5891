package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/orchestration"
)

// Values of statusResponse.Status.
const (
	StatusStarted    = "started"
	StatusCancelling = "cancelling"
	StatusIdle       = "idle"
	StatusRunning    = "running"
	StatusDone       = "done"
	StatusCleared    = "cleared"
	StatusFetching   = "fetching"
	StatusOK         = "ok"
)

// statusResponse is the body of every control endpoint.
type statusResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctrl.StartLongRunningTask(); err != nil {
		s.writeCommandError(w, err)
		return
	}
	id, _ := s.ctrl.TaskID()
	s.writeJSON(w, http.StatusAccepted, statusResponse{Status: StatusStarted, TaskID: taskID(id)})
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	id, running := s.ctrl.TaskID()
	s.ctrl.CancelLongRunningTask()
	status := StatusIdle
	if running {
		status = StatusCancelling
	}
	s.writeJSON(w, http.StatusAccepted, statusResponse{Status: status, TaskID: taskID(id)})
}

func (s *Server) handleTask(w http.ResponseWriter, _ *http.Request) {
	id, running := s.ctrl.TaskID()
	status := StatusDone
	switch {
	case id == uuid.Nil:
		status = StatusIdle
	case running:
		status = StatusRunning
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: status, TaskID: taskID(id)})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.ClearText()
	s.writeJSON(w, http.StatusAccepted, statusResponse{Status: StatusCleared})
}

func (s *Server) handleFetch(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctrl.FetchData(); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, statusResponse{Status: StatusFetching})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{Status: StatusOK})
}

// handleMetrics serves the Prometheus exposition. Only GET is allowed.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	if errors.Is(err, orchestration.ErrCoordinatorClosed) {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "coordinator is shut down"})
		return
	}
	s.logger.Error("command failed", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response write failed", logging.Err(err))
	}
}

func taskID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
