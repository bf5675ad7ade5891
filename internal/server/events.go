package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/state"
)

// eventPayload is the data line of one server-sent event.
type eventPayload struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	Line string `json:"line,omitempty"`
}

// writeEvent writes s as one server-sent event.
func writeEvent(w io.Writer, s state.State) error {
	data, err := json.Marshal(eventPayload{
		Kind: s.Kind.String(),
		Text: s.Text,
		Line: orchestration.RenderLine(s),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", s.Kind, data)
	return err
}

// handleEvents streams every bus state emitted during the request.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n := s.streams.Add(1)
	defer s.streams.Add(-1)
	if limit := s.security.MaxEventStreams; limit > 0 && n > int64(limit) {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "too many event streams"})
		return
	}

	rc := http.NewResponseController(w)
	sub := s.bus.Subscribe(r.Context())
	defer sub.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Error("event stream unsupported", err)
		return
	}

	reqID := logging.String("request_id", middleware.GetReqID(r.Context()))
	s.logger.Debug("event stream opened", reqID)
	defer s.logger.Debug("event stream closed", reqID)

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case st, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, st); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// Streams returns the number of open event streams.
func (s *Server) Streams() int { return int(s.streams.Load()) }
