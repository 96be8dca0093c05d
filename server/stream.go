package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/otherjamesbrown/meetscribe/pkg/pipeline"
)

// handleJobStream serves the job progress stream as server-sent events: one
// "data: <json>" line per event. The stream ends with a terminal
// completed/failed/error event, or silently when the client goes away.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.metrics.StreamsTotal.Inc()
	s.metrics.ActiveStreams.Inc()
	defer s.metrics.ActiveStreams.Dec()

	// r.Context() is cancelled on client disconnect, which stops the poll
	// loop and releases its ticker.
	s.streamer.Stream(r.Context(), r.PathValue("id"), func(e pipeline.Event) error {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
}
