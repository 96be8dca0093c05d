package server

import (
	"encoding/json"
	"net/http"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/observability"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeText writes a plain body with the given content type.
func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// errStatus maps the error taxonomy to HTTP status codes.
func errStatus(err error) int {
	switch {
	case mserrors.IsValidation(err):
		return http.StatusBadRequest
	case mserrors.IsNotFound(err):
		return http.StatusNotFound
	case mserrors.IsAlreadyExists(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes the JSON error body. Server
// faults are logged; client faults are not.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errStatus(err)
	if status >= http.StatusInternalServerError {
		fields := []logging.Field{
			logging.Err(err),
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
		}
		if traceID := observability.GetTraceID(r.Context()); traceID != "" {
			fields = append(fields, logging.F("trace_id", traceID))
		}
		s.logger.Error("Request failed", fields...)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
