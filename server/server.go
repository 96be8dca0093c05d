// Package server exposes the meetscribe HTTP API: upload, recording and job
// queries, the SSE progress stream, transcript projection, speaker
// enrollment and tagging.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/otherjamesbrown/meetscribe/config"
	"github.com/otherjamesbrown/meetscribe/pkg/buildinfo"
	"github.com/otherjamesbrown/meetscribe/pkg/events"
	"github.com/otherjamesbrown/meetscribe/pkg/ingest"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/observability"
	"github.com/otherjamesbrown/meetscribe/pkg/pipeline"
	"github.com/otherjamesbrown/meetscribe/pkg/speakers"
	"github.com/otherjamesbrown/meetscribe/pkg/storage"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

// Deps are the collaborators the server is wired with at startup.
type Deps struct {
	Stores   *store.Stores
	Files    *storage.FileStore
	Notifier events.Notifier
	Logger   logging.Logger

	// Health reports backing-store health for /healthz. Nil means the
	// server only vouches for itself.
	Health func(ctx context.Context) error
}

// Server is the meetscribe API server.
type Server struct {
	cfg      *config.Config
	logger   logging.Logger
	orch     *ingest.Orchestrator
	reproc   *pipeline.Reprocessor
	streamer *pipeline.Streamer
	speakers *speakers.Service
	stores   *store.Stores
	metrics  *Metrics
	tracer   *observability.Tracer
	health   func(ctx context.Context) error

	httpServer *http.Server
}

// New creates a server with all request handlers wired.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = events.NewNopNotifier()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger.With(logging.F("component", "server")),
		orch:     ingest.NewOrchestrator(deps.Stores, deps.Files, notifier, logger),
		reproc:   pipeline.NewReprocessor(deps.Stores, notifier, logger),
		streamer: pipeline.NewStreamer(deps.Stores.Jobs, cfg.StreamPollInterval, logger),
		speakers: speakers.NewService(deps.Stores, deps.Files, notifier, logger),
		stores:   deps.Stores,
		metrics:  NewMetrics(),
		tracer:   observability.NewTracer(),
		health:   deps.Health,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// routes builds the request multiplexer.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/recordings/upload", s.instrument("upload", s.handleUpload))
	mux.HandleFunc("GET /api/recordings", s.instrument("list_recordings", s.handleListRecordings))
	mux.HandleFunc("GET /api/recordings/{id}", s.instrument("get_recording", s.handleGetRecording))
	mux.HandleFunc("DELETE /api/recordings/{id}", s.instrument("delete_recording", s.handleDeleteRecording))
	mux.HandleFunc("GET /api/recordings/{id}/segments", s.instrument("segments", s.handleSegments))
	mux.HandleFunc("GET /api/recordings/{id}/transcription", s.instrument("transcription", s.handleTranscription))
	mux.HandleFunc("POST /api/recordings/{id}/reprocess", s.instrument("reprocess", s.handleReprocess))

	mux.HandleFunc("GET /api/jobs/{id}", s.instrument("get_job", s.handleGetJob))
	mux.HandleFunc("GET /api/jobs/{id}/stream", s.instrument("job_stream", s.handleJobStream))

	mux.HandleFunc("GET /api/meetings", s.instrument("list_meetings", s.handleListMeetings))

	mux.HandleFunc("POST /api/segments/{id}/tag", s.instrument("tag_segment", s.handleTagSegment))

	mux.HandleFunc("GET /api/speakers", s.instrument("list_speakers", s.handleListSpeakers))
	mux.HandleFunc("POST /api/speakers", s.instrument("enroll_speaker", s.handleEnrollSpeaker))
	mux.HandleFunc("GET /api/speakers/{id}", s.instrument("get_speaker", s.handleGetSpeaker))
	mux.HandleFunc("PUT /api/speakers/{id}", s.instrument("update_speaker", s.handleUpdateSpeaker))
	mux.HandleFunc("PATCH /api/speakers/{id}", s.instrument("update_speaker", s.handleUpdateSpeaker))
	mux.HandleFunc("DELETE /api/speakers/{id}", s.instrument("delete_speaker", s.handleDeleteSpeaker))

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /version", buildinfo.Handler("meetscribe"))
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server listening",
		logging.F("addr", s.cfg.ListenAddr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the configured timeout. Open SSE
// streams observe the context cancellation of their requests and stop.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the response status for metrics while preserving
// streaming (Flusher) support.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument wraps a handler with request counting and latency metrics.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.RequestsTotal.WithLabelValues(
			r.Method, route, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestSeconds.WithLabelValues(
			r.Method, route).Observe(time.Since(start).Seconds())
	}
}

// handleHealthz reports liveness plus backing-store health when wired.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
