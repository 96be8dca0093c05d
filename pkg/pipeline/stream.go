// Package pipeline exposes pipeline runs to clients: the reprocess trigger
// and the live progress stream over a job document.
package pipeline

import (
	"context"
	"time"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
	"github.com/otherjamesbrown/meetscribe/pkg/observability"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

// DefaultPollInterval is the job poll cadence when none is configured.
const DefaultPollInterval = time.Second

// EventType identifies a progress stream event.
type EventType string

const (
	EventConnected EventType = "connected"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventError     EventType = "error"
)

// Event is one discrete progress stream event. The stream is: connected
// once, then repeated progress events, then exactly one terminal
// completed/failed/error event.
type Event struct {
	Type     EventType       `json:"type"`
	Status   model.JobStatus `json:"status,omitempty"`
	Progress int             `json:"progress,omitempty"`
	Steps    []model.JobStep `json:"steps,omitempty"`

	// Error carries the job's error message on terminal events.
	Error string `json:"error,omitempty"`

	// Message carries the failure description on error events.
	Message string `json:"message,omitempty"`
}

// EmitFunc delivers one event to the consumer. A non-nil return means the
// consumer is gone and the stream should stop.
type EmitFunc func(Event) error

// Streamer turns repeated polling of a job document into an ordered event
// sequence.
type Streamer struct {
	jobs     store.Jobs
	interval time.Duration
	logger   logging.Logger
	tracer   *observability.Tracer
}

// NewStreamer creates a progress streamer. A zero interval selects
// DefaultPollInterval.
func NewStreamer(jobs store.Jobs, interval time.Duration, logger logging.Logger) *Streamer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Streamer{
		jobs:     jobs,
		interval: interval,
		logger:   logger.With(logging.F("component", "progress_stream")),
		tracer:   observability.NewTracer(),
	}
}

// Stream polls the job on a fixed interval and pushes events through emit
// until the job reaches a terminal state, the job disappears, or ctx is
// cancelled (client disconnect). Cancellation stops the loop silently with no
// further events; the ticker is always released on return. Each tick performs
// exactly one fetch; a slow fetch delays the next tick rather than
// overlapping it.
func (s *Streamer) Stream(ctx context.Context, jobID string, emit EmitFunc) {
	ctx, span := s.tracer.StartStreamSpan(ctx, jobID)
	defer span.End()

	if emit(Event{Type: EventConnected}) != nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Stream client disconnected",
				logging.F("job_id", jobID))
			return
		case <-ticker.C:
		}

		job, err := s.jobs.Get(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				// Disconnect raced the fetch.
				return
			}
			if mserrors.IsNotFound(err) {
				emit(Event{Type: EventError, Message: "Job not found"})
				return
			}
			s.logger.Error("Stream fetch failed",
				logging.Err(err),
				logging.F("job_id", jobID))
			emit(Event{Type: EventError, Message: err.Error()})
			return
		}

		if emit(Event{
			Type:     EventProgress,
			Status:   job.Status,
			Progress: job.Progress,
			Steps:    job.Steps,
		}) != nil {
			return
		}

		if job.Status.Terminal() {
			terminal := EventCompleted
			if job.Status == model.JobStatusFailed {
				terminal = EventFailed
			}
			emit(Event{Type: terminal, Error: job.ErrorMessage})
			return
		}
	}
}
