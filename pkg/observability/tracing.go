// Package observability provides distributed tracing for the ingest and
// processing pipeline.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for pipeline operations.
	TracerName = "meetscribe"
)

// Span attribute keys
const (
	AttrMeetingID    = "meeting_id"
	AttrRecordingID  = "recording_id"
	AttrJobID        = "job_id"
	AttrJobType      = "job_type"
	AttrFileCount    = "file_count"
	AttrFileName     = "file_name"
	AttrFileSize     = "file_size"
	AttrFormat       = "format"
	AttrSpeakerLabel = "speaker_label"
	AttrDurationMs   = "duration_ms"
)

// Span names
const (
	SpanUploadBatch      = "ingest.upload_batch"
	SpanUploadFile       = "ingest.upload_file"
	SpanReprocess        = "pipeline.reprocess"
	SpanProgressStream   = "pipeline.progress_stream"
	SpanRenderTranscript = "transcript.render"
	SpanCascadeDelete    = "ingest.cascade_delete"
)

// Tracer provides distributed tracing for pipeline operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new pipeline tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// StartUploadSpan starts a root span for an upload batch.
func (t *Tracer) StartUploadSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanUploadBatch,
		trace.WithAttributes(
			attribute.Int(AttrFileCount, fileCount),
		),
	)
}

// StartFileSpan starts a span for a single file inside an upload batch.
func (t *Tracer) StartFileSpan(ctx context.Context, filename string, size int64) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanUploadFile,
		trace.WithAttributes(
			attribute.String(AttrFileName, filename),
			attribute.Int64(AttrFileSize, size),
		),
	)
}

// StartReprocessSpan starts a span for a reprocess trigger.
func (t *Tracer) StartReprocessSpan(ctx context.Context, recordingID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanReprocess,
		trace.WithAttributes(
			attribute.String(AttrRecordingID, recordingID),
		),
	)
}

// StartStreamSpan starts a span covering the lifetime of a progress stream.
func (t *Tracer) StartStreamSpan(ctx context.Context, jobID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanProgressStream,
		trace.WithAttributes(
			attribute.String(AttrJobID, jobID),
		),
	)
}

// StartRenderSpan starts a span for a transcript projection.
func (t *Tracer) StartRenderSpan(ctx context.Context, recordingID, format string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanRenderTranscript,
		trace.WithAttributes(
			attribute.String(AttrRecordingID, recordingID),
			attribute.String(AttrFormat, format),
		),
	)
}

// StartSpan starts a generic named span.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("meetscribe.%s", name))
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetMeeting sets the meeting attribute on the span.
func (h *SpanHelper) SetMeeting(meetingID string) {
	if meetingID != "" {
		h.span.SetAttributes(attribute.String(AttrMeetingID, meetingID))
	}
}

// SetRecording sets recording attributes on the span.
func (h *SpanHelper) SetRecording(recordingID string) {
	h.span.SetAttributes(attribute.String(AttrRecordingID, recordingID))
}

// SetJob sets job attributes on the span.
func (h *SpanHelper) SetJob(jobID, jobType string) {
	h.span.SetAttributes(
		attribute.String(AttrJobID, jobID),
		attribute.String(AttrJobType, jobType),
	)
}

// SetFileCount sets the created file count attribute.
func (h *SpanHelper) SetFileCount(count int) {
	h.span.SetAttributes(attribute.Int(AttrFileCount, count))
}

// SetDuration sets the duration attribute.
func (h *SpanHelper) SetDuration(durationMs int64) {
	h.span.SetAttributes(attribute.Int64(AttrDurationMs, durationMs))
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
