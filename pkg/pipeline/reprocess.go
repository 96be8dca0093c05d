package pipeline

import (
	"context"

	"github.com/otherjamesbrown/meetscribe/pkg/events"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
	"github.com/otherjamesbrown/meetscribe/pkg/observability"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

// Reprocessor re-enqueues recordings for a fresh pipeline run.
type Reprocessor struct {
	stores   *store.Stores
	notifier events.Notifier
	logger   logging.Logger
	tracer   *observability.Tracer
}

// NewReprocessor creates a reprocess trigger.
func NewReprocessor(stores *store.Stores, notifier events.Notifier, logger logging.Logger) *Reprocessor {
	return &Reprocessor{
		stores:   stores,
		notifier: notifier,
		logger:   logger.With(logging.F("component", "reprocessor")),
		tracer:   observability.NewTracer(),
	}
}

// Reprocess creates a brand-new full job for the recording with fresh queued
// steps and resets the recording to processing. Parameters are copied from
// the recording, not from the latest job, so repeated reprocessing never
// compounds stale overrides. Prior jobs and segments are left untouched.
func (r *Reprocessor) Reprocess(ctx context.Context, recordingID string) (*model.ProcessingJob, error) {
	ctx, span := r.tracer.StartReprocessSpan(ctx, recordingID)
	defer span.End()
	helper := observability.NewSpanHelper(span)

	rec, err := r.stores.Recordings.Get(ctx, recordingID)
	if err != nil {
		helper.SetError(err)
		return nil, err
	}

	job := model.NewProcessingJob(recordingID, model.JobTypeFull, model.JobParams{
		Language:    rec.Language,
		MinSpeakers: rec.MinSpeakers,
		MaxSpeakers: rec.MaxSpeakers,
	})
	jobID, err := r.stores.Jobs.Insert(ctx, job)
	if err != nil {
		helper.SetError(err)
		return nil, err
	}
	job.ID = jobID
	helper.SetJob(jobID, string(job.JobType))

	if err := r.stores.Recordings.ResetForProcessing(ctx, recordingID); err != nil {
		helper.SetError(err)
		return nil, err
	}

	if err := r.notifier.PublishJobQueued(ctx, events.JobQueuedEvent{
		JobID:       jobID,
		RecordingID: recordingID,
		JobType:     job.JobType,
		Language:    job.Language,
		MinSpeakers: job.MinSpeakers,
		MaxSpeakers: job.MaxSpeakers,
		Reprocess:   true,
	}); err != nil {
		r.logger.Warn("Failed to publish reprocess event",
			logging.Err(err),
			logging.F("job_id", jobID))
	}

	helper.SetSuccess()
	r.logger.Info("Recording queued for reprocessing",
		logging.F("recording_id", recordingID),
		logging.F("job_id", jobID))
	return job, nil
}
