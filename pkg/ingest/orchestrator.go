package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/events"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
	"github.com/otherjamesbrown/meetscribe/pkg/observability"
	"github.com/otherjamesbrown/meetscribe/pkg/storage"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

// allowedExtensions is the accepted audio format set. Files outside it are
// skipped, not rejected: recorder directories routinely contain sidecar files
// (.txt notes, .json device metadata) next to the audio.
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// AllowedExtension reports whether the filename has an accepted audio
// extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// RawFile is one uploaded file: the client-supplied name plus its bytes.
type RawFile struct {
	Name string
	Data []byte
}

// UploadOptions carries the optional analysis parameters and meeting grouping
// for an upload batch.
type UploadOptions struct {
	// Language is an optional BCP 47 language hint for transcription.
	Language string

	// MinSpeakers and MaxSpeakers bound the diarization search when set.
	MinSpeakers int
	MaxSpeakers int

	// MeetingName requests grouping: when non-empty a meeting is created
	// and every recording in the batch references it.
	MeetingName string

	// ScheduledAt is the meeting's scheduled time. Zero means now.
	ScheduledAt time.Time
}

func (o UploadOptions) grouped() bool {
	return o.MeetingName != ""
}

// UploadResult is the outcome of a successful upload batch.
type UploadResult struct {
	MeetingID  string            `json:"meetingId,omitempty"`
	Recordings []model.Recording `json:"recordings"`
}

// Orchestrator runs the upload sequence: save bytes, insert recording, insert
// job, flip the recording to processing, with a compensating meeting delete
// when the batch yields nothing.
type Orchestrator struct {
	stores   *store.Stores
	files    *storage.FileStore
	notifier events.Notifier
	logger   logging.Logger
	tracer   *observability.Tracer
}

// NewOrchestrator creates an upload orchestrator.
func NewOrchestrator(stores *store.Stores, files *storage.FileStore, notifier events.Notifier, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		stores:   stores,
		files:    files,
		notifier: notifier,
		logger:   logger.With(logging.F("component", "upload_orchestrator")),
		tracer:   observability.NewTracer(),
	}
}

// Upload processes a batch of files.
//
// The document store has no multi-document transactions, so meeting plus
// recordings is not atomic: the meeting is created first (recordings
// reference it), and if the batch ends with zero recordings the meeting is
// deleted again. A bad filename aborts the remaining batch without undoing
// recordings already created for earlier files; the meeting's fileCount is
// the only witness of such a partial batch.
func (o *Orchestrator) Upload(ctx context.Context, files []RawFile, opts UploadOptions) (*UploadResult, error) {
	ctx, span := o.tracer.StartUploadSpan(ctx, len(files))
	defer span.End()
	helper := observability.NewSpanHelper(span)

	if err := validateOptions(opts); err != nil {
		helper.SetError(err)
		return nil, err
	}
	if len(files) == 0 {
		err := mserrors.Validationf("files", "no files in upload")
		helper.SetError(err)
		return nil, err
	}

	var meetingID string
	if opts.grouped() {
		scheduledAt := opts.ScheduledAt
		if scheduledAt.IsZero() {
			scheduledAt = time.Now().UTC()
		}
		id, err := o.stores.Meetings.Insert(ctx, &model.Meeting{
			Name:        opts.MeetingName,
			ScheduledAt: scheduledAt,
		})
		if err != nil {
			helper.SetError(err)
			return nil, err
		}
		meetingID = id
		helper.SetMeeting(meetingID)
	}

	result := &UploadResult{MeetingID: meetingID}
	for _, file := range files {
		if !AllowedExtension(file.Name) {
			o.logger.Debug("Skipping non-audio file",
				logging.F("filename", file.Name))
			continue
		}

		rec, err := o.ingestFile(ctx, file, meetingID, opts)
		if err != nil {
			o.compensate(ctx, meetingID, len(result.Recordings))
			helper.SetError(err)
			return nil, err
		}
		result.Recordings = append(result.Recordings, *rec)
	}

	if len(result.Recordings) == 0 {
		o.compensate(ctx, meetingID, 0)
		err := mserrors.Validationf("files", "no valid audio files in upload")
		helper.SetError(err)
		return nil, err
	}

	if meetingID != "" {
		if err := o.stores.Meetings.SetFileCount(ctx, meetingID, len(result.Recordings)); err != nil {
			// Recordings already landed; a stale count is not worth
			// failing the whole batch over.
			o.logger.Warn("Failed to update meeting file count",
				logging.Err(err),
				logging.F("meeting_id", meetingID))
		}
	}

	helper.SetFileCount(len(result.Recordings))
	helper.SetSuccess()
	o.logger.Info("Upload batch complete",
		logging.F("meeting_id", meetingID),
		logging.F("recordings", len(result.Recordings)))
	return result, nil
}

// ingestFile runs the per-file sequence: parse timestamp, persist bytes,
// insert recording (pending), insert queued job, flip to processing.
func (o *Orchestrator) ingestFile(ctx context.Context, file RawFile, meetingID string, opts UploadOptions) (*model.Recording, error) {
	ctx, span := o.tracer.StartFileSpan(ctx, file.Name, int64(len(file.Data)))
	defer span.End()
	helper := observability.NewSpanHelper(span)

	startTime, err := ParseStartTime(file.Name)
	if err != nil {
		helper.SetError(err)
		return nil, err
	}

	filename := uuid.New().String() + strings.ToLower(filepath.Ext(file.Name))
	path, err := o.files.Save(file.Data, filename, storage.CategoryRecordings)
	if err != nil {
		helper.SetError(err)
		return nil, err
	}

	now := time.Now().UTC()
	rec := &model.Recording{
		Filename:         filename,
		OriginalFilename: file.Name,
		FilePath:         path,
		FileSize:         int64(len(file.Data)),
		StartTime:        startTime,
		Language:         opts.Language,
		MinSpeakers:      opts.MinSpeakers,
		MaxSpeakers:      opts.MaxSpeakers,
		MeetingID:        meetingID,
		Status:           model.RecordingStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	recID, err := o.stores.Recordings.Insert(ctx, rec)
	if err != nil {
		helper.SetError(err)
		return nil, err
	}
	rec.ID = recID
	helper.SetRecording(recID)

	job := model.NewProcessingJob(recID, model.JobTypeFull, model.JobParams{
		Language:    opts.Language,
		MinSpeakers: opts.MinSpeakers,
		MaxSpeakers: opts.MaxSpeakers,
	})
	jobID, err := o.stores.Jobs.Insert(ctx, job)
	if err != nil {
		helper.SetError(err)
		return nil, err
	}
	helper.SetJob(jobID, string(job.JobType))

	if err := o.stores.Recordings.SetStatus(ctx, recID, model.RecordingStatusProcessing); err != nil {
		helper.SetError(err)
		return nil, err
	}
	rec.Status = model.RecordingStatusProcessing

	if err := o.notifier.PublishJobQueued(ctx, events.JobQueuedEvent{
		JobID:       jobID,
		RecordingID: recID,
		JobType:     job.JobType,
		Language:    opts.Language,
		MinSpeakers: opts.MinSpeakers,
		MaxSpeakers: opts.MaxSpeakers,
	}); err != nil {
		// The worker also polls for queued jobs, so a lost event only
		// delays pickup.
		o.logger.Warn("Failed to publish job queued event",
			logging.Err(err),
			logging.F("job_id", jobID))
	}

	helper.SetSuccess()
	return rec, nil
}

// compensate removes the meeting created at the start of a batch that
// produced zero recordings. Recordings created before a mid-batch failure
// stay, so a non-empty batch keeps its meeting.
func (o *Orchestrator) compensate(ctx context.Context, meetingID string, created int) {
	if meetingID == "" || created > 0 {
		return
	}
	if err := o.stores.Meetings.Delete(ctx, meetingID); err != nil {
		o.logger.Error("Failed to delete meeting during upload compensation",
			logging.Err(err),
			logging.F("meeting_id", meetingID))
		return
	}
	o.logger.Info("Deleted empty meeting after failed upload batch",
		logging.F("meeting_id", meetingID))
}

// DeleteRecording removes a recording and everything it owns: segments,
// jobs, tags, and the audio file. The audio delete is best-effort; a missing
// file is fine.
func (o *Orchestrator) DeleteRecording(ctx context.Context, recordingID string) error {
	ctx, span := o.tracer.StartSpan(ctx, "cascade_delete")
	defer span.End()
	helper := observability.NewSpanHelper(span)
	helper.SetRecording(recordingID)

	rec, err := o.stores.Recordings.Get(ctx, recordingID)
	if err != nil {
		helper.SetError(err)
		return err
	}

	// Segment clips are extracted per-speaker audio files owned by the
	// recording; remove them before their documents go.
	segments, err := o.stores.Segments.ListByRecording(ctx, recordingID, store.SegmentFilter{})
	if err != nil {
		helper.SetError(err)
		return err
	}
	for _, seg := range segments {
		if seg.SegmentAudioPath == "" {
			continue
		}
		if err := o.files.Delete(seg.SegmentAudioPath); err != nil {
			o.logger.Warn("Failed to delete segment audio file",
				logging.Err(err),
				logging.F("path", seg.SegmentAudioPath))
		}
	}

	if err := o.stores.Segments.DeleteByRecording(ctx, recordingID); err != nil {
		helper.SetError(err)
		return err
	}
	if err := o.stores.Jobs.DeleteByRecording(ctx, recordingID); err != nil {
		helper.SetError(err)
		return err
	}
	if err := o.stores.Tags.DeleteByRecording(ctx, recordingID); err != nil {
		helper.SetError(err)
		return err
	}
	if err := o.files.Delete(rec.FilePath); err != nil {
		o.logger.Warn("Failed to delete audio file",
			logging.Err(err),
			logging.F("path", rec.FilePath))
	}
	if err := o.stores.Recordings.Delete(ctx, recordingID); err != nil {
		helper.SetError(err)
		return err
	}

	if err := o.notifier.PublishRecordingDeleted(ctx, recordingID); err != nil {
		o.logger.Warn("Failed to publish recording deleted event",
			logging.Err(err),
			logging.F("recording_id", recordingID))
	}

	helper.SetSuccess()
	o.logger.Info("Recording deleted",
		logging.F("recording_id", recordingID))
	return nil
}

// validateOptions checks the analysis parameters before any mutation.
func validateOptions(opts UploadOptions) error {
	if opts.MinSpeakers < 0 || opts.MaxSpeakers < 0 {
		return mserrors.Validationf("minSpeakers", "speaker counts must be positive")
	}
	if opts.MinSpeakers > 0 && opts.MaxSpeakers > 0 && opts.MinSpeakers > opts.MaxSpeakers {
		return mserrors.Validationf("minSpeakers",
			"minSpeakers %d exceeds maxSpeakers %d", opts.MinSpeakers, opts.MaxSpeakers)
	}
	if opts.Language != "" {
		if _, err := language.Parse(opts.Language); err != nil {
			return mserrors.Validationf("language",
				"invalid language tag %q: %v", opts.Language, err)
		}
	}
	return nil
}
