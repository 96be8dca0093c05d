// Package store provides the document store adapter: repository interfaces
// over the meetscribe collections plus MongoDB-backed and in-memory
// implementations.
//
// The underlying store offers per-document atomicity only. There are no
// multi-document transactions; callers that need cross-collection consistency
// (the upload orchestrator) use explicit compensating actions instead.
package store

import (
	"context"

	"github.com/otherjamesbrown/meetscribe/pkg/model"
)

// RecordingList is a page of recordings plus the total match count.
type RecordingList struct {
	Recordings []model.Recording
	Total      int64
}

// ListRecordingsOptions filters and paginates recording listings.
type ListRecordingsOptions struct {
	// Status filters by recording status when non-empty.
	Status model.RecordingStatus

	// Limit caps the page size. Zero means the store default (20).
	Limit int

	// Offset skips that many documents, newest first.
	Offset int
}

// SegmentFilter narrows segment listings.
type SegmentFilter struct {
	SpeakerLabel        string
	IdentifiedSpeakerID string
}

// SpeakerUpdate carries optional fields for a known-speaker update.
// Nil fields are left unchanged.
type SpeakerUpdate struct {
	Name        *string
	Description *string
}

// Recordings is the recording repository.
type Recordings interface {
	// Insert stores a new recording, assigning an ID if unset.
	Insert(ctx context.Context, rec *model.Recording) (string, error)

	// Get returns the recording or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Recording, error)

	// List returns recordings newest first with the total match count.
	List(ctx context.Context, opts ListRecordingsOptions) (*RecordingList, error)

	// ListByMeetings returns the recordings belonging to any of the given
	// meetings, newest first.
	ListByMeetings(ctx context.Context, meetingIDs []string) ([]model.Recording, error)

	// SetStatus updates only the status field.
	SetStatus(ctx context.Context, id string, status model.RecordingStatus) error

	// ResetForProcessing flips the recording to processing with zero
	// progress and a cleared error message, for a fresh pipeline run.
	ResetForProcessing(ctx context.Context, id string) error

	// Delete removes the recording document. Deleting a missing document
	// is not an error.
	Delete(ctx context.Context, id string) error
}

// Meetings is the meeting repository.
type Meetings interface {
	Insert(ctx context.Context, m *model.Meeting) (string, error)
	Get(ctx context.Context, id string) (*model.Meeting, error)

	// List returns meetings by scheduled time, newest first.
	List(ctx context.Context, limit int) ([]model.Meeting, error)

	// SetFileCount records the number of recordings that landed in the
	// meeting's upload batch.
	SetFileCount(ctx context.Context, id string, count int) error

	// Delete removes the meeting document. Used as the compensating action
	// when an upload batch yields zero recordings.
	Delete(ctx context.Context, id string) error
}

// Jobs is the processing job repository.
type Jobs interface {
	Insert(ctx context.Context, job *model.ProcessingJob) (string, error)

	// Get returns the job or ErrNotFound.
	Get(ctx context.Context, id string) (*model.ProcessingJob, error)

	// ListByRecording returns a recording's jobs, newest first.
	ListByRecording(ctx context.Context, recordingID string) ([]model.ProcessingJob, error)

	// DeleteByRecording removes all jobs owned by the recording.
	DeleteByRecording(ctx context.Context, recordingID string) error
}

// Segments is the speaker segment repository. Segments are written by the
// external worker; the server reads and cascade-deletes them.
type Segments interface {
	// Insert exists for the worker write path and for seeding tests.
	Insert(ctx context.Context, seg *model.SpeakerSegment) (string, error)

	// Get returns the segment or ErrNotFound.
	Get(ctx context.Context, id string) (*model.SpeakerSegment, error)

	// ListByRecording returns segments ordered by start time.
	ListByRecording(ctx context.Context, recordingID string, filter SegmentFilter) ([]model.SpeakerSegment, error)

	// DeleteByRecording removes all segments owned by the recording.
	DeleteByRecording(ctx context.Context, recordingID string) error
}

// Tags is the speaker tag repository.
type Tags interface {
	// Upsert creates or replaces the tag for (recordingID, speakerLabel).
	// The store guarantees at most one document per pair.
	Upsert(ctx context.Context, recordingID, speakerLabel, name string) error

	// ListByRecording returns all tags for the recording.
	ListByRecording(ctx context.Context, recordingID string) ([]model.SpeakerTag, error)

	// DeleteByRecording removes all tags owned by the recording.
	DeleteByRecording(ctx context.Context, recordingID string) error
}

// Speakers is the known speaker repository.
type Speakers interface {
	// Insert stores a new speaker. Returns ErrAlreadyExists when the name
	// is taken.
	Insert(ctx context.Context, sp *model.KnownSpeaker) (string, error)

	// Get returns the speaker or ErrNotFound.
	Get(ctx context.Context, id string) (*model.KnownSpeaker, error)

	// List returns all speakers sorted by name.
	List(ctx context.Context) ([]model.KnownSpeaker, error)

	// Update applies the non-nil fields and returns the updated document,
	// or ErrNotFound.
	Update(ctx context.Context, id string, update SpeakerUpdate) (*model.KnownSpeaker, error)

	// Delete removes the speaker document.
	Delete(ctx context.Context, id string) error
}

// Stores bundles all repositories behind one handle, constructed once at
// startup and passed down explicitly.
type Stores struct {
	Recordings Recordings
	Meetings   Meetings
	Jobs       Jobs
	Segments   Segments
	Tags       Tags
	Speakers   Speakers
}
