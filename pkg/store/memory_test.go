package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
)

func TestMemoryRecordingsListPagination(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	base := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		status := model.RecordingStatusPending
		if i%2 == 0 {
			status = model.RecordingStatusCompleted
		}
		_, err := mem.Recordings.Insert(ctx, &model.Recording{
			OriginalFilename: "f",
			Status:           status,
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	list, err := mem.Recordings.List(ctx, ListRecordingsOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), list.Total)
	require.Len(t, list.Recordings, 2)
	// Newest first.
	assert.True(t, list.Recordings[0].CreatedAt.After(list.Recordings[1].CreatedAt))

	filtered, err := mem.Recordings.List(ctx, ListRecordingsOptions{Status: model.RecordingStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(3), filtered.Total)

	page, err := mem.Recordings.List(ctx, ListRecordingsOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page.Recordings, 1)

	empty, err := mem.Recordings.List(ctx, ListRecordingsOptions{Offset: 99})
	require.NoError(t, err)
	assert.Empty(t, empty.Recordings)
	assert.Equal(t, int64(5), empty.Total)
}

func TestMemoryRecordingsResetForProcessing(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	id, err := mem.Recordings.Insert(ctx, &model.Recording{
		Status:       model.RecordingStatusFailed,
		Progress:     37,
		ErrorMessage: "diarization blew up",
	})
	require.NoError(t, err)

	require.NoError(t, mem.Recordings.ResetForProcessing(ctx, id))

	rec, err := mem.Recordings.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingStatusProcessing, rec.Status)
	assert.Equal(t, 0, rec.Progress)
	assert.Empty(t, rec.ErrorMessage)

	assert.True(t, mserrors.IsNotFound(mem.Recordings.ResetForProcessing(ctx, "missing")))
}

func TestMemoryJobsListByRecording(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	first := model.NewProcessingJob("rec1", model.JobTypeFull, model.JobParams{})
	second := model.NewProcessingJob("rec1", model.JobTypeFull, model.JobParams{})
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other := model.NewProcessingJob("rec2", model.JobTypeFull, model.JobParams{})

	_, err := mem.Jobs.Insert(ctx, first)
	require.NoError(t, err)
	_, err = mem.Jobs.Insert(ctx, second)
	require.NoError(t, err)
	_, err = mem.Jobs.Insert(ctx, other)
	require.NoError(t, err)

	jobs, err := mem.Jobs.ListByRecording(ctx, "rec1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)

	require.NoError(t, mem.Jobs.DeleteByRecording(ctx, "rec1"))
	jobs, err = mem.Jobs.ListByRecording(ctx, "rec1")
	require.NoError(t, err)
	assert.Empty(t, jobs)

	// rec2's job untouched.
	_, err = mem.Jobs.Get(ctx, other.ID)
	assert.NoError(t, err)
}

func TestMemoryJobsGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	job := model.NewProcessingJob("rec1", model.JobTypeFull, model.JobParams{})
	_, err := mem.Jobs.Insert(ctx, job)
	require.NoError(t, err)

	got, err := mem.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	got.Steps[0].Status = model.StepStatusFailed

	again, err := mem.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusQueued, again.Steps[0].Status)
}

func TestMemoryTagsUpsertIsIdempotentPerPair(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	require.NoError(t, mem.Tags.Upsert(ctx, "rec1", "SPEAKER_00", "Alice"))
	require.NoError(t, mem.Tags.Upsert(ctx, "rec1", "SPEAKER_00", "Bob"))
	require.NoError(t, mem.Tags.Upsert(ctx, "rec1", "SPEAKER_01", "Carol"))

	tags, err := mem.Tags.ListByRecording(ctx, "rec1")
	require.NoError(t, err)
	require.Len(t, tags, 2)

	byLabel := map[string]string{}
	for _, tag := range tags {
		byLabel[tag.SpeakerLabel] = tag.UserAssignedName
	}
	assert.Equal(t, "Bob", byLabel["SPEAKER_00"])
	assert.Equal(t, "Carol", byLabel["SPEAKER_01"])
}

func TestMemorySegmentsFilter(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	base := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)
	for i, label := range []string{"SPEAKER_00", "SPEAKER_01", "SPEAKER_00"} {
		_, err := mem.Segments.Insert(ctx, &model.SpeakerSegment{
			RecordingID:  "rec1",
			SpeakerLabel: label,
			StartTime:    base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := mem.Segments.ListByRecording(ctx, "rec1", SegmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by start time.
	assert.True(t, all[0].StartTime.Before(all[1].StartTime))

	only00, err := mem.Segments.ListByRecording(ctx, "rec1", SegmentFilter{SpeakerLabel: "SPEAKER_00"})
	require.NoError(t, err)
	assert.Len(t, only00, 2)
}

func TestMemorySpeakersUniqueName(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	_, err := mem.Speakers.Insert(ctx, &model.KnownSpeaker{Name: "Alice"})
	require.NoError(t, err)

	_, err = mem.Speakers.Insert(ctx, &model.KnownSpeaker{Name: "Alice"})
	assert.True(t, mserrors.IsAlreadyExists(err))

	id, err := mem.Speakers.Insert(ctx, &model.KnownSpeaker{Name: "Bob"})
	require.NoError(t, err)

	newName := "Alice"
	_, err = mem.Speakers.Update(ctx, id, SpeakerUpdate{Name: &newName})
	assert.True(t, mserrors.IsAlreadyExists(err))

	desc := "team lead"
	updated, err := mem.Speakers.Update(ctx, id, SpeakerUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Bob", updated.Name)
	assert.Equal(t, "team lead", updated.Description)
}

func TestMemoryMeetingsDeleteCompensation(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	id, err := mem.Meetings.Insert(ctx, &model.Meeting{Name: "standup"})
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Meetings.Count())

	require.NoError(t, mem.Meetings.Delete(ctx, id))
	assert.Equal(t, 0, mem.Meetings.Count())

	_, err = mem.Meetings.Get(ctx, id)
	assert.True(t, mserrors.IsNotFound(err))
}
