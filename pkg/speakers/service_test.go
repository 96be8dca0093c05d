package speakers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/events"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
	"github.com/otherjamesbrown/meetscribe/pkg/storage"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory, *storage.FileStore) {
	t.Helper()
	mem := store.NewMemory()
	files := storage.NewFileStore(t.TempDir())
	svc := NewService(mem.Stores(), files, events.NewNopNotifier(), logging.NewNopLogger())
	return svc, mem, files
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	svc, _, files := newTestService(t)

	sp, err := svc.Enroll(ctx, "Alice", "team lead", "alice.wav", []byte("sample"))
	require.NoError(t, err)
	assert.NotEmpty(t, sp.ID)
	assert.Equal(t, "Alice", sp.Name)
	assert.True(t, files.Exists(sp.SampleAudioPath))

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestEnrollValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Enroll(ctx, "  ", "", "a.wav", []byte("x"))
	assert.True(t, mserrors.IsValidation(err))

	_, err = svc.Enroll(ctx, "Alice", "", "a.wav", nil)
	assert.True(t, mserrors.IsValidation(err))
}

func TestEnrollDuplicateNameCleansUpSample(t *testing.T) {
	ctx := context.Background()
	svc, _, files := newTestService(t)

	first, err := svc.Enroll(ctx, "Alice", "", "a.wav", []byte("x"))
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, "Alice", "", "b.wav", []byte("y"))
	assert.True(t, mserrors.IsAlreadyExists(err))

	// Only the first sample remains on disk.
	assert.True(t, files.Exists(first.SampleAudioPath))
	listed, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestUpdateSpeaker(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	sp, err := svc.Enroll(ctx, "Alice", "", "a.wav", []byte("x"))
	require.NoError(t, err)

	desc := "team lead"
	updated, err := svc.Update(ctx, sp.ID, store.SpeakerUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "team lead", updated.Description)

	empty := "  "
	_, err = svc.Update(ctx, sp.ID, store.SpeakerUpdate{Name: &empty})
	assert.True(t, mserrors.IsValidation(err))
}

func TestDeleteSpeakerRemovesFiles(t *testing.T) {
	ctx := context.Background()
	svc, _, files := newTestService(t)

	sp, err := svc.Enroll(ctx, "Alice", "", "a.wav", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sp.ID))
	assert.False(t, files.Exists(sp.SampleAudioPath))

	_, err = svc.Get(ctx, sp.ID)
	assert.True(t, mserrors.IsNotFound(err))

	assert.True(t, mserrors.IsNotFound(svc.Delete(ctx, "missing")))
}

func TestTagSegment(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestService(t)

	segID, err := mem.Segments.Insert(ctx, &model.SpeakerSegment{
		RecordingID:  "rec1",
		SpeakerLabel: "SPEAKER_00",
	})
	require.NoError(t, err)

	tag, err := svc.TagSegment(ctx, segID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "rec1", tag.RecordingID)
	assert.Equal(t, "SPEAKER_00", tag.SpeakerLabel)

	// Re-tagging the same label keeps a single tag with the latest name.
	_, err = svc.TagSegment(ctx, segID, "Alicia")
	require.NoError(t, err)

	tags, err := mem.Tags.ListByRecording(ctx, "rec1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Alicia", tags[0].UserAssignedName)
}

func TestTagSegmentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.TagSegment(ctx, "missing", "Alice")
	assert.True(t, mserrors.IsNotFound(err))

	_, err = svc.TagSegment(ctx, "whatever", " ")
	assert.True(t, mserrors.IsValidation(err))
}
