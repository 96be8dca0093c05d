package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
)

func sampleSegments() []model.SpeakerSegment {
	base := time.Date(2025, 11, 10, 14, 33, 23, 0, time.UTC)
	return []model.SpeakerSegment{
		{
			SpeakerLabel:  "SPEAKER_00",
			StartTime:     base,
			EndTime:       base.Add(4*time.Second + 500*time.Millisecond),
			Transcription: "Good morning everyone.",
		},
		{
			SpeakerLabel:  "SPEAKER_01",
			StartTime:     base.Add(5 * time.Second),
			EndTime:       base.Add(9 * time.Second),
			Transcription: "Morning. Let's get started.",
		},
	}
}

func TestText(t *testing.T) {
	got := Text(sampleSegments(), nil)

	want := "[2025-11-10T14:33:23.000Z] SPEAKER_00: Good morning everyone.\n\n" +
		"[2025-11-10T14:33:28.000Z] SPEAKER_01: Morning. Let's get started."
	assert.Equal(t, want, got)
}

func TestTextAppliesSpeakerTags(t *testing.T) {
	tags := TagMap([]model.SpeakerTag{
		{SpeakerLabel: "SPEAKER_00", UserAssignedName: "Alice"},
	})

	got := Text(sampleSegments(), tags)
	assert.Contains(t, got, "Alice: Good morning everyone.")
	// Untagged labels stay raw.
	assert.Contains(t, got, "SPEAKER_01: Morning.")
}

func TestSRT(t *testing.T) {
	got := SRT(sampleSegments())

	want := "1\n14:33:23,000 --> 14:33:27,500\nGood morning everyone.\n\n" +
		"2\n14:33:28,000 --> 14:33:32,000\nMorning. Let's get started.\n\n"
	assert.Equal(t, want, got)
}

func TestVTT(t *testing.T) {
	got := VTT(sampleSegments())

	require.True(t, strings.HasPrefix(got, "WEBVTT\n\n"))
	assert.Contains(t, got, "14:33:23.000 --> 14:33:27.500\nGood morning everyone.\n")
	assert.Contains(t, got, "14:33:28.000 --> 14:33:32.000\nMorning. Let's get started.\n")
}

func TestRenderEmptySegments(t *testing.T) {
	text, err := Render(FormatText, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, text)

	srt, err := Render(FormatSRT, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, srt)

	vtt, err := Render(FormatVTT, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n\n", vtt)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	for _, s := range []string{"json", "txt", "srt", "vtt"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}

	_, err = ParseFormat("pdf")
	assert.True(t, mserrors.IsValidation(err))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/plain", FormatText.ContentType())
	assert.Equal(t, "text/plain", FormatSRT.ContentType())
	assert.Equal(t, "text/vtt", FormatVTT.ContentType())
}
