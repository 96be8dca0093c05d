package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
)

func TestParseStartTime(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     time.Time
	}{
		{
			name:     "plain timestamp filename",
			filename: "2025-11-10_14-33-23.mp3",
			want:     time.Date(2025, 11, 10, 14, 33, 23, 0, time.Local),
		},
		{
			name:     "timestamp embedded in a longer name",
			filename: "standup_2025-01-02_09-00-00_room4.wav",
			want:     time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local),
		},
		{
			name:     "midnight",
			filename: "2024-12-31_00-00-00.flac",
			want:     time.Date(2024, 12, 31, 0, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStartTime(tt.filename)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseStartTimeInvalid(t *testing.T) {
	for _, filename := range []string{
		"",
		"meeting.mp3",
		"2025-11-10.mp3",          // date only
		"2025-11-10_14-33.mp3",    // seconds missing
		"2025/11/10_14-33-23.mp3", // wrong separators
	} {
		_, err := ParseStartTime(filename)
		assert.True(t, mserrors.IsValidation(err), "expected validation error for %q, got %v", filename, err)
	}
}

func TestParseStartTimeRejectsImpossibleFields(t *testing.T) {
	_, err := ParseStartTime("2025-13-40_25-61-61.mp3")
	assert.True(t, mserrors.IsValidation(err))
}

func TestParseStartTimeRoundTrip(t *testing.T) {
	// parse then format recovers the captured fields.
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 50; i++ {
		want := base.Add(time.Duration(i) * 97 * time.Minute)
		filename := fmt.Sprintf("rec_%s.ogg", want.Format("2006-01-02_15-04-05"))

		got, err := ParseStartTime(filename)
		require.NoError(t, err)
		assert.Equal(t, want.Format("2006-01-02_15-04-05"), got.Format("2006-01-02_15-04-05"))
	}
}
