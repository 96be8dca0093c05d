// Package ingest implements the upload orchestrator: it validates a batch of
// audio files, persists them, and creates the meeting, recording and
// processing job documents that drive the analysis pipeline.
package ingest

import (
	"regexp"
	"time"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
)

// timestampPattern matches the recorder's filename convention,
// e.g. "2025-11-10_14-33-23.mp3".
var timestampPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})`)

const timestampLayout = "2006-01-02_15-04-05"

// ParseStartTime extracts the recording's real-world start time from its
// filename. The timestamp is interpreted as local time, matching the clock on
// the device that produced the file. Returns a validation error when the
// filename carries no timestamp.
func ParseStartTime(filename string) (time.Time, error) {
	match := timestampPattern.FindString(filename)
	if match == "" {
		return time.Time{}, mserrors.Validationf("filename",
			"no YYYY-MM-DD_HH-MM-SS timestamp in %q", filename)
	}

	ts, err := time.ParseInLocation(timestampLayout, match, time.Local)
	if err != nil {
		// The regex only guarantees shape, not field ranges (month 13
		// still matches).
		return time.Time{}, mserrors.Validationf("filename",
			"invalid timestamp %q: %v", match, err)
	}
	return ts, nil
}
