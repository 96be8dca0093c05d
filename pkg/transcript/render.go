// Package transcript renders finalized speaker segments as plain text, SRT
// or WebVTT. All three are pure projections of the same ordered segment
// sequence.
package transcript

import (
	"fmt"
	"strings"
	"time"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
)

// Format identifies a transcript output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "txt"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
)

// ParseFormat validates a client-supplied format string. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatSRT, FormatVTT:
		return Format(s), nil
	default:
		return "", mserrors.Validationf("format", "unknown transcript format %q", s)
	}
}

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatVTT:
		return "text/vtt"
	case FormatText, FormatSRT:
		return "text/plain"
	default:
		return "application/json"
	}
}

// labelFor resolves a segment's display label, preferring a user-assigned
// tag over the worker's raw label.
func labelFor(seg model.SpeakerSegment, tags map[string]string) string {
	if name, ok := tags[seg.SpeakerLabel]; ok && name != "" {
		return name
	}
	return seg.SpeakerLabel
}

// TagMap indexes speaker tags by label for display resolution.
func TagMap(tags []model.SpeakerTag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[t.SpeakerLabel] = t.UserAssignedName
	}
	return m
}

// Text renders segments as plain text, one "[ISO start] label: text" block
// per segment separated by blank lines. Segments must already be ordered by
// start time.
func Text(segments []model.SpeakerSegment, tags map[string]string) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			seg.StartTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			labelFor(seg, tags),
			seg.Transcription))
	}
	return strings.Join(lines, "\n\n")
}

// SRT renders segments as a SubRip transcript: sequential numeric index,
// comma-millisecond timestamps, then the text. Subtitle formats carry no
// speaker labels, so tags do not apply here.
func SRT(segments []model.SpeakerSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			clockTime(seg.StartTime, ','),
			clockTime(seg.EndTime, ','),
			seg.Transcription)
	}
	return b.String()
}

// VTT renders segments as WebVTT: header plus dot-millisecond cues.
func VTT(segments []model.SpeakerSegment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			clockTime(seg.StartTime, '.'),
			clockTime(seg.EndTime, '.'),
			seg.Transcription)
	}
	return b.String()
}

// Render projects segments into the requested format. JSON is handled by the
// caller (it serializes the raw segment documents); Render covers the text
// formats.
func Render(format Format, segments []model.SpeakerSegment, tags map[string]string) (string, error) {
	switch format {
	case FormatText:
		return Text(segments, tags), nil
	case FormatSRT:
		return SRT(segments), nil
	case FormatVTT:
		return VTT(segments), nil
	default:
		return "", mserrors.Validationf("format", "format %q has no text rendering", format)
	}
}

// clockTime formats the UTC wall-clock portion of t as HH:MM:SS plus
// milliseconds behind the given separator, the shape both SRT and WebVTT
// expect.
func clockTime(t time.Time, sep byte) string {
	t = t.UTC()
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		t.Hour(), t.Minute(), t.Second(), sep, t.Nanosecond()/int(time.Millisecond))
}
