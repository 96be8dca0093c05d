package model

import "time"

// TranscriptionSegment is one sub-span of a speaker segment with its own
// offsets and confidence, as produced by the transcription stage.
type TranscriptionSegment struct {
	StartOffset float64 `bson:"startOffset" json:"startOffset"`
	EndOffset   float64 `bson:"endOffset" json:"endOffset"`
	Text        string  `bson:"text" json:"text"`
	Confidence  float64 `bson:"confidence" json:"confidence"`
}

// SpeakerSegment is one diarized, transcribed span attributed to a speaker
// label. Segments are created only by the external worker and are read-only
// to the server.
type SpeakerSegment struct {
	ID                    string                 `bson:"_id,omitempty" json:"id"`
	RecordingID           string                 `bson:"recordingId" json:"recordingId"`
	SpeakerLabel          string                 `bson:"speakerLabel" json:"speakerLabel"`
	IdentifiedSpeakerID   string                 `bson:"identifiedSpeakerId,omitempty" json:"identifiedSpeakerId,omitempty"`
	ConfidenceScore       float64                `bson:"confidenceScore" json:"confidenceScore"`
	StartTime             time.Time              `bson:"startTime" json:"startTime"`
	EndTime               time.Time              `bson:"endTime" json:"endTime"`
	DurationSeconds       float64                `bson:"durationSeconds" json:"durationSeconds"`
	SegmentAudioPath      string                 `bson:"segmentAudioPath,omitempty" json:"segmentAudioPath,omitempty"`
	Transcription         string                 `bson:"transcription" json:"transcription"`
	TranscriptionSegments []TranscriptionSegment `bson:"transcriptionSegments,omitempty" json:"transcriptionSegments,omitempty"`
	CreatedAt             time.Time              `bson:"createdAt" json:"createdAt"`
}
