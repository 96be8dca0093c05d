package model

import "time"

// KnownSpeaker is a named voice enrollment usable for identification.
// Name is globally unique. The embedding is computed by the worker from the
// sample audio.
type KnownSpeaker struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	SampleAudioPath string    `bson:"sampleAudioPath" json:"sampleAudioPath"`
	EmbeddingPath   string    `bson:"embeddingPath,omitempty" json:"embeddingPath,omitempty"`
	Embedding       []float64 `bson:"embedding,omitempty" json:"embedding,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SpeakerTag is a user-assigned display name for a speaker label within one
// recording. Unique per (recordingId, speakerLabel); upserted by the tagging
// operation and used only to re-label segments at read time.
type SpeakerTag struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	RecordingID      string    `bson:"recordingId" json:"recordingId"`
	SpeakerLabel     string    `bson:"speakerLabel" json:"speakerLabel"`
	UserAssignedName string    `bson:"userAssignedName" json:"userAssignedName"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}
