package model

import "time"

// RecordingStatus is the lifecycle status of an uploaded recording.
type RecordingStatus string

const (
	RecordingStatusPending    RecordingStatus = "pending"
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusCompleted  RecordingStatus = "completed"
	RecordingStatusFailed     RecordingStatus = "failed"
)

// Recording is one uploaded audio asset and its pipeline status.
//
// Status and the paired ProcessingJob's status are set consistently at
// creation time by the upload orchestrator; after that the external worker
// owns both and the server only reads them.
type Recording struct {
	ID               string          `bson:"_id,omitempty" json:"id"`
	Filename         string          `bson:"filename" json:"filename"`
	OriginalFilename string          `bson:"originalFilename" json:"originalFilename"`
	FilePath         string          `bson:"filePath" json:"filePath"`
	FileSize         int64           `bson:"fileSize" json:"fileSize"`
	DurationSeconds  float64         `bson:"durationSeconds" json:"durationSeconds"`
	StartTime        time.Time       `bson:"startTime" json:"startTime"`
	Language         string          `bson:"language,omitempty" json:"language,omitempty"`
	MinSpeakers      int             `bson:"minSpeakers,omitempty" json:"minSpeakers,omitempty"`
	MaxSpeakers      int             `bson:"maxSpeakers,omitempty" json:"maxSpeakers,omitempty"`
	MeetingID        string          `bson:"meetingId,omitempty" json:"meetingId,omitempty"`
	Status           RecordingStatus `bson:"status" json:"status"`
	Progress         int             `bson:"progress" json:"progress"`
	ErrorMessage     string          `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Terminal reports whether the recording is in a terminal state.
func (s RecordingStatus) Terminal() bool {
	return s == RecordingStatusCompleted || s == RecordingStatusFailed
}
