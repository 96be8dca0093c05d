package model

import "time"

// Meeting is an optional grouping container for recordings uploaded together.
//
// Meetings are created by the upload orchestrator before any of their
// recordings, so a meeting can transiently exist with zero recordings.
// FileCount is set once the batch finishes. Deleting a meeting does not
// cascade to its recordings.
type Meeting struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name"`
	ScheduledAt time.Time `bson:"scheduledAt" json:"scheduledAt"`
	FileCount   int       `bson:"fileCount" json:"fileCount"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
