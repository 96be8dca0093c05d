package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used across the application.
const (
	CollectionRecordings     = "recordings"
	CollectionMeetings       = "meetings"
	CollectionProcessingJobs = "processingJobs"
	CollectionSegments       = "speakerSegments"
	CollectionSpeakerTags    = "speakerTags"
	CollectionKnownSpeakers  = "knownSpeakers"
)

// EnsureIndexes creates the indexes the application relies on. Creating an
// index that already exists is a no-op, so this is safe to run at every
// startup.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	type indexSpec struct {
		collection string
		models     []mongo.IndexModel
	}

	specs := []indexSpec{
		{
			collection: CollectionRecordings,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "status", Value: 1}}},
				{Keys: bson.D{{Key: "startTime", Value: -1}}},
				{Keys: bson.D{{Key: "createdAt", Value: -1}}},
				{Keys: bson.D{{Key: "meetingId", Value: 1}}},
			},
		},
		{
			collection: CollectionMeetings,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "scheduledAt", Value: -1}}},
			},
		},
		{
			collection: CollectionProcessingJobs,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "recordingId", Value: 1}}},
				{Keys: bson.D{{Key: "status", Value: 1}}},
				{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			},
		},
		{
			collection: CollectionSegments,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "recordingId", Value: 1}}},
				{Keys: bson.D{{Key: "recordingId", Value: 1}, {Key: "startTime", Value: 1}}},
				{Keys: bson.D{{Key: "identifiedSpeakerId", Value: 1}}},
			},
		},
		{
			collection: CollectionSpeakerTags,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "recordingId", Value: 1}, {Key: "speakerLabel", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
			},
		},
		{
			collection: CollectionKnownSpeakers,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "name", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
			},
		},
	}

	for _, spec := range specs {
		if _, err := database.Collection(spec.collection).Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", spec.collection, err)
		}
	}

	return nil
}
