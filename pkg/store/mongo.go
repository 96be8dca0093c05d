package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/otherjamesbrown/meetscribe/pkg/db"
	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
)

// DefaultListLimit is the page size used when a caller passes zero.
const DefaultListLimit = 20

// NewMongoStores builds the full repository set backed by the given database.
func NewMongoStores(database *mongo.Database) *Stores {
	return &Stores{
		Recordings: &mongoRecordings{coll: database.Collection(db.CollectionRecordings)},
		Meetings:   &mongoMeetings{coll: database.Collection(db.CollectionMeetings)},
		Jobs:       &mongoJobs{coll: database.Collection(db.CollectionProcessingJobs)},
		Segments:   &mongoSegments{coll: database.Collection(db.CollectionSegments)},
		Tags:       &mongoTags{coll: database.Collection(db.CollectionSpeakerTags)},
		Speakers:   &mongoSpeakers{coll: database.Collection(db.CollectionKnownSpeakers)},
	}
}

// storeErr wraps a driver error with the ErrStore sentinel, keeping the
// original message for logs.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, mserrors.ErrStore)
}

// --- recordings ---

type mongoRecordings struct {
	coll *mongo.Collection
}

func (r *mongoRecordings) Insert(ctx context.Context, rec *model.Recording) (string, error) {
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return "", storeErr("insert recording", err)
	}
	return rec.ID, nil
}

func (r *mongoRecordings) Get(ctx context.Context, id string) (*model.Recording, error) {
	var rec model.Recording
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mserrors.NotFoundf("recording %s", id)
	}
	if err != nil {
		return nil, storeErr("find recording", err)
	}
	return &rec, nil
}

func (r *mongoRecordings) List(ctx context.Context, opts ListRecordingsOptions) (*RecordingList, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, storeErr("count recordings", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(opts.Offset))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, storeErr("list recordings", err)
	}
	defer cursor.Close(ctx)

	recordings := []model.Recording{}
	if err := cursor.All(ctx, &recordings); err != nil {
		return nil, storeErr("decode recordings", err)
	}

	return &RecordingList{Recordings: recordings, Total: total}, nil
}

func (r *mongoRecordings) ListByMeetings(ctx context.Context, meetingIDs []string) ([]model.Recording, error) {
	if len(meetingIDs) == 0 {
		return []model.Recording{}, nil
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"meetingId": bson.M{"$in": meetingIDs}}, findOpts)
	if err != nil {
		return nil, storeErr("list recordings by meeting", err)
	}
	defer cursor.Close(ctx)

	recordings := []model.Recording{}
	if err := cursor.All(ctx, &recordings); err != nil {
		return nil, storeErr("decode recordings", err)
	}
	return recordings, nil
}

func (r *mongoRecordings) SetStatus(ctx context.Context, id string, status model.RecordingStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storeErr("update recording status", err)
	}
	if res.MatchedCount == 0 {
		return mserrors.NotFoundf("recording %s", id)
	}
	return nil
}

func (r *mongoRecordings) ResetForProcessing(ctx context.Context, id string) error {
	update := bson.M{
		"$set": bson.M{
			"status":    model.RecordingStatusProcessing,
			"progress":  0,
			"updatedAt": time.Now().UTC(),
		},
		"$unset": bson.M{"errorMessage": ""},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storeErr("reset recording", err)
	}
	if res.MatchedCount == 0 {
		return mserrors.NotFoundf("recording %s", id)
	}
	return nil
}

func (r *mongoRecordings) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storeErr("delete recording", err)
	}
	return nil
}

// --- meetings ---

type mongoMeetings struct {
	coll *mongo.Collection
}

func (m *mongoMeetings) Insert(ctx context.Context, meeting *model.Meeting) (string, error) {
	if meeting.ID == "" {
		meeting.ID = model.NewID()
	}
	if _, err := m.coll.InsertOne(ctx, meeting); err != nil {
		return "", storeErr("insert meeting", err)
	}
	return meeting.ID, nil
}

func (m *mongoMeetings) Get(ctx context.Context, id string) (*model.Meeting, error) {
	var meeting model.Meeting
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&meeting)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mserrors.NotFoundf("meeting %s", id)
	}
	if err != nil {
		return nil, storeErr("find meeting", err)
	}
	return &meeting, nil
}

func (m *mongoMeetings) List(ctx context.Context, limit int) ([]model.Meeting, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "scheduledAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, storeErr("list meetings", err)
	}
	defer cursor.Close(ctx)

	meetings := []model.Meeting{}
	if err := cursor.All(ctx, &meetings); err != nil {
		return nil, storeErr("decode meetings", err)
	}
	return meetings, nil
}

func (m *mongoMeetings) SetFileCount(ctx context.Context, id string, count int) error {
	update := bson.M{"$set": bson.M{"fileCount": count, "updatedAt": time.Now().UTC()}}
	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storeErr("update meeting file count", err)
	}
	if res.MatchedCount == 0 {
		return mserrors.NotFoundf("meeting %s", id)
	}
	return nil
}

func (m *mongoMeetings) Delete(ctx context.Context, id string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storeErr("delete meeting", err)
	}
	return nil
}

// --- processing jobs ---

type mongoJobs struct {
	coll *mongo.Collection
}

func (j *mongoJobs) Insert(ctx context.Context, job *model.ProcessingJob) (string, error) {
	if job.ID == "" {
		job.ID = model.NewID()
	}
	if _, err := j.coll.InsertOne(ctx, job); err != nil {
		return "", storeErr("insert job", err)
	}
	return job.ID, nil
}

func (j *mongoJobs) Get(ctx context.Context, id string) (*model.ProcessingJob, error) {
	var job model.ProcessingJob
	err := j.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mserrors.NotFoundf("job %s", id)
	}
	if err != nil {
		return nil, storeErr("find job", err)
	}
	return &job, nil
}

func (j *mongoJobs) ListByRecording(ctx context.Context, recordingID string) ([]model.ProcessingJob, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := j.coll.Find(ctx, bson.M{"recordingId": recordingID}, findOpts)
	if err != nil {
		return nil, storeErr("list jobs", err)
	}
	defer cursor.Close(ctx)

	jobs := []model.ProcessingJob{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, storeErr("decode jobs", err)
	}
	return jobs, nil
}

func (j *mongoJobs) DeleteByRecording(ctx context.Context, recordingID string) error {
	if _, err := j.coll.DeleteMany(ctx, bson.M{"recordingId": recordingID}); err != nil {
		return storeErr("delete jobs", err)
	}
	return nil
}

// --- speaker segments ---

type mongoSegments struct {
	coll *mongo.Collection
}

func (s *mongoSegments) Insert(ctx context.Context, seg *model.SpeakerSegment) (string, error) {
	if seg.ID == "" {
		seg.ID = model.NewID()
	}
	if _, err := s.coll.InsertOne(ctx, seg); err != nil {
		return "", storeErr("insert segment", err)
	}
	return seg.ID, nil
}

func (s *mongoSegments) Get(ctx context.Context, id string) (*model.SpeakerSegment, error) {
	var seg model.SpeakerSegment
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&seg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mserrors.NotFoundf("segment %s", id)
	}
	if err != nil {
		return nil, storeErr("find segment", err)
	}
	return &seg, nil
}

func (s *mongoSegments) ListByRecording(ctx context.Context, recordingID string, filter SegmentFilter) ([]model.SpeakerSegment, error) {
	query := bson.M{"recordingId": recordingID}
	if filter.SpeakerLabel != "" {
		query["speakerLabel"] = filter.SpeakerLabel
	}
	if filter.IdentifiedSpeakerID != "" {
		query["identifiedSpeakerId"] = filter.IdentifiedSpeakerID
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
	cursor, err := s.coll.Find(ctx, query, findOpts)
	if err != nil {
		return nil, storeErr("list segments", err)
	}
	defer cursor.Close(ctx)

	segments := []model.SpeakerSegment{}
	if err := cursor.All(ctx, &segments); err != nil {
		return nil, storeErr("decode segments", err)
	}
	return segments, nil
}

func (s *mongoSegments) DeleteByRecording(ctx context.Context, recordingID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"recordingId": recordingID}); err != nil {
		return storeErr("delete segments", err)
	}
	return nil
}

// --- speaker tags ---

type mongoTags struct {
	coll *mongo.Collection
}

func (t *mongoTags) Upsert(ctx context.Context, recordingID, speakerLabel, name string) error {
	filter := bson.M{"recordingId": recordingID, "speakerLabel": speakerLabel}
	update := bson.M{
		"$set": bson.M{
			"userAssignedName": name,
			"createdAt":        time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"_id": model.NewID()},
	}
	if _, err := t.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return storeErr("upsert tag", err)
	}
	return nil
}

func (t *mongoTags) ListByRecording(ctx context.Context, recordingID string) ([]model.SpeakerTag, error) {
	cursor, err := t.coll.Find(ctx, bson.M{"recordingId": recordingID})
	if err != nil {
		return nil, storeErr("list tags", err)
	}
	defer cursor.Close(ctx)

	tags := []model.SpeakerTag{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, storeErr("decode tags", err)
	}
	return tags, nil
}

func (t *mongoTags) DeleteByRecording(ctx context.Context, recordingID string) error {
	if _, err := t.coll.DeleteMany(ctx, bson.M{"recordingId": recordingID}); err != nil {
		return storeErr("delete tags", err)
	}
	return nil
}

// --- known speakers ---

type mongoSpeakers struct {
	coll *mongo.Collection
}

func (s *mongoSpeakers) Insert(ctx context.Context, sp *model.KnownSpeaker) (string, error) {
	if sp.ID == "" {
		sp.ID = model.NewID()
	}
	if _, err := s.coll.InsertOne(ctx, sp); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("speaker %q: %w", sp.Name, mserrors.ErrAlreadyExists)
		}
		return "", storeErr("insert speaker", err)
	}
	return sp.ID, nil
}

func (s *mongoSpeakers) Get(ctx context.Context, id string) (*model.KnownSpeaker, error) {
	var sp model.KnownSpeaker
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mserrors.NotFoundf("speaker %s", id)
	}
	if err != nil {
		return nil, storeErr("find speaker", err)
	}
	return &sp, nil
}

func (s *mongoSpeakers) List(ctx context.Context) ([]model.KnownSpeaker, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, storeErr("list speakers", err)
	}
	defer cursor.Close(ctx)

	speakers := []model.KnownSpeaker{}
	if err := cursor.All(ctx, &speakers); err != nil {
		return nil, storeErr("decode speakers", err)
	}
	return speakers, nil
}

func (s *mongoSpeakers) Update(ctx context.Context, id string, update SpeakerUpdate) (*model.KnownSpeaker, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sp model.KnownSpeaker
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mserrors.NotFoundf("speaker %s", id)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("speaker name taken: %w", mserrors.ErrAlreadyExists)
		}
		return nil, storeErr("update speaker", err)
	}
	return &sp, nil
}

func (s *mongoSpeakers) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storeErr("delete speaker", err)
	}
	return nil
}
