package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
)

// Memory is an in-memory implementation of all repositories. It mirrors the
// semantics of the Mongo implementation (per-document atomicity, no
// cross-collection transactions) and is used in tests and local development.
type Memory struct {
	Recordings *MemoryRecordings
	Meetings   *MemoryMeetings
	Jobs       *MemoryJobs
	Segments   *MemorySegments
	Tags       *MemoryTags
	Speakers   *MemorySpeakers
}

// NewMemory builds an empty in-memory store set.
func NewMemory() *Memory {
	return &Memory{
		Recordings: &MemoryRecordings{docs: map[string]model.Recording{}},
		Meetings:   &MemoryMeetings{docs: map[string]model.Meeting{}},
		Jobs:       &MemoryJobs{docs: map[string]model.ProcessingJob{}},
		Segments:   &MemorySegments{docs: map[string]model.SpeakerSegment{}},
		Tags:       &MemoryTags{docs: map[string]model.SpeakerTag{}},
		Speakers:   &MemorySpeakers{docs: map[string]model.KnownSpeaker{}},
	}
}

// Stores returns the repository set backed by this memory store.
func (m *Memory) Stores() *Stores {
	return &Stores{
		Recordings: m.Recordings,
		Meetings:   m.Meetings,
		Jobs:       m.Jobs,
		Segments:   m.Segments,
		Tags:       m.Tags,
		Speakers:   m.Speakers,
	}
}

// seqCounter breaks createdAt ties so newest-first ordering is stable even
// when documents are created within the same clock tick.
type seqCounter struct {
	mu  sync.Mutex
	seq map[string]int64
	n   int64
}

func (c *seqCounter) note(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == nil {
		c.seq = map[string]int64{}
	}
	c.n++
	c.seq[id] = c.n
}

func (c *seqCounter) of(id string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq[id]
}

// --- recordings ---

// MemoryRecordings is the in-memory recording repository.
type MemoryRecordings struct {
	mu   sync.RWMutex
	docs map[string]model.Recording
	seq  seqCounter
}

func (r *MemoryRecordings) Insert(ctx context.Context, rec *model.Recording) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	r.docs[rec.ID] = *rec
	r.seq.note(rec.ID)
	return rec.ID, nil
}

func (r *MemoryRecordings) Get(ctx context.Context, id string) (*model.Recording, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.docs[id]
	if !ok {
		return nil, mserrors.NotFoundf("recording %s", id)
	}
	return &rec, nil
}

func (r *MemoryRecordings) List(ctx context.Context, opts ListRecordingsOptions) (*RecordingList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	matched := []model.Recording{}
	for _, rec := range r.docs {
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		matched = append(matched, rec)
	}
	r.sortNewestFirst(matched)

	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return &RecordingList{Recordings: []model.Recording{}, Total: total}, nil
	}
	matched = matched[opts.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return &RecordingList{Recordings: matched, Total: total}, nil
}

func (r *MemoryRecordings) ListByMeetings(ctx context.Context, meetingIDs []string) ([]model.Recording, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := map[string]bool{}
	for _, id := range meetingIDs {
		wanted[id] = true
	}

	matched := []model.Recording{}
	for _, rec := range r.docs {
		if rec.MeetingID != "" && wanted[rec.MeetingID] {
			matched = append(matched, rec)
		}
	}
	r.sortNewestFirst(matched)
	return matched, nil
}

func (r *MemoryRecordings) sortNewestFirst(recs []model.Recording) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return r.seq.of(recs[i].ID) > r.seq.of(recs[j].ID)
	})
}

func (r *MemoryRecordings) SetStatus(ctx context.Context, id string, status model.RecordingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.docs[id]
	if !ok {
		return mserrors.NotFoundf("recording %s", id)
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	r.docs[id] = rec
	return nil
}

func (r *MemoryRecordings) ResetForProcessing(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.docs[id]
	if !ok {
		return mserrors.NotFoundf("recording %s", id)
	}
	rec.Status = model.RecordingStatusProcessing
	rec.Progress = 0
	rec.ErrorMessage = ""
	rec.UpdatedAt = time.Now().UTC()
	r.docs[id] = rec
	return nil
}

func (r *MemoryRecordings) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

// Put replaces a recording document directly. Test helper standing in for
// worker-side writes.
func (r *MemoryRecordings) Put(rec model.Recording) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[rec.ID] = rec
}

// --- meetings ---

// MemoryMeetings is the in-memory meeting repository.
type MemoryMeetings struct {
	mu   sync.RWMutex
	docs map[string]model.Meeting
}

func (m *MemoryMeetings) Insert(ctx context.Context, meeting *model.Meeting) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meeting.ID == "" {
		meeting.ID = model.NewID()
	}
	m.docs[meeting.ID] = *meeting
	return meeting.ID, nil
}

func (m *MemoryMeetings) Get(ctx context.Context, id string) (*model.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meeting, ok := m.docs[id]
	if !ok {
		return nil, mserrors.NotFoundf("meeting %s", id)
	}
	return &meeting, nil
}

func (m *MemoryMeetings) List(ctx context.Context, limit int) ([]model.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultListLimit
	}

	meetings := []model.Meeting{}
	for _, meeting := range m.docs {
		meetings = append(meetings, meeting)
	}
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].ScheduledAt.After(meetings[j].ScheduledAt)
	})
	if len(meetings) > limit {
		meetings = meetings[:limit]
	}
	return meetings, nil
}

func (m *MemoryMeetings) SetFileCount(ctx context.Context, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.docs[id]
	if !ok {
		return mserrors.NotFoundf("meeting %s", id)
	}
	meeting.FileCount = count
	meeting.UpdatedAt = time.Now().UTC()
	m.docs[id] = meeting
	return nil
}

func (m *MemoryMeetings) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// Count returns the number of stored meetings. Test helper.
func (m *MemoryMeetings) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// --- processing jobs ---

// MemoryJobs is the in-memory processing job repository.
type MemoryJobs struct {
	mu   sync.RWMutex
	docs map[string]model.ProcessingJob
	seq  seqCounter
}

func (j *MemoryJobs) Insert(ctx context.Context, job *model.ProcessingJob) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if job.ID == "" {
		job.ID = model.NewID()
	}
	j.docs[job.ID] = cloneJob(*job)
	j.seq.note(job.ID)
	return job.ID, nil
}

func (j *MemoryJobs) Get(ctx context.Context, id string) (*model.ProcessingJob, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	job, ok := j.docs[id]
	if !ok {
		return nil, mserrors.NotFoundf("job %s", id)
	}
	out := cloneJob(job)
	return &out, nil
}

func (j *MemoryJobs) ListByRecording(ctx context.Context, recordingID string) ([]model.ProcessingJob, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	jobs := []model.ProcessingJob{}
	for _, job := range j.docs {
		if job.RecordingID == recordingID {
			jobs = append(jobs, cloneJob(job))
		}
	}
	sort.Slice(jobs, func(i, k int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
		}
		return j.seq.of(jobs[i].ID) > j.seq.of(jobs[k].ID)
	})
	return jobs, nil
}

func (j *MemoryJobs) DeleteByRecording(ctx context.Context, recordingID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for id, job := range j.docs {
		if job.RecordingID == recordingID {
			delete(j.docs, id)
		}
	}
	return nil
}

// Put replaces a job document directly, standing in for the external
// worker's progress writes in tests.
func (j *MemoryJobs) Put(job model.ProcessingJob) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.docs[job.ID] = cloneJob(job)
}

// Remove deletes a job document directly. Test helper.
func (j *MemoryJobs) Remove(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.docs, id)
}

func cloneJob(job model.ProcessingJob) model.ProcessingJob {
	steps := make([]model.JobStep, len(job.Steps))
	copy(steps, job.Steps)
	job.Steps = steps
	return job
}

// --- speaker segments ---

// MemorySegments is the in-memory segment repository.
type MemorySegments struct {
	mu   sync.RWMutex
	docs map[string]model.SpeakerSegment
}

func (s *MemorySegments) Insert(ctx context.Context, seg *model.SpeakerSegment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seg.ID == "" {
		seg.ID = model.NewID()
	}
	s.docs[seg.ID] = *seg
	return seg.ID, nil
}

func (s *MemorySegments) Get(ctx context.Context, id string) (*model.SpeakerSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.docs[id]
	if !ok {
		return nil, mserrors.NotFoundf("segment %s", id)
	}
	return &seg, nil
}

func (s *MemorySegments) ListByRecording(ctx context.Context, recordingID string, filter SegmentFilter) ([]model.SpeakerSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := []model.SpeakerSegment{}
	for _, seg := range s.docs {
		if seg.RecordingID != recordingID {
			continue
		}
		if filter.SpeakerLabel != "" && seg.SpeakerLabel != filter.SpeakerLabel {
			continue
		}
		if filter.IdentifiedSpeakerID != "" && seg.IdentifiedSpeakerID != filter.IdentifiedSpeakerID {
			continue
		}
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].StartTime.Before(segments[j].StartTime)
	})
	return segments, nil
}

func (s *MemorySegments) DeleteByRecording(ctx context.Context, recordingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, seg := range s.docs {
		if seg.RecordingID == recordingID {
			delete(s.docs, id)
		}
	}
	return nil
}

// --- speaker tags ---

// MemoryTags is the in-memory speaker tag repository.
type MemoryTags struct {
	mu   sync.RWMutex
	docs map[string]model.SpeakerTag
}

func (t *MemoryTags) Upsert(ctx context.Context, recordingID, speakerLabel, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, tag := range t.docs {
		if tag.RecordingID == recordingID && tag.SpeakerLabel == speakerLabel {
			tag.UserAssignedName = name
			tag.CreatedAt = time.Now().UTC()
			t.docs[id] = tag
			return nil
		}
	}
	id := model.NewID()
	t.docs[id] = model.SpeakerTag{
		ID:               id,
		RecordingID:      recordingID,
		SpeakerLabel:     speakerLabel,
		UserAssignedName: name,
		CreatedAt:        time.Now().UTC(),
	}
	return nil
}

func (t *MemoryTags) ListByRecording(ctx context.Context, recordingID string) ([]model.SpeakerTag, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tags := []model.SpeakerTag{}
	for _, tag := range t.docs {
		if tag.RecordingID == recordingID {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].SpeakerLabel < tags[j].SpeakerLabel
	})
	return tags, nil
}

func (t *MemoryTags) DeleteByRecording(ctx context.Context, recordingID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, tag := range t.docs {
		if tag.RecordingID == recordingID {
			delete(t.docs, id)
		}
	}
	return nil
}

// --- known speakers ---

// MemorySpeakers is the in-memory known speaker repository.
type MemorySpeakers struct {
	mu   sync.RWMutex
	docs map[string]model.KnownSpeaker
}

func (s *MemorySpeakers) Insert(ctx context.Context, sp *model.KnownSpeaker) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.Name == sp.Name {
			return "", fmt.Errorf("speaker %q: %w", sp.Name, mserrors.ErrAlreadyExists)
		}
	}
	if sp.ID == "" {
		sp.ID = model.NewID()
	}
	s.docs[sp.ID] = *sp
	return sp.ID, nil
}

func (s *MemorySpeakers) Get(ctx context.Context, id string) (*model.KnownSpeaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.docs[id]
	if !ok {
		return nil, mserrors.NotFoundf("speaker %s", id)
	}
	return &sp, nil
}

func (s *MemorySpeakers) List(ctx context.Context) ([]model.KnownSpeaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	speakers := []model.KnownSpeaker{}
	for _, sp := range s.docs {
		speakers = append(speakers, sp)
	}
	sort.Slice(speakers, func(i, j int) bool {
		return speakers[i].Name < speakers[j].Name
	})
	return speakers, nil
}

func (s *MemorySpeakers) Update(ctx context.Context, id string, update SpeakerUpdate) (*model.KnownSpeaker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.docs[id]
	if !ok {
		return nil, mserrors.NotFoundf("speaker %s", id)
	}
	if update.Name != nil {
		for otherID, other := range s.docs {
			if otherID != id && other.Name == *update.Name {
				return nil, fmt.Errorf("speaker name taken: %w", mserrors.ErrAlreadyExists)
			}
		}
		sp.Name = *update.Name
	}
	if update.Description != nil {
		sp.Description = *update.Description
	}
	sp.UpdatedAt = time.Now().UTC()
	s.docs[id] = sp
	return &sp, nil
}

func (s *MemorySpeakers) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// Interface compliance checks.
var (
	_ Recordings = (*MemoryRecordings)(nil)
	_ Meetings   = (*MemoryMeetings)(nil)
	_ Jobs       = (*MemoryJobs)(nil)
	_ Segments   = (*MemorySegments)(nil)
	_ Tags       = (*MemoryTags)(nil)
	_ Speakers   = (*MemorySpeakers)(nil)

	_ Recordings = (*mongoRecordings)(nil)
	_ Meetings   = (*mongoMeetings)(nil)
	_ Jobs       = (*mongoJobs)(nil)
	_ Segments   = (*mongoSegments)(nil)
	_ Tags       = (*mongoTags)(nil)
	_ Speakers   = (*mongoSpeakers)(nil)
)
