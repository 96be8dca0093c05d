// Package speakers manages known-speaker enrollment and per-recording
// speaker tagging.
package speakers

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/events"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
	"github.com/otherjamesbrown/meetscribe/pkg/storage"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

// Service handles speaker enrollment, updates and tagging.
type Service struct {
	stores   *store.Stores
	files    *storage.FileStore
	notifier events.Notifier
	logger   logging.Logger
}

// NewService creates a speaker service.
func NewService(stores *store.Stores, files *storage.FileStore, notifier events.Notifier, logger logging.Logger) *Service {
	return &Service{
		stores:   stores,
		files:    files,
		notifier: notifier,
		logger:   logger.With(logging.F("component", "speakers")),
	}
}

// Enroll registers a new known speaker from a voice sample. The name must be
// globally unique; the worker computes the embedding from the stored sample.
func (s *Service) Enroll(ctx context.Context, name, description, sampleFilename string, sample []byte) (*model.KnownSpeaker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, mserrors.Validationf("name", "speaker name is required")
	}
	if len(sample) == 0 {
		return nil, mserrors.Validationf("sample", "voice sample is required")
	}

	ext := strings.ToLower(filepath.Ext(sampleFilename))
	if ext == "" {
		ext = ".wav"
	}
	path, err := s.files.Save(sample, uuid.New().String()+ext, storage.CategorySpeakers)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sp := &model.KnownSpeaker{
		Name:            name,
		Description:     description,
		SampleAudioPath: path,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	id, err := s.stores.Speakers.Insert(ctx, sp)
	if err != nil {
		// The document did not land; don't leave the sample behind.
		if delErr := s.files.Delete(path); delErr != nil {
			s.logger.Warn("Failed to remove orphaned voice sample",
				logging.Err(delErr),
				logging.F("path", path))
		}
		return nil, err
	}
	sp.ID = id

	if err := s.notifier.PublishSpeakerEnrolled(ctx, sp); err != nil {
		s.logger.Warn("Failed to publish speaker enrolled event",
			logging.Err(err),
			logging.F("speaker_id", id))
	}

	s.logger.Info("Speaker enrolled",
		logging.F("speaker_id", id),
		logging.F("name", name))
	return sp, nil
}

// Get returns a known speaker.
func (s *Service) Get(ctx context.Context, id string) (*model.KnownSpeaker, error) {
	return s.stores.Speakers.Get(ctx, id)
}

// List returns all known speakers sorted by name.
func (s *Service) List(ctx context.Context) ([]model.KnownSpeaker, error) {
	return s.stores.Speakers.List(ctx)
}

// Update applies a partial update to a speaker. A new name must still be
// unique.
func (s *Service) Update(ctx context.Context, id string, update store.SpeakerUpdate) (*model.KnownSpeaker, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, mserrors.Validationf("name", "speaker name must not be empty")
	}
	return s.stores.Speakers.Update(ctx, id, update)
}

// Delete removes a speaker and its associated files. File cleanup is
// best-effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	sp, err := s.stores.Speakers.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.stores.Speakers.Delete(ctx, id); err != nil {
		return err
	}

	for _, path := range []string{sp.SampleAudioPath, sp.EmbeddingPath} {
		if err := s.files.Delete(path); err != nil {
			s.logger.Warn("Failed to delete speaker file",
				logging.Err(err),
				logging.F("path", path))
		}
	}

	s.logger.Info("Speaker deleted",
		logging.F("speaker_id", id),
		logging.F("name", sp.Name))
	return nil
}

// TagSegment assigns a display name to the speaker label of the given
// segment, within that segment's recording. Tagging the same label twice
// keeps one tag with the latest name.
func (s *Service) TagSegment(ctx context.Context, segmentID, name string) (*model.SpeakerTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, mserrors.Validationf("name", "tag name is required")
	}

	seg, err := s.stores.Segments.Get(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Tags.Upsert(ctx, seg.RecordingID, seg.SpeakerLabel, name); err != nil {
		return nil, err
	}

	s.logger.Info("Speaker tagged",
		logging.F("recording_id", seg.RecordingID),
		logging.F("speaker_label", seg.SpeakerLabel))
	return &model.SpeakerTag{
		RecordingID:      seg.RecordingID,
		SpeakerLabel:     seg.SpeakerLabel,
		UserAssignedName: name,
	}, nil
}
