// Package events provides event publishing for the processing pipeline.
// The external analysis worker subscribes to these channels to pick up
// queued jobs without polling the job collection on a tight loop.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/meetscribe/config"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
)

// Redis channels for pipeline events.
const (
	ChannelJobQueued        = "events.processing_job.queued"
	ChannelRecordingDeleted = "events.recording.deleted"
	ChannelSpeakerEnrolled  = "events.known_speaker.enrolled"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with sensible defaults.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "meetscribe",
		Version:   "1.0",
	}
}

// JobQueuedEvent is published when a processing job is created, at upload or
// reprocess time.
type JobQueuedEvent struct {
	BaseEvent

	JobID       string        `json:"job_id"`
	RecordingID string        `json:"recording_id"`
	JobType     model.JobType `json:"job_type"`
	Language    string        `json:"language,omitempty"`
	MinSpeakers int           `json:"min_speakers,omitempty"`
	MaxSpeakers int           `json:"max_speakers,omitempty"`
	Reprocess   bool          `json:"reprocess"`
}

// RecordingDeletedEvent is published after a recording and its owned
// documents are removed, so the worker can drop any in-flight work.
type RecordingDeletedEvent struct {
	BaseEvent

	RecordingID string `json:"recording_id"`
}

// SpeakerEnrolledEvent is published when a known speaker is enrolled, so the
// worker can compute the voice embedding from the sample audio.
type SpeakerEnrolledEvent struct {
	BaseEvent

	SpeakerID       string `json:"speaker_id"`
	Name            string `json:"name"`
	SampleAudioPath string `json:"sample_audio_path"`
}

// Notifier publishes pipeline events. The zero-dependency nop implementation
// is used when Redis is disabled and in tests.
type Notifier interface {
	PublishJobQueued(ctx context.Context, event JobQueuedEvent) error
	PublishRecordingDeleted(ctx context.Context, recordingID string) error
	PublishSpeakerEnrolled(ctx context.Context, speaker *model.KnownSpeaker) error
}

// Publisher publishes pipeline events to Redis.
type Publisher struct {
	client *redis.Client
	logger logging.Logger
}

// NewPublisher creates a new event publisher over an existing client.
func NewPublisher(client *redis.Client, logger logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis connection and
// verifies it with a ping.
func NewPublisherFromConfig(cfg config.RedisConfig, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewPublisher(client, logger), nil
}

// PublishJobQueued publishes a job-queued event.
func (p *Publisher) PublishJobQueued(ctx context.Context, event JobQueuedEvent) error {
	event.BaseEvent = NewBaseEvent("processing_job.queued")
	return p.publish(ctx, ChannelJobQueued, event)
}

// PublishRecordingDeleted publishes a recording-deleted event.
func (p *Publisher) PublishRecordingDeleted(ctx context.Context, recordingID string) error {
	event := RecordingDeletedEvent{
		BaseEvent:   NewBaseEvent("recording.deleted"),
		RecordingID: recordingID,
	}
	return p.publish(ctx, ChannelRecordingDeleted, event)
}

// PublishSpeakerEnrolled publishes a speaker-enrolled event.
func (p *Publisher) PublishSpeakerEnrolled(ctx context.Context, speaker *model.KnownSpeaker) error {
	event := SpeakerEnrolledEvent{
		BaseEvent:       NewBaseEvent("known_speaker.enrolled"),
		SpeakerID:       speaker.ID,
		Name:            speaker.Name,
		SampleAudioPath: speaker.SampleAudioPath,
	}
	return p.publish(ctx, ChannelSpeakerEnrolled, event)
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// nopNotifier discards all events.
type nopNotifier struct{}

func (nopNotifier) PublishJobQueued(ctx context.Context, event JobQueuedEvent) error { return nil }
func (nopNotifier) PublishRecordingDeleted(ctx context.Context, recordingID string) error {
	return nil
}
func (nopNotifier) PublishSpeakerEnrolled(ctx context.Context, speaker *model.KnownSpeaker) error {
	return nil
}

// NewNopNotifier returns a Notifier that discards all events.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

var _ Notifier = (*Publisher)(nil)
