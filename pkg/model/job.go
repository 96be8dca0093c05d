package model

import "time"

// JobType identifies the pipeline run kind.
type JobType string

const (
	JobTypeDiarization    JobType = "diarization"
	JobTypeIdentification JobType = "identification"
	JobTypeTranscription  JobType = "transcription"
	JobTypeFull           JobType = "full"
)

// JobStatus is the overall status of a processing job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the job status is terminal.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// StepStatus is the status of a single pipeline step.
type StepStatus string

const (
	StepStatusQueued    StepStatus = "queued"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// Terminal reports whether the step status is terminal.
func (s StepStatus) Terminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed
}

// CanTransition reports whether a step may move from s to next.
// Legal transitions: queued -> running -> {completed, failed}.
func (s StepStatus) CanTransition(next StepStatus) bool {
	switch s {
	case StepStatusQueued:
		return next == StepStatusRunning
	case StepStatusRunning:
		return next == StepStatusCompleted || next == StepStatusFailed
	default:
		return false
	}
}

// StepName identifies one pipeline stage.
type StepName string

const (
	StepDiarization    StepName = "diarization"
	StepIdentification StepName = "identification"
	StepTranscription  StepName = "transcription"
)

// StepOrder is the fixed pipeline stage order. A step may only leave queued
// after all preceding steps reach completed; the worker enforces this, the
// server validates and displays.
var StepOrder = []StepName{StepDiarization, StepIdentification, StepTranscription}

// JobStep is one pipeline stage embedded in a ProcessingJob.
type JobStep struct {
	Name        StepName   `bson:"name" json:"name"`
	Status      StepStatus `bson:"status" json:"status"`
	Progress    int        `bson:"progress" json:"progress"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// ProcessingJob is one pipeline run for a recording.
//
// Language and speaker count parameters are copied from the recording at
// creation so reprocessing stays parameter-stable regardless of later edits.
type ProcessingJob struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	RecordingID  string     `bson:"recordingId" json:"recordingId"`
	JobType      JobType    `bson:"jobType" json:"jobType"`
	Status       JobStatus  `bson:"status" json:"status"`
	Progress     int        `bson:"progress" json:"progress"`
	ErrorMessage string     `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	Language     string     `bson:"language,omitempty" json:"language,omitempty"`
	MinSpeakers  int        `bson:"minSpeakers,omitempty" json:"minSpeakers,omitempty"`
	MaxSpeakers  int        `bson:"maxSpeakers,omitempty" json:"maxSpeakers,omitempty"`
	Steps        []JobStep  `bson:"steps" json:"steps"`
	StartedAt    *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt  *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
}

// JobParams are the analysis parameters carried by a job.
type JobParams struct {
	Language    string
	MinSpeakers int
	MaxSpeakers int
}

// NewProcessingJob builds a queued job for the given recording with the fixed
// three-step list, all queued.
func NewProcessingJob(recordingID string, jobType JobType, params JobParams) *ProcessingJob {
	steps := make([]JobStep, 0, len(StepOrder))
	for _, name := range StepOrder {
		steps = append(steps, JobStep{
			Name:     name,
			Status:   StepStatusQueued,
			Progress: 0,
		})
	}
	return &ProcessingJob{
		RecordingID: recordingID,
		JobType:     jobType,
		Status:      JobStatusQueued,
		Progress:    0,
		Language:    params.Language,
		MinSpeakers: params.MinSpeakers,
		MaxSpeakers: params.MaxSpeakers,
		Steps:       steps,
		CreatedAt:   time.Now().UTC(),
	}
}

// DeriveJobStatus aggregates step statuses into a job status:
// failed if any step failed, completed iff all steps completed,
// running if any step is running, queued otherwise.
func DeriveJobStatus(steps []JobStep) JobStatus {
	if len(steps) == 0 {
		return JobStatusQueued
	}
	allCompleted := true
	anyRunning := false
	for _, s := range steps {
		switch s.Status {
		case StepStatusFailed:
			return JobStatusFailed
		case StepStatusRunning:
			anyRunning = true
			allCompleted = false
		case StepStatusQueued:
			allCompleted = false
		}
	}
	if allCompleted {
		return JobStatusCompleted
	}
	if anyRunning {
		return JobStatusRunning
	}
	return JobStatusQueued
}

// DeriveJobProgress aggregates step progress into overall job progress:
// the average of step progress for steps at or before the first non-completed
// step. A fully completed job reports 100.
func DeriveJobProgress(steps []JobStep) int {
	if len(steps) == 0 {
		return 0
	}
	upto := len(steps)
	for i, s := range steps {
		if s.Status != StepStatusCompleted {
			upto = i + 1
			break
		}
	}
	total := 0
	for _, s := range steps[:upto] {
		total += s.Progress
	}
	return total / upto
}

// ValidateStepOrder checks the worker-side invariant that a step has only
// left queued when all preceding steps are completed. The server never
// enforces transitions (they originate in the worker); this is used to flag
// inconsistent documents when displaying them.
func ValidateStepOrder(steps []JobStep) bool {
	for i, s := range steps {
		if s.Status == StepStatusQueued {
			continue
		}
		for _, prev := range steps[:i] {
			if prev.Status != StepStatusCompleted {
				return false
			}
		}
	}
	return true
}
