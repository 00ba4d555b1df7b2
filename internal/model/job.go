package model

import "time"

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// JobKind identifies what a job produces.
type JobKind string

const (
	JobKindSeparation JobKind = "separation"
	JobKindMix        JobKind = "mix"
	JobKindKaraoke    JobKind = "karaoke"
)

// Job represents a background job in the system.
//
// Once Status is terminal, exactly one of the result fields
// (Stems for separation, Output for mix/karaoke) or Error is set.
type Job struct {
	ID          string     `json:"id"`
	Kind        JobKind    `json:"kind"`
	Status      JobStatus  `json:"status"`
	Stems       []string   `json:"stems,omitempty"`
	Output      string     `json:"output,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// JobResult is the successful outcome a worker reports back.
type JobResult struct {
	Stems  []string
	Output string
}

// SeparationJobPayload contains the data for a separation job.
type SeparationJobPayload struct {
	InputPath string `json:"inputPath"`
}

// MixJobPayload contains the data for a mix job.
type MixJobPayload struct {
	InputPaths []string `json:"inputPaths"`
}

// KaraokeJobPayload contains the data for a karaoke job.
type KaraokeJobPayload struct {
	InputPath string `json:"inputPath"`
}

// EnqueueResponse is returned by every submission endpoint.
type EnqueueResponse struct {
	JobID string `json:"job_id"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status string `json:"status"`
}
