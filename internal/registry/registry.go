package registry

import (
	"context"
	"errors"

	"github.com/audiosplit/api/internal/model"
)

var (
	// ErrNotFound is returned when no job exists for the given id.
	ErrNotFound = errors.New("job not found")

	// ErrTerminal is returned when a terminal transition is attempted on a
	// job that already reached a terminal state. Correct orchestration makes
	// exactly one terminal call per job, so seeing this error means a bug.
	ErrTerminal = errors.New("job already in terminal state")
)

// Store tracks job lifecycle state. It is the only shared mutable state
// between the submission path and the workers, and every implementation must
// be safe under concurrent use.
type Store interface {
	// Create registers a fresh job in processing state and returns it.
	// The id is assigned atomically with registration: a poller can never
	// observe an id that Create returned but Get does not know.
	Create(ctx context.Context, kind model.JobKind) (*model.Job, error)

	// Get returns the job for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)

	// Complete transitions the job to done and records its result.
	Complete(ctx context.Context, id string, result model.JobResult) error

	// Fail transitions the job to error and records the message.
	Fail(ctx context.Context, id string, message string) error
}
