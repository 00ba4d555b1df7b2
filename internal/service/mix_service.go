package service

import (
	"context"
	"fmt"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/queue"
	"github.com/audiosplit/api/internal/registry"
)

// MixService accepts multi-track mix submissions.
type MixService struct {
	registry   registry.Store
	dispatcher queue.Dispatcher
}

func NewMixService(reg registry.Store, dispatcher queue.Dispatcher) *MixService {
	return &MixService{
		registry:   reg,
		dispatcher: dispatcher,
	}
}

// Start registers a mix job over the already-saved uploads and schedules it.
// Arity and extension validation happened at the HTTP boundary; by the time
// a job exists the inputs are accepted.
func (s *MixService) Start(ctx context.Context, uploadPaths []string) (*model.Job, error) {
	job, err := s.registry.Create(ctx, model.JobKindMix)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	task, err := queue.NewTask(queue.TaskTypeMix, job.ID, model.MixJobPayload{
		InputPaths: uploadPaths,
	})
	if err != nil {
		return nil, failCreated(ctx, s.registry, job.ID, err)
	}

	if err := s.dispatcher.Dispatch(ctx, task, queue.QueueMix); err != nil {
		return nil, failCreated(ctx, s.registry, job.ID, err)
	}

	return job, nil
}
