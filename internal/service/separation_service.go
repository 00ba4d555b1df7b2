package service

import (
	"context"
	"fmt"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/queue"
	"github.com/audiosplit/api/internal/registry"
)

// SeparationService accepts stem-separation submissions.
type SeparationService struct {
	registry   registry.Store
	dispatcher queue.Dispatcher
}

func NewSeparationService(reg registry.Store, dispatcher queue.Dispatcher) *SeparationService {
	return &SeparationService{
		registry:   reg,
		dispatcher: dispatcher,
	}
}

// Start registers a separation job for an already-saved upload and schedules
// it. It returns before the separation has started.
func (s *SeparationService) Start(ctx context.Context, uploadPath string) (*model.Job, error) {
	job, err := s.registry.Create(ctx, model.JobKindSeparation)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	task, err := queue.NewTask(queue.TaskTypeSeparation, job.ID, model.SeparationJobPayload{
		InputPath: uploadPath,
	})
	if err != nil {
		return nil, failCreated(ctx, s.registry, job.ID, err)
	}

	if err := s.dispatcher.Dispatch(ctx, task, queue.QueueSeparation); err != nil {
		return nil, failCreated(ctx, s.registry, job.ID, err)
	}

	return job, nil
}
