package service

import (
	"context"
	"fmt"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/queue"
	"github.com/audiosplit/api/internal/registry"
)

// KaraokeService accepts vocal-removal submissions.
type KaraokeService struct {
	registry   registry.Store
	dispatcher queue.Dispatcher
}

func NewKaraokeService(reg registry.Store, dispatcher queue.Dispatcher) *KaraokeService {
	return &KaraokeService{
		registry:   reg,
		dispatcher: dispatcher,
	}
}

// Start registers a karaoke job for an already-saved upload and schedules it.
func (s *KaraokeService) Start(ctx context.Context, uploadPath string) (*model.Job, error) {
	job, err := s.registry.Create(ctx, model.JobKindKaraoke)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	task, err := queue.NewTask(queue.TaskTypeKaraoke, job.ID, model.KaraokeJobPayload{
		InputPath: uploadPath,
	})
	if err != nil {
		return nil, failCreated(ctx, s.registry, job.ID, err)
	}

	if err := s.dispatcher.Dispatch(ctx, task, queue.QueueKaraoke); err != nil {
		return nil, failCreated(ctx, s.registry, job.ID, err)
	}

	return job, nil
}
