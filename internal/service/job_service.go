package service

import (
	"context"
	"log"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/registry"
)

// JobService answers status polls for all job kinds.
type JobService struct {
	registry registry.Store
}

func NewJobService(reg registry.Store) *JobService {
	return &JobService{registry: reg}
}

// GetJob returns the job record for id, or registry.ErrNotFound.
func (s *JobService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return s.registry.Get(ctx, id)
}

// failCreated marks a just-created job failed when scheduling could not
// happen, so the record never sits in processing with no worker coming.
// The original error is returned for the caller.
func failCreated(ctx context.Context, reg registry.Store, jobID string, err error) error {
	if failErr := reg.Fail(ctx, jobID, err.Error()); failErr != nil {
		log.Printf("Failed to mark job %s as failed: %v", jobID, failErr)
	}
	return err
}
