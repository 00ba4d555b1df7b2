package worker

import (
	"context"
	"log"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/separation"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/internal/websocket"
)

// SeparationWorker runs stem-separation jobs.
type SeparationWorker struct {
	registry  registry.Store
	separator separation.Separator
	paths     storage.Paths
	hub       *websocket.Hub
}

func NewSeparationWorker(reg registry.Store, separator separation.Separator, paths storage.Paths, hub *websocket.Hub) *SeparationWorker {
	return &SeparationWorker{
		registry:  reg,
		separator: separator,
		paths:     paths,
		hub:       hub,
	}
}

// ProcessTask separates the uploaded file into stems in the job's output
// directory and records their names as the job result.
func (w *SeparationWorker) ProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	var payload model.SeparationJobPayload
	jobID, err := parseTask(t, &payload)
	if err != nil {
		if jobID != "" {
			failJob(ctx, w.registry, w.hub, jobID, "invalid task payload")
		}
		return err
	}
	defer recoverJobPanic(ctx, w.registry, w.hub, jobID, &err)

	log.Printf("Starting separation job: %s", jobID)

	stems, err := w.separator.Separate(ctx, payload.InputPath, w.paths.SeparationDir(jobID))
	if err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}

	names := make([]string, 0, len(stems))
	for _, stem := range stems {
		names = append(names, filepath.Base(stem.Path))
	}

	if err := completeJob(ctx, w.registry, w.hub, jobID, model.JobResult{Stems: names}); err != nil {
		return err
	}

	log.Printf("Separation job %s completed with %d stems", jobID, len(names))
	return nil
}
