package worker

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/audiosplit/api/internal/audio"
	"github.com/audiosplit/api/internal/engine"
	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/internal/websocket"
)

// MixWorker runs multi-track mix jobs.
type MixWorker struct {
	registry registry.Store
	paths    storage.Paths
	hub      *websocket.Hub
}

func NewMixWorker(reg registry.Store, paths storage.Paths, hub *websocket.Hub) *MixWorker {
	return &MixWorker{
		registry: reg,
		paths:    paths,
		hub:      hub,
	}
}

// ProcessTask decodes every input, mixes them by averaging and writes the
// single mixed.wav artifact into the job's output directory.
func (w *MixWorker) ProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	var payload model.MixJobPayload
	jobID, err := parseTask(t, &payload)
	if err != nil {
		if jobID != "" {
			failJob(ctx, w.registry, w.hub, jobID, "invalid task payload")
		}
		return err
	}
	defer recoverJobPanic(ctx, w.registry, w.hub, jobID, &err)

	log.Printf("Starting mix job: %s (%d tracks)", jobID, len(payload.InputPaths))

	buffers := make([]*audio.Buffer, 0, len(payload.InputPaths))
	for _, path := range payload.InputPaths {
		buf, readErr := audio.ReadFile(path)
		if readErr != nil {
			failJob(ctx, w.registry, w.hub, jobID, readErr.Error())
			return readErr
		}
		buffers = append(buffers, buf)
	}

	mixed, err := engine.Mix(buffers)
	if err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}

	outDir := w.paths.MixedDir(jobID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}
	if err := audio.WriteWAV(filepath.Join(outDir, storage.MixedFileName), mixed); err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}

	if err := completeJob(ctx, w.registry, w.hub, jobID, model.JobResult{Output: storage.MixedFileName}); err != nil {
		return err
	}

	log.Printf("Mix job %s completed", jobID)
	return nil
}
