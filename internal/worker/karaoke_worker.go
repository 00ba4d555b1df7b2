package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/audiosplit/api/internal/audio"
	"github.com/audiosplit/api/internal/engine"
	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/separation"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/internal/websocket"
)

// KaraokeWorker runs vocal-removal jobs: separate, drop the vocals stem,
// sum the rest back together.
type KaraokeWorker struct {
	registry  registry.Store
	separator separation.Separator
	paths     storage.Paths
	hub       *websocket.Hub
}

func NewKaraokeWorker(reg registry.Store, separator separation.Separator, paths storage.Paths, hub *websocket.Hub) *KaraokeWorker {
	return &KaraokeWorker{
		registry:  reg,
		separator: separator,
		paths:     paths,
		hub:       hub,
	}
}

func (w *KaraokeWorker) ProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	var payload model.KaraokeJobPayload
	jobID, err := parseTask(t, &payload)
	if err != nil {
		if jobID != "" {
			failJob(ctx, w.registry, w.hub, jobID, "invalid task payload")
		}
		return err
	}
	defer recoverJobPanic(ctx, w.registry, w.hub, jobID, &err)

	log.Printf("Starting karaoke job: %s", jobID)

	// The separation scratch dir is private to this job and removed no
	// matter how the job ends.
	tempDir := w.paths.KaraokeTempDir(jobID)
	defer os.RemoveAll(tempDir)

	stems, err := w.separator.Separate(ctx, payload.InputPath, tempDir)
	if err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}

	byName := make(map[string]separation.Stem, len(stems))
	for _, stem := range stems {
		byName[stem.Name] = stem
	}

	var instrumental []*audio.Buffer
	for _, name := range separation.InstrumentalStems {
		stem, ok := byName[name]
		if !ok {
			continue
		}
		buf, readErr := audio.ReadFile(stem.Path)
		if readErr != nil {
			failJob(ctx, w.registry, w.hub, jobID, readErr.Error())
			return readErr
		}
		instrumental = append(instrumental, buf)
	}

	if len(instrumental) == 0 {
		err = fmt.Errorf("no instrumental stems found")
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}

	combined, err := engine.SumStems(instrumental)
	if err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}

	outDir := w.paths.KaraokeDir(jobID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}
	if err := audio.WriteWAV(filepath.Join(outDir, storage.KaraokeFileName), combined); err != nil {
		failJob(ctx, w.registry, w.hub, jobID, err.Error())
		return err
	}

	if err := completeJob(ctx, w.registry, w.hub, jobID, model.JobResult{Output: storage.KaraokeFileName}); err != nil {
		return err
	}

	log.Printf("Karaoke job %s completed", jobID)
	return nil
}
