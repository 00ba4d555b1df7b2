// Package worker holds the asynq task handlers that execute jobs. Every
// fault inside a handler is routed to the job's terminal error state; a
// worker never kills the process and never leaves a job in processing.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/queue"
	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/websocket"
)

// parseTask unwraps the task envelope and the kind-specific payload.
// The job id is returned even when the inner payload is bad, so the job
// can still be failed.
func parseTask(t *asynq.Task, payload interface{}) (string, error) {
	var env queue.TaskPayload
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return "", fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return env.JobID, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	return env.JobID, nil
}

func completeJob(ctx context.Context, reg registry.Store, hub *websocket.Hub, jobID string, result model.JobResult) error {
	if err := reg.Complete(ctx, jobID, result); err != nil {
		log.Printf("Failed to mark job %s as done: %v", jobID, err)
		return err
	}
	notifyJob(ctx, reg, hub, jobID)
	return nil
}

func failJob(ctx context.Context, reg registry.Store, hub *websocket.Hub, jobID, message string) {
	if err := reg.Fail(ctx, jobID, message); err != nil {
		log.Printf("Failed to mark job %s as failed: %v", jobID, err)
		return
	}
	notifyJob(ctx, reg, hub, jobID)
}

func notifyJob(ctx context.Context, reg registry.Store, hub *websocket.Hub, jobID string) {
	if hub == nil {
		return
	}
	job, err := reg.Get(ctx, jobID)
	if err != nil {
		log.Printf("Failed to load job %s for notification: %v", jobID, err)
		return
	}
	hub.BroadcastJob(job)
}

// recoverJobPanic converts a handler panic into a job failure.
func recoverJobPanic(ctx context.Context, reg registry.Store, hub *websocket.Hub, jobID string, errp *error) {
	if r := recover(); r != nil {
		message := fmt.Sprintf("internal fault: %v", r)
		failJob(ctx, reg, hub, jobID, message)
		*errp = errors.New(message)
	}
}
