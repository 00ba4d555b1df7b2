// Package queue defines the scheduling substrate for background jobs. Tasks
// are asynq tasks either way: production enqueues them through Redis to the
// asynq worker server, and the local dispatcher drives the same handler mux
// with an in-process goroutine pool when Redis is not configured.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Task types, one per job kind.
const (
	TaskTypeSeparation = "separation:process"
	TaskTypeMix        = "mix:process"
	TaskTypeKaraoke    = "karaoke:process"
)

// Queue names used for asynq routing weights.
const (
	QueueSeparation = "separation"
	QueueMix        = "mix"
	QueueKaraoke    = "karaoke"
)

// TaskPayload is the envelope every task carries.
type TaskPayload struct {
	JobID   string          `json:"jobId"`
	Payload json.RawMessage `json:"payload"`
}

// NewTask wraps a job payload into an asynq task of the given type.
func NewTask(taskType, jobID string, payload interface{}) (*asynq.Task, error) {
	inner, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	data, err := json.Marshal(TaskPayload{JobID: jobID, Payload: inner})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return asynq.NewTask(taskType, data), nil
}

// Dispatcher schedules a task for execution without blocking the caller on
// the work itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, task *asynq.Task, queue string) error
}

// AsynqDispatcher enqueues tasks to the Redis-backed asynq server.
type AsynqDispatcher struct {
	client *asynq.Client
}

var _ Dispatcher = (*AsynqDispatcher)(nil)

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, task *asynq.Task, queue string) error {
	// No retries: a job fails exactly once and stays failed.
	_, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(queue),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// LocalDispatcher runs tasks on an in-process goroutine pool bounded by a
// semaphore. It drives the same asynq handler mux the worker server would,
// so workers cannot tell which substrate invoked them.
type LocalDispatcher struct {
	handler asynq.Handler
	sem     chan struct{}
}

var _ Dispatcher = (*LocalDispatcher)(nil)

func NewLocalDispatcher(handler asynq.Handler, concurrency int) *LocalDispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &LocalDispatcher{
		handler: handler,
		sem:     make(chan struct{}, concurrency),
	}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, task *asynq.Task, queue string) error {
	go func() {
		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		// The submitting request's context ends when it returns; the job
		// keeps running on its own context.
		if err := d.handler.ProcessTask(context.Background(), task); err != nil {
			log.Printf("Task %s failed: %v", task.Type(), err)
		}
	}()
	return nil
}
