package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/audiosplit/api/internal/model"
)

// RedisStore keeps job records as JSON in Redis. It survives process
// restarts (unlike MemoryStore) and evicts records after retention.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
	}
}

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}

func (s *RedisStore) Create(ctx context.Context, kind model.JobKind) (*model.Job, error) {
	job := &model.Job{
		ID:        newJobID(),
		Kind:      kind,
		Status:    model.JobStatusProcessing,
		CreatedAt: time.Now(),
	}
	if err := s.save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	return job, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisStore) Complete(ctx context.Context, id string, result model.JobResult) error {
	return s.transition(ctx, id, func(job *model.Job) {
		job.Status = model.JobStatusDone
		job.Stems = result.Stems
		job.Output = result.Output
	})
}

func (s *RedisStore) Fail(ctx context.Context, id string, message string) error {
	return s.transition(ctx, id, func(job *model.Job) {
		job.Status = model.JobStatusError
		job.Error = &message
	})
}

// transitionRetries bounds optimistic-lock retries on a contended key.
const transitionRetries = 5

// transition applies a terminal state change under WATCH, so two racing
// terminal calls serialize: exactly one wins and the other sees ErrTerminal.
func (s *RedisStore) transition(ctx context.Context, id string, apply func(*model.Job)) error {
	key := jobKey(id)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var job model.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return err
		}
		if job.Status.Terminal() {
			return ErrTerminal
		}

		now := time.Now()
		apply(&job)
		job.CompletedAt = &now

		out, err := json.Marshal(&job)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.retention)
			return nil
		})
		return err
	}

	for i := 0; i < transitionRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return fmt.Errorf("job %s: too many concurrent updates", id)
}

func (s *RedisStore) save(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, jobKey(job.ID), data, s.retention).Err()
}
