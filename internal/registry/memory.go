package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/audiosplit/api/internal/model"
)

// MemoryStore is the default Store: a mutex-guarded in-process map.
// Records live until process restart; there is no eviction.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*model.Job),
	}
}

// newJobID returns a short opaque token (8 hex chars of a v4 UUID).
func newJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func (s *MemoryStore) Create(ctx context.Context, kind model.JobKind) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newJobID()
	for s.jobs[id] != nil {
		id = newJobID()
	}

	job := &model.Job{
		ID:        id,
		Kind:      kind,
		Status:    model.JobStatusProcessing,
		CreatedAt: time.Now(),
	}
	s.jobs[id] = job

	return copyJob(job), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyJob(job), nil
}

func (s *MemoryStore) Complete(ctx context.Context, id string, result model.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return ErrTerminal
	}

	now := time.Now()
	job.Status = model.JobStatusDone
	job.Stems = result.Stems
	job.Output = result.Output
	job.CompletedAt = &now
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return ErrTerminal
	}

	now := time.Now()
	job.Status = model.JobStatusError
	job.Error = &message
	job.CompletedAt = &now
	return nil
}

// copyJob returns a snapshot so callers never share the stored record.
func copyJob(job *model.Job) *model.Job {
	c := *job
	if job.Stems != nil {
		c.Stems = append([]string(nil), job.Stems...)
	}
	return &c
}
