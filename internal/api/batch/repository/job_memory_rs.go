package batchRepository

import (
	"SmoothTrack/internal/api/batch"
	"SmoothTrack/internal/entity"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type memoryRepository struct {
	mu    sync.RWMutex
	jobs  map[string]entity.Job
	order []string
	log   *logrus.Logger
}

func (r *memoryRepository) Put(ctx context.Context, job entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; !exists {
		r.order = append(r.order, job.ID)
	}
	r.jobs[job.ID] = job

	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return entity.Job{}, batch.ErrJobNotFound
	}

	return job, nil
}

func (r *memoryRepository) ListAll(ctx context.Context) ([]entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]entity.Job, 0, len(r.order))
	for _, id := range r.order {
		jobs = append(jobs, r.jobs[id])
	}

	return jobs, nil
}
