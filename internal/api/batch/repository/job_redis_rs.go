package batchRepository

import (
	"SmoothTrack/internal/api/batch"
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/log"
	"SmoothTrack/pkg/redis"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type redisRepository struct {
	client redis.IRedis
	log    *logrus.Logger
}

func (r *redisRepository) Put(ctx context.Context, job entity.Job) error {
	payload, err := jsoniter.Marshal(job)
	if err != nil {
		r.log.WithFields(log.Fields{
			"job_id": job.ID,
			"error":  err.Error(),
		}).Error("[batchRepository][Put] failed to encode job")
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	if err := r.client.Set(ctx, jobKey(job.ID), payload, 0); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}

	score := float64(job.CreatedAt.UnixMilli())
	if err := r.client.AddToIndex(ctx, jobIndexKey, score, job.ID); err != nil {
		return fmt.Errorf("index job %s: %w", job.ID, err)
	}

	return nil
}

func (r *redisRepository) Get(ctx context.Context, id string) (entity.Job, error) {
	payload, err := r.client.Get(ctx, jobKey(id))
	if errors.Is(err, redis.ErrNil) {
		return entity.Job{}, batch.ErrJobNotFound
	}
	if err != nil {
		return entity.Job{}, fmt.Errorf("load job %s: %w", id, err)
	}

	var job entity.Job
	if err := jsoniter.Unmarshal(payload, &job); err != nil {
		r.log.WithFields(log.Fields{
			"job_id": id,
			"error":  err.Error(),
		}).Error("[batchRepository][Get] failed to decode job")
		return entity.Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}

	return job, nil
}

func (r *redisRepository) ListAll(ctx context.Context) ([]entity.Job, error) {
	ids, err := r.client.IndexMembers(ctx, jobIndexKey)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]entity.Job, 0, len(ids))
	for _, id := range ids {
		job, err := r.Get(ctx, id)
		if errors.Is(err, batch.ErrJobNotFound) {
			r.log.WithField("job_id", id).Warn("[batchRepository][ListAll] indexed job is missing")
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}
