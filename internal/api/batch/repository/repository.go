package batchRepository

import (
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/redis"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	jobKeyPrefix = "smoothtrack:job:"
	jobIndexKey  = "smoothtrack:jobs"
)

// Repository stores batch jobs. ListAll returns jobs in creation order.
type Repository interface {
	Put(ctx context.Context, job entity.Job) error
	Get(ctx context.Context, id string) (entity.Job, error)
	ListAll(ctx context.Context) ([]entity.Job, error)
}

func NewMemory(log *logrus.Logger) Repository {
	return &memoryRepository{
		jobs: make(map[string]entity.Job),
		log:  log,
	}
}

func NewRedis(client redis.IRedis, log *logrus.Logger) Repository {
	return &redisRepository{
		client: client,
		log:    log,
	}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}
