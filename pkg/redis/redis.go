package redis

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"time"
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = redis.Nil

type IRedis interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	AddToIndex(ctx context.Context, index string, score float64, member string) error
	IndexMembers(ctx context.Context, index string) ([]string, error)
	Close() error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func (r *redisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	logrus.Debug(fmt.Sprintf("Setting key %s with expiration %v", key, expiration))
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error setting key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Key %s not found", key))
		return nil, ErrNil
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting key %s: %v", key, err))
		return nil, err
	}
	return val, nil
}

// AddToIndex records member in a sorted set. Re-adding keeps the first score.
func (r *redisClient) AddToIndex(ctx context.Context, index string, score float64, member string) error {
	err := r.client.ZAddNX(ctx, index, redis.Z{Score: score, Member: member}).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error indexing %s in %s: %v", member, index, err))
		return err
	}
	return nil
}

// IndexMembers returns the sorted set members in ascending score order.
func (r *redisClient) IndexMembers(ctx context.Context, index string) ([]string, error) {
	members, err := r.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error reading index %s: %v", index, err))
		return nil, err
	}
	return members, nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
