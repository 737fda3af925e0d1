package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	JobStoreMemory = "memory"
	JobStoreRedis  = "redis"
)

// AppConfig is the process configuration read from the environment.
type AppConfig struct {
	Port              string
	Env               string
	WorkerConcurrency int64
	JobStore          string
	DetectorSeed      uint64
	DetectorLatency   bool
	StreamInterval    time.Duration
	StreamMaxTicks    int
	BodyLimitMB       int
	RateLimitRPS      float64
	RateLimitBurst    int
}

func LoadAppConfig() (AppConfig, error) {
	var (
		cfg AppConfig
		err error
	)

	cfg.Port = getEnv("APP_PORT", "3000")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.JobStore = strings.ToLower(getEnv("JOB_STORE", JobStoreMemory))
	if cfg.JobStore != JobStoreMemory && cfg.JobStore != JobStoreRedis {
		return cfg, fmt.Errorf("JOB_STORE must be %q or %q, got %q", JobStoreMemory, JobStoreRedis, cfg.JobStore)
	}

	if cfg.WorkerConcurrency, err = strconv.ParseInt(getEnv("WORKER_CONCURRENCY", "4"), 10, 64); err != nil || cfg.WorkerConcurrency < 1 {
		return cfg, fmt.Errorf("WORKER_CONCURRENCY must be a positive integer")
	}
	if cfg.DetectorSeed, err = strconv.ParseUint(getEnv("DETECTOR_SEED", "0"), 10, 64); err != nil {
		return cfg, fmt.Errorf("DETECTOR_SEED: %w", err)
	}
	if cfg.DetectorLatency, err = strconv.ParseBool(getEnv("DETECTOR_LATENCY", "true")); err != nil {
		return cfg, fmt.Errorf("DETECTOR_LATENCY: %w", err)
	}

	intervalMS, err := strconv.Atoi(getEnv("STREAM_INTERVAL_MS", "1000"))
	if err != nil || intervalMS < 1 {
		return cfg, fmt.Errorf("STREAM_INTERVAL_MS must be a positive integer")
	}
	cfg.StreamInterval = time.Duration(intervalMS) * time.Millisecond

	if cfg.StreamMaxTicks, err = strconv.Atoi(getEnv("STREAM_MAX_TICKS", "30")); err != nil || cfg.StreamMaxTicks < 1 {
		return cfg, fmt.Errorf("STREAM_MAX_TICKS must be a positive integer")
	}
	if cfg.BodyLimitMB, err = strconv.Atoi(getEnv("BODY_LIMIT_MB", "100")); err != nil || cfg.BodyLimitMB < 1 {
		return cfg, fmt.Errorf("BODY_LIMIT_MB must be a positive integer")
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "50"), 64); err != nil || cfg.RateLimitRPS <= 0 {
		return cfg, fmt.Errorf("RATE_LIMIT_RPS must be a positive number")
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "100")); err != nil || cfg.RateLimitBurst < 1 {
		return cfg, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
