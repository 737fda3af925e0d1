package config

import (
	batchHandler "SmoothTrack/internal/api/batch/handler"
	batchRepository "SmoothTrack/internal/api/batch/repository"
	batchService "SmoothTrack/internal/api/batch/service"
	detectionHandler "SmoothTrack/internal/api/detection/handler"
	detectionService "SmoothTrack/internal/api/detection/service"
	"SmoothTrack/internal/middleware"
	"SmoothTrack/pkg/detector"
	"SmoothTrack/pkg/redis"
	"SmoothTrack/pkg/utils"
	"SmoothTrack/pkg/worker"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	log         *logrus.Logger
	config      AppConfig
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	jobStore    batchRepository.Repository
	workerPool  worker.IPool
	source      detector.Source
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, middleware.DefaultRateLimit)
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.jobStore == nil {
		server.jobStore = batchRepository.NewMemory(server.log)
	}
	if server.workerPool == nil {
		server.workerPool = worker.New(4, server.log)
	}
	if server.source == nil {
		server.source = detector.NewTimeSource()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithAppConfig(cfg AppConfig) ServerOption {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.RateLimit{
			RequestsPerSecond: s.config.RateLimitRPS,
			Burst:             s.config.RateLimitBurst,
		})
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

// WithJobStore picks the batch job repository named by the app config.
func WithJobStore() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the job store")
		}

		switch s.config.JobStore {
		case JobStoreRedis:
			if s.redisServer == nil {
				return fmt.Errorf("redis job store requires a redis server")
			}
			s.jobStore = batchRepository.NewRedis(s.redisServer, s.log)
		default:
			s.jobStore = batchRepository.NewMemory(s.log)
		}

		s.log.WithField("job_store", s.config.JobStore).Info("Job store initialized")
		return nil
	}
}

func WithWorkerPool() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the worker pool")
		}
		size := s.config.WorkerConcurrency
		if size < 1 {
			size = 4
		}
		s.workerPool = worker.New(size, s.log)
		return nil
	}
}

// WithDetectorSource seeds the synthetic detectors. A zero seed uses the clock.
func WithDetectorSource() ServerOption {
	return func(s *Server) error {
		if s.config.DetectorSeed == 0 {
			s.source = detector.NewTimeSource()
			return nil
		}
		s.source = detector.NewSource(s.config.DetectorSeed)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Detection Domain
	detectionServices := detectionService.NewDetectionService(s.log, detectionService.Config{
		Source:          s.source,
		SimulateLatency: s.config.DetectorLatency,
	})
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices, s.utils)

	// Batch Domain
	batchServices := batchService.NewBatchService(s.log, s.jobStore, s.workerPool, detectionServices, s.utils, batchService.Config{
		StreamInterval: s.config.StreamInterval,
		StreamMaxTicks: s.config.StreamMaxTicks,
		Source:         s.source,
	})
	batchHandlers := batchHandler.New(s.log, s.validator, s.middleware, batchServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, detectionHandlers, batchHandlers)
}

// Mount installs the global middleware and every registered handler.
func (s *Server) Mount() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Run() error {
	port := s.config.Port
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, then cancels and drains batch jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		s.log.Errorf("Error shutting down HTTP server: %v", err)
	}

	if err := s.workerPool.Shutdown(ctx); err != nil {
		return fmt.Errorf("worker pool shutdown: %w", err)
	}

	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			s.log.Errorf("Error closing redis client: %v", err)
		}
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
