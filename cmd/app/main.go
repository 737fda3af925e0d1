package main

import (
	"SmoothTrack/internal/config"
	"SmoothTrack/pkg/log"
	"SmoothTrack/pkg/redis"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn(log.Fields{"error": err.Error()}, "Error loading .env file")
	}

	logger := log.NewLogger()

	appConfig, err := config.LoadAppConfig()
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	options := []config.ServerOption{
		config.WithAppConfig(appConfig),
		config.WithFiber(config.NewFiber(logger, appConfig)),
		config.WithLogger(logger),
		config.WithValidator(config.NewValidator()),
		config.WithMiddleware(),
	}
	if appConfig.JobStore == config.JobStoreRedis {
		options = append(options, config.WithRedisServer(redis.New()))
	}
	options = append(options,
		config.WithJobStore(),
		config.WithWorkerPool(),
		config.WithDetectorSource(),
		config.WithUtils(),
	)

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()
	server.Mount()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown incomplete: %v", err)
	}
}
