package batchService

import (
	"SmoothTrack/internal/api/batch"
	batchRepository "SmoothTrack/internal/api/batch/repository"
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/detector"
	"SmoothTrack/pkg/utils"
	"SmoothTrack/pkg/worker"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Pipeline runs both detectors on one image.
type Pipeline interface {
	RunYOLO(ctx context.Context, image []byte) (entity.YOLORun, error)
	RunEdges(ctx context.Context, image []byte) (entity.EdgeRun, error)
}

// EmitFunc delivers one stream event. Returning an error ends the stream.
type EmitFunc func(event entity.StreamEvent) error

type IBatchService interface {
	CreateBatch(ctx context.Context, files []batch.UploadedFile) ([]entity.Job, error)
	GetJob(ctx context.Context, id string) (entity.Job, error)
	ListJobs(ctx context.Context) ([]entity.Job, error)
	CancelJob(ctx context.Context, id string) (entity.Job, error)
	StreamProgress(ctx context.Context, jobIDs []string, emit EmitFunc) error
}

type Config struct {
	StreamInterval time.Duration
	StreamMaxTicks int
	// Source drives the placeholder progress reported for unknown job ids.
	Source detector.Source
}

var DefaultConfig = Config{
	StreamInterval: time.Second,
	StreamMaxTicks: 30,
}

type batchService struct {
	log        *logrus.Logger
	repository batchRepository.Repository
	pool       worker.IPool
	pipeline   Pipeline
	utils      utils.IUtils
	config     Config

	mu      sync.Mutex
	handles map[string]*worker.Handle
}

func NewBatchService(
	log *logrus.Logger,
	repository batchRepository.Repository,
	pool worker.IPool,
	pipeline Pipeline,
	utils utils.IUtils,
	config Config,
) IBatchService {
	if config.StreamInterval <= 0 {
		config.StreamInterval = DefaultConfig.StreamInterval
	}
	if config.StreamMaxTicks <= 0 {
		config.StreamMaxTicks = DefaultConfig.StreamMaxTicks
	}
	if config.Source == nil {
		config.Source = detector.NewTimeSource()
	}

	return &batchService{
		log:        log,
		repository: repository,
		pool:       pool,
		pipeline:   pipeline,
		utils:      utils,
		config:     config,
		handles:    make(map[string]*worker.Handle),
	}
}
