package detectionService

import (
	"SmoothTrack/internal/api/detection"
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/detector"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IDetectionService interface {
	DetectYOLO(ctx context.Context, req detection.YOLODetectRequest, image []byte) (*detection.YOLOResponse, error)
	DetectEdges(ctx context.Context, req detection.EdgeDetectRequest, image []byte) (*detection.EdgeResponse, error)
	Analyze(ctx context.Context, req detection.AnalyzeRequest) *detection.AnalyzeResponse
	YOLOInfo() detection.YOLOInfoResponse
	EdgeInfo() detection.EdgeInfoResponse

	RunYOLO(ctx context.Context, image []byte) (entity.YOLORun, error)
	RunEdges(ctx context.Context, image []byte) (entity.EdgeRun, error)
}

type Config struct {
	// Source is shared by every processor the service builds.
	Source          detector.Source
	SimulateLatency bool
}

type detectionService struct {
	log    *logrus.Logger
	config Config
}

func NewDetectionService(log *logrus.Logger, config Config) IDetectionService {
	if config.Source == nil {
		config.Source = detector.NewTimeSource()
	}

	return &detectionService{
		log:    log,
		config: config,
	}
}

func (s *detectionService) options() []detector.Option {
	opts := []detector.Option{detector.WithSource(s.config.Source)}
	if !s.config.SimulateLatency {
		opts = append(opts, detector.WithLatency(detector.NoLatency))
	}
	return opts
}
