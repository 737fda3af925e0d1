package detectionService

import (
	"SmoothTrack/internal/api/detection"
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/detector"
	"SmoothTrack/pkg/log"
	"time"

	"golang.org/x/net/context"
)

const yoloDetectionMethod = "YOLO"

func yoloConfig(req detection.YOLODetectRequest) detector.YOLOConfig {
	config := detector.DefaultYOLOConfig
	if req.ConfidenceThreshold > 0 {
		config.ConfidenceThreshold = req.ConfidenceThreshold
	}
	if req.NMSThreshold > 0 {
		config.NMSThreshold = req.NMSThreshold
	}
	return config
}

func (s *detectionService) DetectYOLO(ctx context.Context, req detection.YOLODetectRequest, image []byte) (*detection.YOLOResponse, error) {
	start := time.Now()
	config := yoloConfig(req)
	processor := detector.NewYOLOProcessor(config, s.options()...)

	result, err := processor.Detect(ctx, image)
	if err != nil {
		return nil, err
	}

	e := newEnricher("pothole", yoloDetectionMethod, req.Latitude, req.Longitude, yoloAccuracy, processor.Scorer(), s.config.Source)
	detections := make([]detection.EnrichedDetection, 0, len(result.Detections))
	for i, d := range result.Detections {
		detections = append(detections, e.enrich(i, d))
	}

	processingTime, fps := timing(time.Since(start))
	t := summarize(detections)

	log.WithRequestID(ctx).WithFields(log.Fields{
		"detections":      len(detections),
		"processing_time": processingTime,
		"scale_factor":    result.ScaleFactor,
	}).Debug("[detectionService][DetectYOLO] detection finished")

	return &detection.YOLOResponse{
		Success:        true,
		Detections:     detections,
		ProcessingTime: processingTime,
		Model:          config.ModelVersion,
		ImageSize:      result.ImageSize,
		ModelConfig: detection.ModelConfig{
			ConfidenceThreshold: config.ConfidenceThreshold,
			NMSThreshold:        config.NMSThreshold,
			InputSize:           config.InputSize,
		},
		Metrics: detection.YOLOMetrics{
			TotalDetections:          len(detections),
			AverageConfidence:        detector.Round2(detector.MeanConfidence(result.Detections)),
			SeverityDistribution:     detector.SeverityDistribution(result.Detections),
			ProcessingFps:            fps,
			GPSEnabled:               e.gpsEnabled(),
			HighPriorityCount:        t.highPriority,
			EstimatedTotalRepairCost: t.repairCost,
		},
	}, nil
}

// RunYOLO runs the default configuration without enrichment.
func (s *detectionService) RunYOLO(ctx context.Context, image []byte) (entity.YOLORun, error) {
	start := time.Now()
	processor := detector.NewYOLOProcessor(detector.DefaultYOLOConfig, s.options()...)

	result, err := processor.Detect(ctx, image)
	if err != nil {
		return entity.YOLORun{}, err
	}

	processingTime, _ := timing(time.Since(start))
	return entity.YOLORun{
		Detections:     result.Detections,
		ProcessingTime: processingTime,
		Model:          processor.Config().ModelVersion,
	}, nil
}

func (s *detectionService) YOLOInfo() detection.YOLOInfoResponse {
	return detection.YOLOInfoResponse{
		Model:  detector.DefaultYOLOConfig.ModelVersion,
		Config: detector.DefaultYOLOConfig,
		Capabilities: []string{
			"Real-time pothole detection",
			"Multi-class road damage classification",
			"Confidence scoring",
			"Severity assessment",
			"Non-Maximum Suppression",
			"Batch processing support",
		},
		Performance: detection.Performance{
			AverageInferenceTime: "1.2s",
			Accuracy:             "89%",
			Precision:            "92%",
			Recall:               "87%",
		},
	}
}
