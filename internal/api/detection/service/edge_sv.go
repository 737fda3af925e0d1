package detectionService

import (
	"SmoothTrack/internal/api/detection"
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/detector"
	"SmoothTrack/pkg/log"
	"time"

	"golang.org/x/net/context"
)

const edgeDetectionMethod = "OpenCV"

func edgeConfig(req detection.EdgeDetectRequest) (detector.EdgeConfig, error) {
	config := detector.DefaultEdgeConfig
	if req.Method != "" {
		config.Method = detector.EdgeMethod(req.Method)
	}
	if req.CannyThreshold1 > 0 {
		config.CannyThreshold1 = req.CannyThreshold1
	}
	if req.CannyThreshold2 > 0 {
		config.CannyThreshold2 = req.CannyThreshold2
	}
	if req.MinContourArea > 0 {
		config.MinContourArea = req.MinContourArea
	}
	if req.MaxContourArea > 0 {
		config.MaxContourArea = req.MaxContourArea
	}

	if !config.Method.Valid() {
		return config, detection.ErrInvalidEdgeMethod
	}
	if config.MinContourArea >= config.MaxContourArea {
		return config, detection.ErrInvalidContourRange
	}

	return config, nil
}

func (s *detectionService) DetectEdges(ctx context.Context, req detection.EdgeDetectRequest, image []byte) (*detection.EdgeResponse, error) {
	start := time.Now()
	config, err := edgeConfig(req)
	if err != nil {
		return nil, err
	}
	processor := detector.NewEdgeProcessor(config, s.options()...)

	raw, size, err := processor.Detect(ctx, image)
	if err != nil {
		return nil, err
	}

	e := newEnricher("opencv", edgeDetectionMethod, req.Latitude, req.Longitude, edgeAccuracy, processor.Scorer(), s.config.Source)
	detections := make([]detection.EnrichedDetection, 0, len(raw))
	for i, d := range raw {
		d = s.fillEdgeFeatures(d)
		raw[i] = d

		enriched := e.enrich(i, d.Detection)
		enriched.Method = d.Method
		enriched.EdgeStrength = d.EdgeStrength
		enriched.ContourArea = d.ContourArea
		enriched.AspectRatio = d.AspectRatio
		detections = append(detections, enriched)
	}

	processingTime, fps := timing(time.Since(start))
	t := summarize(detections)

	log.WithRequestID(ctx).WithFields(log.Fields{
		"method":          config.Method,
		"detections":      len(detections),
		"processing_time": processingTime,
	}).Debug("[detectionService][DetectEdges] detection finished")

	return &detection.EdgeResponse{
		Success:        true,
		Detections:     detections,
		ProcessingTime: processingTime,
		Method:         config.Method.Title(),
		ImageSize:      size,
		Parameters: detection.EdgeParameters{
			Method:          config.Method,
			CannyThreshold1: config.CannyThreshold1,
			CannyThreshold2: config.CannyThreshold2,
			SobelKernel:     config.SobelKernel,
			GaussianBlur:    config.GaussianBlur,
			MinContourArea:  config.MinContourArea,
			MaxContourArea:  config.MaxContourArea,
		},
		Metrics: detection.EdgeMetrics{
			TotalDetections:          len(detections),
			EdgeMetrics:              detector.CalculateEdgeMetrics(raw),
			ProcessingFps:            fps,
			GPSEnabled:               e.gpsEnabled(),
			HighPriorityCount:        t.highPriority,
			EstimatedTotalRepairCost: t.repairCost,
		},
	}, nil
}

// fillEdgeFeatures supplies display values for detections missing them.
func (s *detectionService) fillEdgeFeatures(d entity.EdgeDetection) entity.EdgeDetection {
	if d.EdgeStrength == 0 {
		d.EdgeStrength = 0.3 + s.config.Source.Float64()*0.5
	}
	if d.ContourArea == 0 {
		w, h := d.BBox.Width, d.BBox.Height
		if w == 0 {
			w = 50
		}
		if h == 0 {
			h = 50
		}
		d.ContourArea = float64(w * h)
	}
	return d
}

// RunEdges runs the combined method with default parameters.
func (s *detectionService) RunEdges(ctx context.Context, image []byte) (entity.EdgeRun, error) {
	start := time.Now()
	processor := detector.NewEdgeProcessor(detector.DefaultEdgeConfig, s.options()...)

	detections, _, err := processor.Detect(ctx, image)
	if err != nil {
		return entity.EdgeRun{}, err
	}

	processingTime, _ := timing(time.Since(start))
	return entity.EdgeRun{
		Detections:     detections,
		ProcessingTime: processingTime,
		Method:         processor.Config().Method.Title(),
	}, nil
}

func (s *detectionService) EdgeInfo() detection.EdgeInfoResponse {
	return detection.EdgeInfoResponse{
		Method: "OpenCV Edge Detection",
		Config: detector.DefaultEdgeConfig,
		Capabilities: []string{
			"Canny edge detection",
			"Sobel gradient detection",
			"Laplacian edge detection",
			"Combined multi-method approach",
			"Contour area filtering",
			"Real-time processing",
			"Morphological operations",
		},
		Performance: detection.Performance{
			AverageInferenceTime: "0.8s",
			Accuracy:             "65%",
			Precision:            "68%",
			Recall:               "72%",
			SpeedAdvantage:       "40% faster than YOLO",
		},
		Algorithms: map[string]detection.AlgorithmInfo{
			string(detector.MethodCanny): {
				Description: "Optimal edge detector with hysteresis thresholding",
				Strengths:   []string{"Low error rate", "Good localization", "Single response"},
				Parameters:  []string{"threshold1", "threshold2", "apertureSize"},
			},
			string(detector.MethodSobel): {
				Description: "Gradient-based edge detection using convolution",
				Strengths:   []string{"Fast computation", "Good for horizontal/vertical edges"},
				Parameters:  []string{"kernelSize", "scale", "delta"},
			},
			string(detector.MethodLaplacian): {
				Description: "Second derivative edge detection",
				Strengths:   []string{"Rotation invariant", "Single kernel"},
				Parameters:  []string{"kernelSize", "scale", "delta"},
			},
		},
	}
}
