package detectionService

import (
	"SmoothTrack/internal/api/detection"
	"SmoothTrack/pkg/detector"
	"SmoothTrack/pkg/log"
	"time"

	"golang.org/x/net/context"
)

func countDetections(set *detection.DetectionSet) int {
	if set == nil {
		return 0
	}
	return len(set.Detections)
}

func (s *detectionService) Analyze(ctx context.Context, req detection.AnalyzeRequest) *detection.AnalyzeResponse {
	analysis := detector.Compare(countDetections(req.YOLOResults), countDetections(req.OpenCVResults))

	log.WithRequestID(ctx).WithFields(log.Fields{
		"yolo_count":   analysis.DetectionCount.YOLO,
		"opencv_count": analysis.DetectionCount.OpenCV,
	}).Debug("[detectionService][Analyze] comparison built")

	return &detection.AnalyzeResponse{
		Success:   true,
		Analysis:  analysis,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	}
}
