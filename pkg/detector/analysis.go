package detector

import "SmoothTrack/internal/entity"

const (
	RecommendYOLO   = "YOLO model shows higher detection accuracy for this image"
	RecommendOpenCV = "OpenCV baseline provides faster processing with reasonable accuracy"
)

// Compare summarises two runs. Accuracy and speed are published benchmark
// figures, not measurements of the runs being compared.
func Compare(yoloCount, opencvCount int) entity.Analysis {
	recommendation := RecommendOpenCV
	if yoloCount > opencvCount {
		recommendation = RecommendYOLO
	}

	return entity.Analysis{
		Accuracy:        entity.AccuracyFigures{YOLO: 0.89, OpenCV: 0.65},
		ProcessingSpeed: entity.SpeedFigures{YOLO: "1.2s", OpenCV: "0.8s"},
		DetectionCount:  entity.DetectionCounts{YOLO: yoloCount, OpenCV: opencvCount},
		Recommendation:  recommendation,
	}
}
