package detection

import (
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/detector"
)

type YOLODetectRequest struct {
	Latitude            string  `form:"latitude" validate:"omitempty,latitude"`
	Longitude           string  `form:"longitude" validate:"omitempty,longitude"`
	ConfidenceThreshold float64 `form:"confidenceThreshold" validate:"omitempty,gt=0,lte=1"`
	NMSThreshold        float64 `form:"nmsThreshold" validate:"omitempty,gt=0,lte=1"`
}

type EdgeDetectRequest struct {
	Latitude        string  `form:"latitude" validate:"omitempty,latitude"`
	Longitude       string  `form:"longitude" validate:"omitempty,longitude"`
	Method          string  `form:"method" validate:"omitempty,oneof=canny sobel laplacian combined"`
	CannyThreshold1 float64 `form:"cannyThreshold1" validate:"omitempty,gt=0"`
	CannyThreshold2 float64 `form:"cannyThreshold2" validate:"omitempty,gt=0"`
	MinContourArea  float64 `form:"minContourArea" validate:"omitempty,gt=0"`
	MaxContourArea  float64 `form:"maxContourArea" validate:"omitempty,gt=0"`
}

// EnrichedDetection is a detection decorated for display. The edge fields
// are only present on edge detections.
type EnrichedDetection struct {
	ID                  string             `json:"id"`
	Class               string             `json:"class"`
	Confidence          float64            `json:"confidence"`
	BBox                entity.BBox        `json:"bbox"`
	Severity            entity.Severity    `json:"severity"`
	Area                int                `json:"area"`
	Method              string             `json:"method,omitempty"`
	EdgeStrength        float64            `json:"edgeStrength,omitempty"`
	ContourArea         float64            `json:"contourArea,omitempty"`
	AspectRatio         float64            `json:"aspectRatio,omitempty"`
	Timestamp           string             `json:"timestamp"`
	GPSLocation         entity.GPSLocation `json:"gpsLocation"`
	DetectionMethod     string             `json:"detectionMethod"`
	SeverityPercentage  int                `json:"severityPercentage"`
	EstimatedRepairCost int                `json:"estimatedRepairCost"`
	Priority            entity.Priority    `json:"priority"`
}

type ModelConfig struct {
	ConfidenceThreshold float64     `json:"confidenceThreshold"`
	NMSThreshold        float64     `json:"nmsThreshold"`
	InputSize           entity.Size `json:"inputSize"`
}

type YOLOMetrics struct {
	TotalDetections          int            `json:"totalDetections"`
	AverageConfidence        float64        `json:"averageConfidence"`
	SeverityDistribution     map[string]int `json:"severityDistribution"`
	ProcessingFps            float64        `json:"processingFps"`
	GPSEnabled               bool           `json:"gpsEnabled"`
	HighPriorityCount        int            `json:"highPriorityCount"`
	EstimatedTotalRepairCost int            `json:"estimatedTotalRepairCost"`
}

type YOLOResponse struct {
	Success        bool                `json:"success"`
	Detections     []EnrichedDetection `json:"detections"`
	ProcessingTime string              `json:"processingTime"`
	Model          string              `json:"model"`
	ImageSize      entity.Size         `json:"imageSize"`
	ModelConfig    ModelConfig         `json:"modelConfig"`
	Metrics        YOLOMetrics         `json:"metrics"`
}

type EdgeParameters struct {
	Method          detector.EdgeMethod `json:"method"`
	CannyThreshold1 float64             `json:"cannyThreshold1"`
	CannyThreshold2 float64             `json:"cannyThreshold2"`
	SobelKernel     int                 `json:"sobelKernel"`
	GaussianBlur    int                 `json:"gaussianBlur"`
	MinContourArea  float64             `json:"minContourArea"`
	MaxContourArea  float64             `json:"maxContourArea"`
}

type EdgeMetrics struct {
	TotalDetections int `json:"totalDetections"`
	detector.EdgeMetrics
	ProcessingFps            float64 `json:"processingFps"`
	GPSEnabled               bool    `json:"gpsEnabled"`
	HighPriorityCount        int     `json:"highPriorityCount"`
	EstimatedTotalRepairCost int     `json:"estimatedTotalRepairCost"`
}

type EdgeResponse struct {
	Success        bool                `json:"success"`
	Detections     []EnrichedDetection `json:"detections"`
	ProcessingTime string              `json:"processingTime"`
	Method         string              `json:"method"`
	ImageSize      entity.Size         `json:"imageSize"`
	Parameters     EdgeParameters      `json:"parameters"`
	Metrics        EdgeMetrics         `json:"metrics"`
}

type Performance struct {
	AverageInferenceTime string `json:"averageInferenceTime"`
	Accuracy             string `json:"accuracy"`
	Precision            string `json:"precision"`
	Recall               string `json:"recall"`
	SpeedAdvantage       string `json:"speedAdvantage,omitempty"`
}

type AlgorithmInfo struct {
	Description string   `json:"description"`
	Strengths   []string `json:"strengths"`
	Parameters  []string `json:"parameters"`
}

type YOLOInfoResponse struct {
	Model        string              `json:"model"`
	Config       detector.YOLOConfig `json:"config"`
	Capabilities []string            `json:"capabilities"`
	Performance  Performance         `json:"performance"`
}

type EdgeInfoResponse struct {
	Method       string                   `json:"method"`
	Config       detector.EdgeConfig      `json:"config"`
	Capabilities []string                 `json:"capabilities"`
	Performance  Performance              `json:"performance"`
	Algorithms   map[string]AlgorithmInfo `json:"algorithms"`
}

// DetectionSet is the part of a detector response that analysis reads.
type DetectionSet struct {
	Detections []any `json:"detections"`
}

type AnalyzeRequest struct {
	YOLOResults   *DetectionSet `json:"yoloResults"`
	OpenCVResults *DetectionSet `json:"opencvResults"`
}

type AnalyzeResponse struct {
	Success   bool            `json:"success"`
	Analysis  entity.Analysis `json:"analysis"`
	Timestamp string          `json:"timestamp"`
}

type FrameError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
