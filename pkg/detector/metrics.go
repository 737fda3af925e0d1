package detector

import (
	"SmoothTrack/internal/entity"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type AspectRatioDistribution struct {
	Narrow int `json:"narrow"`
	Square int `json:"square"`
	Wide   int `json:"wide"`
}

type EdgeMetrics struct {
	AverageConfidence       float64                 `json:"averageConfidence"`
	AverageEdgeStrength     float64                 `json:"averageEdgeStrength"`
	TotalContourArea        float64                 `json:"totalContourArea"`
	AspectRatioDistribution AspectRatioDistribution `json:"aspectRatioDistribution"`
	MethodDistribution      map[string]int          `json:"methodDistribution"`
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MeanConfidence is the mean detection confidence, 0 for an empty set.
func MeanConfidence(detections []entity.Detection) float64 {
	if len(detections) == 0 {
		return 0
	}
	values := make([]float64, len(detections))
	for i, d := range detections {
		values[i] = d.Confidence
	}
	return stat.Mean(values, nil)
}

func SeverityDistribution(detections []entity.Detection) map[string]int {
	dist := make(map[string]int)
	for _, d := range detections {
		key := string(d.Severity)
		if key == "" {
			key = "unknown"
		}
		dist[key]++
	}
	return dist
}

// CalculateEdgeMetrics summarises an edge run. Aspect ratios below 0.7 are
// narrow and above 1.3 wide.
func CalculateEdgeMetrics(detections []entity.EdgeDetection) EdgeMetrics {
	m := EdgeMetrics{MethodDistribution: make(map[string]int)}
	if len(detections) == 0 {
		return m
	}

	confidences := make([]float64, len(detections))
	strengths := make([]float64, len(detections))
	areas := make([]float64, len(detections))
	for i, d := range detections {
		confidences[i] = d.Confidence
		strengths[i] = d.EdgeStrength
		areas[i] = d.ContourArea

		switch {
		case d.AspectRatio < 0.7:
			m.AspectRatioDistribution.Narrow++
		case d.AspectRatio > 1.3:
			m.AspectRatioDistribution.Wide++
		default:
			m.AspectRatioDistribution.Square++
		}
		m.MethodDistribution[d.Method]++
	}

	m.AverageConfidence = Round2(stat.Mean(confidences, nil))
	m.AverageEdgeStrength = Round2(stat.Mean(strengths, nil))
	m.TotalContourArea = math.Round(floats.Sum(areas))
	return m
}
