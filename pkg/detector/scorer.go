package detector

import (
	"SmoothTrack/internal/entity"
	"math"
)

// Features is the input vector for severity scoring. Region scoring reads the
// area, darkness, water, irregularity and confidence fields; edge scoring
// reads contour area and edge strength.
type Features struct {
	NormalizedArea float64
	Darkness       float64
	Irregularity   float64
	WaterPresence  bool
	Confidence     float64
	ContourArea    float64
	EdgeStrength   float64
}

// Scorer turns features into a severity and prices the resulting damage.
// All methods are pure.
type Scorer interface {
	Score(f Features) float64
	Severity(f Features) entity.Severity
	RepairCost(severity entity.Severity, box entity.BBox) int
	Priority(severity entity.Severity, confidence float64) entity.Priority
}

type costPolicy struct {
	// score cutoffs: above critical, above high, above medium
	critical, high, medium float64

	baseCost    map[entity.Severity]float64
	areaDivisor float64
	minFactor   float64
	maxFactor   float64
	// side length assumed for boxes without area
	defaultSide int

	highConfidence   float64
	mediumConfidence float64
}

func (p costPolicy) classify(score float64) entity.Severity {
	switch {
	case score > p.critical:
		return entity.SeverityCritical
	case score > p.high:
		return entity.SeverityHigh
	case score > p.medium:
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}

func (p costPolicy) RepairCost(severity entity.Severity, box entity.BBox) int {
	area := box.Area()
	if area <= 0 {
		area = p.defaultSide * p.defaultSide
	}

	base, ok := p.baseCost[severity]
	if !ok {
		base = p.baseCost[entity.SeverityLow]
	}

	factor := math.Max(p.minFactor, math.Min(p.maxFactor, float64(area)/p.areaDivisor))
	return int(math.Round(base * factor))
}

func (p costPolicy) Priority(severity entity.Severity, confidence float64) entity.Priority {
	if severity == entity.SeverityCritical || (severity == entity.SeverityHigh && confidence > p.highConfidence) {
		return entity.PriorityHigh
	}
	if severity == entity.SeverityHigh || (severity == entity.SeverityMedium && confidence > p.mediumConfidence) {
		return entity.PriorityMedium
	}
	return entity.PriorityLow
}

// RegionScorer scores detections from the YOLO-style pipeline.
type RegionScorer struct {
	costPolicy
}

func NewRegionScorer() RegionScorer {
	return RegionScorer{costPolicy{
		critical: 4.5,
		high:     3.2,
		medium:   2.0,
		baseCost: map[entity.Severity]float64{
			entity.SeverityLow:      500,
			entity.SeverityMedium:   1200,
			entity.SeverityHigh:     2500,
			entity.SeverityCritical: 5000,
		},
		areaDivisor:      10000,
		minFactor:        0.5,
		maxFactor:        2.0,
		defaultSide:      100,
		highConfidence:   0.8,
		mediumConfidence: 0.7,
	}}
}

func (s RegionScorer) Score(f Features) float64 {
	score := f.NormalizedArea*2000 + f.Darkness*1.5 + f.Irregularity*1.2 + f.Confidence*0.8
	if f.WaterPresence {
		score += 2.0
	}
	return score
}

func (s RegionScorer) Severity(f Features) entity.Severity {
	return s.classify(s.Score(f))
}

// EdgeScorer scores detections from the edge pipeline.
type EdgeScorer struct {
	costPolicy
}

func NewEdgeScorer() EdgeScorer {
	return EdgeScorer{costPolicy{
		critical: 3.5,
		high:     2.8,
		medium:   2.0,
		baseCost: map[entity.Severity]float64{
			entity.SeverityLow:      400,
			entity.SeverityMedium:   1000,
			entity.SeverityHigh:     2200,
			entity.SeverityCritical: 4500,
		},
		areaDivisor:      8000,
		minFactor:        0.4,
		maxFactor:        1.8,
		defaultSide:      80,
		highConfidence:   0.75,
		mediumConfidence: 0.65,
	}}
}

func (s EdgeScorer) Score(f Features) float64 {
	return (f.ContourArea/1000)*1.5 + f.EdgeStrength*2
}

func (s EdgeScorer) Severity(f Features) entity.Severity {
	return s.classify(s.Score(f))
}
