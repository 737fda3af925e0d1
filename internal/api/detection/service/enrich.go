package detectionService

import (
	"SmoothTrack/internal/api/detection"
	"SmoothTrack/internal/entity"
	"SmoothTrack/pkg/detector"
	"fmt"
	"math"
	"strconv"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// accuracyRange is the simulated GPS accuracy band in meters.
type accuracyRange struct {
	min, span float64
}

var (
	yoloAccuracy = accuracyRange{min: 5, span: 10}
	edgeAccuracy = accuracyRange{min: 8, span: 15}
)

type enricher struct {
	prefix    string
	method    string
	stamp     time.Time
	latitude  *float64
	longitude *float64
	accuracy  accuracyRange
	scorer    detector.Scorer
	src       detector.Source
}

func newEnricher(prefix, method, lat, lng string, accuracy accuracyRange, scorer detector.Scorer, src detector.Source) enricher {
	return enricher{
		prefix:    prefix,
		method:    method,
		stamp:     time.Now(),
		latitude:  parseCoordinate(lat),
		longitude: parseCoordinate(lng),
		accuracy:  accuracy,
		scorer:    scorer,
		src:       src,
	}
}

func parseCoordinate(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (e enricher) gpsEnabled() bool {
	return e.latitude != nil && e.longitude != nil
}

func (e enricher) location() entity.GPSLocation {
	loc := entity.GPSLocation{Latitude: e.latitude, Longitude: e.longitude}
	if e.gpsEnabled() {
		accuracy := e.accuracy.min + e.src.Float64()*e.accuracy.span
		loc.Accuracy = &accuracy
	}
	return loc
}

func (e enricher) enrich(index int, d entity.Detection) detection.EnrichedDetection {
	return detection.EnrichedDetection{
		ID:                  fmt.Sprintf("%s_%d_%d", e.prefix, e.stamp.UnixMilli(), index),
		Class:               d.Class,
		Confidence:          d.Confidence,
		BBox:                d.BBox,
		Severity:            d.Severity,
		Area:                d.Area,
		Timestamp:           e.stamp.UTC().Format(timestampLayout),
		GPSLocation:         e.location(),
		DetectionMethod:     e.method,
		SeverityPercentage:  int(math.Round(d.Confidence * 100)),
		EstimatedRepairCost: e.scorer.RepairCost(d.Severity, d.BBox),
		Priority:            e.scorer.Priority(d.Severity, d.Confidence),
	}
}

type totals struct {
	highPriority int
	repairCost   int
}

func summarize(detections []detection.EnrichedDetection) totals {
	var t totals
	for _, d := range detections {
		if d.Priority == entity.PriorityHigh {
			t.highPriority++
		}
		t.repairCost += d.EstimatedRepairCost
	}
	return t
}

// timing formats elapsed wall time as "1.23s" and derives frames per second
// from the rounded value. A run too fast to measure reports 0 fps.
func timing(elapsed time.Duration) (string, float64) {
	seconds := detector.Round2(elapsed.Seconds())
	if seconds <= 0 {
		return fmt.Sprintf("%.2fs", seconds), 0
	}
	return fmt.Sprintf("%.2fs", seconds), detector.Round2(1 / seconds)
}
