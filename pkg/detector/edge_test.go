package detector

import (
	"SmoothTrack/internal/entity"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEdge(method EdgeMethod, seed uint64) *EdgeProcessor {
	cfg := DefaultEdgeConfig
	cfg.Method = method
	return NewEdgeProcessor(cfg, WithSource(NewSource(seed)), WithLatency(NoLatency))
}

func TestEdgeMethod_Title(t *testing.T) {
	assert.Equal(t, "OpenCV Combined Edge Detection", MethodCombined.Title())
	assert.Equal(t, "OpenCV Sobel Edge Detection", MethodSobel.Title())
	assert.True(t, MethodLaplacian.Valid())
	assert.False(t, EdgeMethod("prewitt").Valid())
}

func TestEdgeProcessor_SingleMethods(t *testing.T) {
	tests := []struct {
		method EdgeMethod
		label  string
		class  string
	}{
		{MethodCanny, "canny_edge", entity.ClassPothole},
		{MethodSobel, "sobel_gradient", entity.ClassCrack},
		{MethodLaplacian, "laplacian_edge", entity.ClassRoadDamage},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			for seed := uint64(1); seed <= 100; seed++ {
				detections, size, err := newTestEdge(tt.method, seed).Detect(context.Background(), []byte("img"))
				require.NoError(t, err)
				require.GreaterOrEqual(t, len(detections), 2)
				require.LessOrEqual(t, len(detections), 5)

				for _, d := range detections {
					assert.Equal(t, tt.label, d.Method)
					assert.Equal(t, tt.class, d.Class)
					assert.Equal(t, d.EdgeStrength, d.Confidence)
					assert.True(t, d.BBox.Within(size), "box %+v", d.BBox)
					assert.InDelta(t, float64(d.BBox.Width)/float64(d.BBox.Height), d.AspectRatio, 1e-9)
					assert.Equal(t, NewEdgeScorer().Severity(Features{ContourArea: d.ContourArea, EdgeStrength: d.EdgeStrength}), d.Severity)
				}
			}
		})
	}
}

func TestEdgeProcessor_CannyContourBounds(t *testing.T) {
	cfg := DefaultEdgeConfig
	cfg.Method = MethodCanny
	cfg.MinContourArea = 6000
	cfg.MaxContourArea = 9000

	p := NewEdgeProcessor(cfg, WithSource(NewSource(3)), WithLatency(NoLatency))
	detections, _, err := p.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, detections, "canny contours never exceed 5500 so all are rejected")
}

func TestEdgeProcessor_UnknownMethodFallsBackToCanny(t *testing.T) {
	detections, _, err := newTestEdge(EdgeMethod("prewitt"), 9).Detect(context.Background(), nil)
	require.NoError(t, err)
	for _, d := range detections {
		assert.Equal(t, "canny_edge", d.Method)
	}
}

func TestEdgeProcessor_CombinedInvariants(t *testing.T) {
	seenMethods := make(map[string]bool)

	for seed := uint64(1); seed <= 300; seed++ {
		detections, size, err := newTestEdge(MethodCombined, seed).Detect(context.Background(), nil)
		require.NoError(t, err)
		require.NotEmpty(t, detections)

		for i, d := range detections {
			assert.Equal(t, i+1, d.ID, "combined results are renumbered")
			assert.True(t, d.BBox.Within(size))
			seenMethods[d.Method] = true

			for _, other := range detections[i+1:] {
				assert.LessOrEqual(t, OverlapRatio(d.BBox, other.BBox), CombinedOverlapThreshold,
					"seed %d: %+v vs %+v", seed, d.BBox, other.BBox)
			}
		}
	}

	assert.Len(t, seenMethods, 3, "every method contributes across seeds")
}

func TestEdgeProcessor_ProcessRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestEdge(MethodCombined, 1).Detect(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateEdgeMetrics(t *testing.T) {
	detections := []entity.EdgeDetection{
		{Detection: entity.Detection{Confidence: 0.6}, EdgeStrength: 0.6, ContourArea: 1000.4, AspectRatio: 0.5, Method: "canny_edge"},
		{Detection: entity.Detection{Confidence: 0.8}, EdgeStrength: 0.8, ContourArea: 2000.4, AspectRatio: 1.0, Method: "canny_edge"},
		{Detection: entity.Detection{Confidence: 0.7}, EdgeStrength: 0.7, ContourArea: 3000.4, AspectRatio: 2.0, Method: "sobel_gradient"},
	}

	m := CalculateEdgeMetrics(detections)

	assert.InDelta(t, 0.7, m.AverageConfidence, 1e-9)
	assert.InDelta(t, 0.7, m.AverageEdgeStrength, 1e-9)
	assert.Equal(t, 6001.0, m.TotalContourArea)
	assert.Equal(t, AspectRatioDistribution{Narrow: 1, Square: 1, Wide: 1}, m.AspectRatioDistribution)
	assert.Equal(t, map[string]int{"canny_edge": 2, "sobel_gradient": 1}, m.MethodDistribution)

	empty := CalculateEdgeMetrics(nil)
	assert.Zero(t, empty.AverageConfidence)
	assert.NotNil(t, empty.MethodDistribution)
}

func TestCompare(t *testing.T) {
	a := Compare(4, 2)
	assert.Equal(t, RecommendYOLO, a.Recommendation)
	assert.Equal(t, entity.DetectionCounts{YOLO: 4, OpenCV: 2}, a.DetectionCount)
	assert.Equal(t, 0.89, a.Accuracy.YOLO)

	assert.Equal(t, RecommendOpenCV, Compare(2, 2).Recommendation)
	assert.Equal(t, RecommendOpenCV, Compare(0, 3).Recommendation)
}

func TestSeverityDistributionAndMean(t *testing.T) {
	detections := []entity.Detection{
		{Confidence: 0.5, Severity: entity.SeverityLow},
		{Confidence: 0.7, Severity: entity.SeverityLow},
		{Confidence: 0.9},
	}

	assert.Equal(t, map[string]int{"low": 2, "unknown": 1}, SeverityDistribution(detections))
	assert.InDelta(t, 0.7, MeanConfidence(detections), 1e-9)
	assert.Zero(t, MeanConfidence(nil))
}

func TestEdgeProcessor_CombinedSeedIsReproducible(t *testing.T) {
	want, _, err := newTestEdge(MethodCombined, 42).Detect(context.Background(), nil)
	require.NoError(t, err)

	for run := 0; run < 200; run++ {
		got, _, err := newTestEdge(MethodCombined, 42).Detect(context.Background(), nil)
		require.NoError(t, err)
		require.Equal(t, want, got, "run %d", run)
	}
}
