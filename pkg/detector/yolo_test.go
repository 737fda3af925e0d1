package detector

import (
	"SmoothTrack/internal/entity"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestYOLO(cfg YOLOConfig, seed uint64) *YOLOProcessor {
	return NewYOLOProcessor(cfg, WithSource(NewSource(seed)), WithLatency(NoLatency))
}

func TestYOLOProcessor_Preprocess(t *testing.T) {
	for seed := uint64(1); seed <= 100; seed++ {
		in := newTestYOLO(DefaultYOLOConfig, seed).Preprocess([]byte("not really an image"))

		assert.Equal(t, DefaultImageSize, in.OriginalSize)
		assert.InDelta(t, 1.0/3.0, in.ScaleFactor, 1e-9)
		assert.Equal(t, 19, in.ImageBytes)
		require.GreaterOrEqual(t, len(in.Regions), 2)
		require.LessOrEqual(t, len(in.Regions), 5)

		for _, r := range in.Regions {
			assert.True(t, r.CenterX >= 0.2 && r.CenterX < 0.8, "center x %f", r.CenterX)
			assert.True(t, r.CenterY >= 0.3 && r.CenterY < 0.7, "center y %f", r.CenterY)
			assert.True(t, r.Confidence >= 0.6 && r.Confidence < 0.9, "confidence %f", r.Confidence)
		}
	}
}

func TestYOLOProcessor_Infer(t *testing.T) {
	p := NewYOLOProcessor(DefaultYOLOConfig, WithSource(constSource{0}), WithLatency(NoLatency))

	in := YOLOInput{
		OriginalSize: DefaultImageSize,
		Regions: []Region{
			{CenterX: 0.5, CenterY: 0.5, Confidence: 0.9, Darkness: 0.5, Irregularity: 0.5, EdgeSharpness: 0.2},
			{CenterX: 0.5, CenterY: 0.5, Confidence: 0.6, Darkness: 0.5, Irregularity: 0.5},
			{CenterX: 0, CenterY: 0, Confidence: 0.9, Darkness: 0.1, Irregularity: 0.9},
			{CenterX: 0.3, CenterY: 0.4, Confidence: 0.9, Darkness: 0.5, Irregularity: 0.1, EdgeSharpness: 0.9},
		},
	}

	detections, err := p.Infer(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, detections, 3, "second region falls below the confidence threshold")

	first := detections[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, entity.ClassPothole, first.Class)
	assert.InDelta(t, 0.72, first.Confidence, 1e-9)
	assert.Equal(t, entity.BBox{X: 875, Y: 472, Width: 170, Height: 136}, first.BBox)
	assert.Equal(t, 170*136, first.Area)

	corner := detections[1]
	assert.Equal(t, 3, corner.ID)
	assert.Equal(t, entity.ClassRoadDamage, corner.Class)
	assert.Equal(t, 0, corner.BBox.X)
	assert.Equal(t, 0, corner.BBox.Y)

	assert.Equal(t, entity.ClassCrack, detections[2].Class)
}

func TestYOLOProcessor_InferRespectsContext(t *testing.T) {
	p := NewYOLOProcessor(DefaultYOLOConfig, WithSource(NewSource(7)), WithLatency(Latency{Min: time.Hour, Max: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Infer(ctx, p.Preprocess(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYOLOProcessor_InferZeroSizeFallsBack(t *testing.T) {
	p := NewYOLOProcessor(DefaultYOLOConfig, WithSource(constSource{0.5}), WithLatency(NoLatency))

	detections, err := p.Infer(context.Background(), YOLOInput{
		Regions: []Region{{CenterX: 0.5, CenterY: 0.5, Confidence: 0.9}},
	})
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.True(t, detections[0].BBox.Within(DefaultImageSize))
}

func TestYOLOProcessor_DetectInvariants(t *testing.T) {
	configs := map[string]YOLOConfig{
		"default": DefaultYOLOConfig,
		"strict": func() YOLOConfig {
			c := DefaultYOLOConfig
			c.ConfidenceThreshold = 0.7
			c.NMSThreshold = 0.1
			return c
		}(),
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			for seed := uint64(1); seed <= 300; seed++ {
				result, err := newTestYOLO(cfg, seed).Detect(context.Background(), []byte{0xff, 0xd8})
				require.NoError(t, err)
				assert.Equal(t, DefaultImageSize, result.ImageSize)

				ids := make(map[int]bool)
				for i, d := range result.Detections {
					assert.GreaterOrEqual(t, d.Confidence, cfg.ConfidenceThreshold)
					assert.True(t, d.BBox.Within(result.ImageSize), "seed %d box %+v", seed, d.BBox)
					assert.False(t, ids[d.ID], "duplicate id %d", d.ID)
					ids[d.ID] = true

					if i > 0 {
						assert.LessOrEqual(t, d.Confidence, result.Detections[i-1].Confidence)
					}
					for _, other := range result.Detections[i+1:] {
						assert.LessOrEqual(t, IoU(d.BBox, other.BBox), cfg.NMSThreshold)
					}
				}
			}
		})
	}
}

func TestYOLOProcessor_SeedIsReproducible(t *testing.T) {
	a, err := newTestYOLO(DefaultYOLOConfig, 42).Detect(context.Background(), nil)
	require.NoError(t, err)
	b, err := newTestYOLO(DefaultYOLOConfig, 42).Detect(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
