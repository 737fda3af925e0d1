package detector

import (
	"SmoothTrack/internal/entity"
	"context"
	"math"
	"time"
)

type YOLOConfig struct {
	ModelVersion        string      `json:"modelVersion"`
	InputSize           entity.Size `json:"inputSize"`
	ConfidenceThreshold float64     `json:"confidenceThreshold"`
	NMSThreshold        float64     `json:"nmsThreshold"`
	Classes             []string    `json:"classes"`
	Anchors             [][]int     `json:"anchors"`
}

var DefaultYOLOConfig = YOLOConfig{
	ModelVersion:        "YOLOv8n-pothole",
	InputSize:           entity.Size{Width: 640, Height: 640},
	ConfidenceThreshold: 0.5,
	NMSThreshold:        0.4,
	Classes:             []string{entity.ClassPothole, entity.ClassCrack, entity.ClassRoadDamage, entity.ClassManhole},
	Anchors: [][]int{
		{10, 13, 16, 30, 33, 23},
		{30, 61, 62, 45, 59, 119},
		{116, 90, 156, 198, 373, 326},
	},
}

// DefaultYOLOLatency keeps the region pipeline visibly slower than the edge pipeline.
var DefaultYOLOLatency = Latency{Min: 1200 * time.Millisecond, Max: 2000 * time.Millisecond}

// Region is a candidate area produced by the synthetic image analysis.
// Center coordinates are fractions of the image size.
type Region struct {
	CenterX       float64
	CenterY       float64
	Confidence    float64
	Darkness      float64
	Irregularity  float64
	WaterPresence bool
	EdgeSharpness float64
}

type YOLOInput struct {
	OriginalSize entity.Size
	ScaleFactor  float64
	ImageBytes   int
	Regions      []Region
}

type Option func(*options)

type options struct {
	src     Source
	latency *Latency
}

func WithSource(src Source) Option {
	return func(o *options) {
		o.src = src
	}
}

func WithLatency(l Latency) Option {
	return func(o *options) {
		o.latency = &l
	}
}

func buildOptions(defaultLatency Latency, opts []Option) (Source, Latency) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = NewTimeSource()
	}
	if o.latency == nil {
		o.latency = &defaultLatency
	}
	return o.src, *o.latency
}

type YOLOProcessor struct {
	config  YOLOConfig
	src     Source
	latency Latency
	scorer  Scorer
}

func NewYOLOProcessor(config YOLOConfig, opts ...Option) *YOLOProcessor {
	src, latency := buildOptions(DefaultYOLOLatency, opts)
	return &YOLOProcessor{
		config:  config,
		src:     src,
		latency: latency,
		scorer:  NewRegionScorer(),
	}
}

func (p *YOLOProcessor) Config() YOLOConfig {
	return p.config
}

func (p *YOLOProcessor) Scorer() Scorer {
	return p.scorer
}

// Preprocess runs the synthetic image analysis. The image bytes are never decoded.
func (p *YOLOProcessor) Preprocess(image []byte) YOLOInput {
	size := DefaultImageSize
	scale := math.Min(
		float64(p.config.InputSize.Width)/float64(size.Width),
		float64(p.config.InputSize.Height)/float64(size.Height),
	)

	n := intBetween(p.src, 2, 4)
	regions := make([]Region, 0, n)
	for i := 0; i < n; i++ {
		regions = append(regions, Region{
			CenterX:       between(p.src, 0.2, 0.6),
			CenterY:       between(p.src, 0.3, 0.4),
			Confidence:    between(p.src, 0.6, 0.3),
			Darkness:      p.src.Float64(),
			Irregularity:  p.src.Float64(),
			WaterPresence: p.src.Float64() > 0.6,
			EdgeSharpness: p.src.Float64(),
		})
	}

	return YOLOInput{
		OriginalSize: size,
		ScaleFactor:  scale,
		ImageBytes:   len(image),
		Regions:      regions,
	}
}

// Infer turns every region whose adjusted confidence clears the threshold
// into a sized, classified and scored detection. No suppression happens here.
func (p *YOLOProcessor) Infer(ctx context.Context, in YOLOInput) ([]entity.Detection, error) {
	if err := p.latency.wait(ctx, p.src); err != nil {
		return nil, err
	}

	size := in.OriginalSize
	if size.Area() <= 0 {
		size = DefaultImageSize
	}

	detections := make([]entity.Detection, 0, len(in.Regions))
	for i, region := range in.Regions {
		confidence := region.Confidence * between(p.src, 0.8, 0.2)
		if confidence < p.config.ConfidenceThreshold {
			continue
		}

		baseSize := 80 + region.Darkness*100 + region.Irregularity*80
		width := int(math.Floor(baseSize + p.src.Float64()*60))
		height := int(math.Floor(baseSize*0.8 + p.src.Float64()*40))

		centerX := region.CenterX * float64(size.Width)
		centerY := region.CenterY * float64(size.Height)
		box := Clamp(entity.BBox{
			X:      int(math.Floor(centerX - float64(width)/2)),
			Y:      int(math.Floor(centerY - float64(height)/2)),
			Width:  width,
			Height: height,
		}, size)

		area := box.Area()
		severity := p.scorer.Severity(Features{
			NormalizedArea: float64(area) / float64(size.Area()),
			Darkness:       region.Darkness,
			Irregularity:   region.Irregularity,
			WaterPresence:  region.WaterPresence,
			Confidence:     confidence,
		})

		detections = append(detections, entity.Detection{
			ID:         i + 1,
			Class:      classify(region),
			Confidence: confidence,
			BBox:       box,
			Severity:   severity,
			Area:       area,
		})
	}

	return detections, nil
}

func classify(r Region) string {
	if r.EdgeSharpness > 0.7 && r.Irregularity < 0.4 {
		return entity.ClassCrack
	}
	if r.Darkness < 0.3 {
		return entity.ClassRoadDamage
	}
	return entity.ClassPothole
}

// PostProcess applies non-max suppression. Coordinates are already in the
// original image space so size and scale are accepted for interface parity only.
func (p *YOLOProcessor) PostProcess(detections []entity.Detection, _ entity.Size, _ float64) []entity.Detection {
	return NonMaxSuppression(detections, p.config.NMSThreshold)
}

type YOLOResult struct {
	Detections  []entity.Detection
	ImageSize   entity.Size
	ScaleFactor float64
}

// Detect runs the full preprocess, infer and post-process pipeline.
func (p *YOLOProcessor) Detect(ctx context.Context, image []byte) (YOLOResult, error) {
	in := p.Preprocess(image)

	raw, err := p.Infer(ctx, in)
	if err != nil {
		return YOLOResult{}, err
	}

	return YOLOResult{
		Detections:  p.PostProcess(raw, in.OriginalSize, in.ScaleFactor),
		ImageSize:   in.OriginalSize,
		ScaleFactor: in.ScaleFactor,
	}, nil
}
