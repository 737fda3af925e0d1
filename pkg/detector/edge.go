package detector

import (
	"SmoothTrack/internal/entity"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type EdgeMethod string

const (
	MethodCanny     EdgeMethod = "canny"
	MethodSobel     EdgeMethod = "sobel"
	MethodLaplacian EdgeMethod = "laplacian"
	MethodCombined  EdgeMethod = "combined"
)

func (m EdgeMethod) Valid() bool {
	switch m {
	case MethodCanny, MethodSobel, MethodLaplacian, MethodCombined:
		return true
	default:
		return false
	}
}

// Title is the human readable name, e.g. "OpenCV Combined Edge Detection".
func (m EdgeMethod) Title() string {
	s := string(m)
	if s == "" {
		return "OpenCV Edge Detection"
	}
	return fmt.Sprintf("OpenCV %s%s Edge Detection", strings.ToUpper(s[:1]), s[1:])
}

type EdgeConfig struct {
	Method           EdgeMethod `json:"method"`
	CannyThreshold1  float64    `json:"cannyThreshold1"`
	CannyThreshold2  float64    `json:"cannyThreshold2"`
	SobelKernel      int        `json:"sobelKernel"`
	GaussianBlur     int        `json:"gaussianBlur"`
	MorphologyKernel int        `json:"morphologyKernel"`
	MinContourArea   float64    `json:"minContourArea"`
	MaxContourArea   float64    `json:"maxContourArea"`
}

var DefaultEdgeConfig = EdgeConfig{
	Method:           MethodCombined,
	CannyThreshold1:  50,
	CannyThreshold2:  150,
	SobelKernel:      3,
	GaussianBlur:     5,
	MorphologyKernel: 5,
	MinContourArea:   500,
	MaxContourArea:   10000,
}

var DefaultEdgeLatency = Latency{Min: 600 * time.Millisecond, Max: 1000 * time.Millisecond}

// CombinedOverlapThreshold bounds the overlap ratio between any two results
// of the combined method.
const CombinedOverlapThreshold = 0.3

const placementAttempts = 10

// methodProfile holds the per-method sampling ranges. Each range is an
// offset plus a span; positions are fractions of the image size.
type methodProfile struct {
	label string
	class string

	edgeMin, edgeSpan float64
	areaMin, areaSpan float64
	xMin, xSpan       float64
	yMin, ySpan       float64
	wMin, wSpan       int
	hMin, hSpan       int

	filterContour bool
}

var profiles = map[EdgeMethod]methodProfile{
	MethodCanny: {
		label: "canny_edge", class: entity.ClassPothole,
		edgeMin: 0.55, edgeSpan: 0.35,
		areaMin: 1500, areaSpan: 4000,
		xMin: 0.15, xSpan: 0.7,
		yMin: 0.2, ySpan: 0.6,
		wMin: 80, wSpan: 200,
		hMin: 60, hSpan: 150,
		filterContour: true,
	},
	MethodSobel: {
		label: "sobel_gradient", class: entity.ClassCrack,
		edgeMin: 0.6, edgeSpan: 0.3,
		areaMin: 1200, areaSpan: 3500,
		xMin: 0.2, xSpan: 0.65,
		yMin: 0.25, ySpan: 0.55,
		wMin: 90, wSpan: 220,
		hMin: 70, hSpan: 160,
	},
	MethodLaplacian: {
		label: "laplacian_edge", class: entity.ClassRoadDamage,
		edgeMin: 0.55, edgeSpan: 0.35,
		areaMin: 1400, areaSpan: 3000,
		xMin: 0.25, xSpan: 0.6,
		yMin: 0.3, ySpan: 0.5,
		wMin: 100, wSpan: 200,
		hMin: 80, hSpan: 140,
	},
}

type EdgeInput struct {
	OriginalSize entity.Size
	ImageBytes   int
}

type EdgeProcessor struct {
	config  EdgeConfig
	src     Source
	latency Latency
	scorer  Scorer
}

func NewEdgeProcessor(config EdgeConfig, opts ...Option) *EdgeProcessor {
	src, latency := buildOptions(DefaultEdgeLatency, opts)
	return &EdgeProcessor{
		config:  config,
		src:     src,
		latency: latency,
		scorer:  NewEdgeScorer(),
	}
}

func (p *EdgeProcessor) Config() EdgeConfig {
	return p.config
}

func (p *EdgeProcessor) Scorer() Scorer {
	return p.scorer
}

func (p *EdgeProcessor) Preprocess(image []byte) EdgeInput {
	return EdgeInput{
		OriginalSize: DefaultImageSize,
		ImageBytes:   len(image),
	}
}

// Process dispatches on the configured method. Unknown methods fall back to canny.
func (p *EdgeProcessor) Process(ctx context.Context, in EdgeInput) ([]entity.EdgeDetection, error) {
	if err := p.latency.wait(ctx, p.src); err != nil {
		return nil, err
	}

	size := in.OriginalSize
	if size.Area() <= 0 {
		size = DefaultImageSize
	}

	switch p.config.Method {
	case MethodSobel, MethodLaplacian:
		return p.detect(p.src, p.config.Method, size), nil
	case MethodCombined:
		return p.combined(ctx, size)
	default:
		return p.detect(p.src, MethodCanny, size), nil
	}
}

func (p *EdgeProcessor) Detect(ctx context.Context, image []byte) ([]entity.EdgeDetection, entity.Size, error) {
	in := p.Preprocess(image)
	detections, err := p.Process(ctx, in)
	if err != nil {
		return nil, entity.Size{}, err
	}
	return detections, in.OriginalSize, nil
}

func (p *EdgeProcessor) combined(ctx context.Context, size entity.Size) ([]entity.EdgeDetection, error) {
	methods := []EdgeMethod{MethodCanny, MethodSobel, MethodLaplacian}
	results := make([][]entity.EdgeDetection, len(methods))

	sources := make([]Source, len(methods))
	for i := range methods {
		sources[i] = derive(p.src)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, method := range methods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.detect(sources[i], method, size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []entity.EdgeDetection
	for _, r := range results {
		all = append(all, r...)
	}

	filtered := FilterOverlapping(all, CombinedOverlapThreshold)
	for i := range filtered {
		filtered[i].ID = i + 1
	}
	return filtered, nil
}

// detect generates 2-5 candidate regions for one method. Each box is placed
// greedily, retrying a few times to avoid boxes already placed in this call.
func (p *EdgeProcessor) detect(src Source, method EdgeMethod, size entity.Size) []entity.EdgeDetection {
	profile := profiles[method]
	n := intBetween(src, 2, 4)

	detections := make([]entity.EdgeDetection, 0, n)
	placed := make([]entity.BBox, 0, n)

	for i := 0; i < n; i++ {
		edgeStrength := between(src, profile.edgeMin, profile.edgeSpan)
		contourArea := between(src, profile.areaMin, profile.areaSpan)

		if profile.filterContour && (contourArea < p.config.MinContourArea || contourArea > p.config.MaxContourArea) {
			continue
		}

		var box entity.BBox
		for attempt := 0; attempt < placementAttempts; attempt++ {
			box = Clamp(entity.BBox{
				X:      int(math.Floor(src.Float64()*float64(size.Width)*profile.xSpan)) + int(math.Floor(float64(size.Width)*profile.xMin)),
				Y:      int(math.Floor(src.Float64()*float64(size.Height)*profile.ySpan)) + int(math.Floor(float64(size.Height)*profile.yMin)),
				Width:  intBetween(src, profile.wMin, profile.wSpan),
				Height: intBetween(src, profile.hMin, profile.hSpan),
			}, size)
			if !intersectsAny(box, placed) {
				break
			}
		}
		placed = append(placed, box)

		aspect := 0.0
		if box.Height > 0 {
			aspect = float64(box.Width) / float64(box.Height)
		}

		detections = append(detections, entity.EdgeDetection{
			Detection: entity.Detection{
				ID:         i + 1,
				Class:      profile.class,
				Confidence: edgeStrength,
				BBox:       box,
				Severity: p.scorer.Severity(Features{
					ContourArea:  contourArea,
					EdgeStrength: edgeStrength,
				}),
				Area: box.Area(),
			},
			Method:       profile.label,
			EdgeStrength: edgeStrength,
			ContourArea:  contourArea,
			AspectRatio:  aspect,
		})
	}

	return detections
}
