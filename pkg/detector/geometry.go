package detector

import (
	"SmoothTrack/internal/entity"
	"sort"
)

// DefaultImageSize is the synthetic frame every uploaded image is assumed to have.
var DefaultImageSize = entity.Size{Width: 1920, Height: 1080}

func intersection(a, b entity.BBox) int {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

// IoU is intersection area over union area. Disjoint or degenerate boxes yield 0.
func IoU(a, b entity.BBox) float64 {
	inter := intersection(a, b)
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// OverlapRatio is the overlap measure used by the edge pipeline when merging
// heterogeneous method outputs. It shares the IoU formula.
func OverlapRatio(a, b entity.BBox) float64 {
	return IoU(a, b)
}

// Intersects reports whether two boxes share any interior area.
func Intersects(a, b entity.BBox) bool {
	return a.X < b.X+b.Width && a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height && a.Y+a.Height > b.Y
}

func intersectsAny(box entity.BBox, placed []entity.BBox) bool {
	for _, p := range placed {
		if Intersects(box, p) {
			return true
		}
	}
	return false
}

// Clamp shifts b so it lies inside size, shrinking it first when it is larger
// than the image.
func Clamp(b entity.BBox, size entity.Size) entity.BBox {
	b.Width = min(max(b.Width, 0), size.Width)
	b.Height = min(max(b.Height, 0), size.Height)
	b.X = max(0, min(b.X, size.Width-b.Width))
	b.Y = max(0, min(b.Y, size.Height-b.Height))
	return b
}

// suppress keeps items in descending confidence order, dropping any whose
// overlap with an already kept item exceeds threshold.
func suppress[T any](items []T, box func(T) entity.BBox, conf func(T) float64,
	overlap func(a, b entity.BBox) float64, threshold float64) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return conf(sorted[i]) > conf(sorted[j])
	})

	kept := make([]T, 0, len(sorted))
	for _, candidate := range sorted {
		keep := true
		for _, k := range kept {
			if overlap(box(candidate), box(k)) > threshold {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// NonMaxSuppression applies IoU-based suppression to region detections.
func NonMaxSuppression(detections []entity.Detection, threshold float64) []entity.Detection {
	return suppress(detections,
		func(d entity.Detection) entity.BBox { return d.BBox },
		func(d entity.Detection) float64 { return d.Confidence },
		IoU, threshold)
}

// FilterOverlapping applies overlap-ratio suppression to edge detections.
func FilterOverlapping(detections []entity.EdgeDetection, threshold float64) []entity.EdgeDetection {
	return suppress(detections,
		func(d entity.EdgeDetection) entity.BBox { return d.BBox },
		func(d entity.EdgeDetection) float64 { return d.Confidence },
		OverlapRatio, threshold)
}
