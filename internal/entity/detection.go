package entity

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from 0 (low) to 3 (critical). Unknown values rank as low.
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	ClassPothole    = "pothole"
	ClassCrack      = "crack"
	ClassRoadDamage = "road_damage"
	ClassManhole    = "manhole"
)

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) Area() int {
	return s.Width * s.Height
}

type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b BBox) Area() int {
	return b.Width * b.Height
}

// Within reports whether b lies fully inside an image of the given size.
func (b BBox) Within(size Size) bool {
	return b.X >= 0 && b.Y >= 0 && b.X+b.Width <= size.Width && b.Y+b.Height <= size.Height
}

type Detection struct {
	ID         int      `json:"id"`
	Class      string   `json:"class"`
	Confidence float64  `json:"confidence"`
	BBox       BBox     `json:"bbox"`
	Severity   Severity `json:"severity"`
	Area       int      `json:"area"`
}

type EdgeDetection struct {
	Detection
	Method       string  `json:"method"`
	EdgeStrength float64 `json:"edgeStrength"`
	ContourArea  float64 `json:"contourArea"`
	AspectRatio  float64 `json:"aspectRatio"`
}

type GPSLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

type Analysis struct {
	Accuracy        AccuracyFigures `json:"accuracy"`
	ProcessingSpeed SpeedFigures    `json:"processingSpeed"`
	DetectionCount  DetectionCounts `json:"detectionCount"`
	Recommendation  string          `json:"recommendation"`
}

type AccuracyFigures struct {
	YOLO   float64 `json:"yolo"`
	OpenCV float64 `json:"opencv"`
}

type SpeedFigures struct {
	YOLO   string `json:"yolo"`
	OpenCV string `json:"opencv"`
}

type DetectionCounts struct {
	YOLO   int `json:"yolo"`
	OpenCV int `json:"opencv"`
}
