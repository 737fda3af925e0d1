package detection

import (
	"SmoothTrack/pkg/response"
	"net/http"
)

const (
	YOLOFailedMessage   = "YOLO detection failed"
	OpenCVFailedMessage = "OpenCV detection failed"
)

var (
	ErrInvalidContourRange = response.NewError(http.StatusBadRequest, "minContourArea must be less than maxContourArea")
	ErrInvalidEdgeMethod   = response.NewError(http.StatusBadRequest, "unsupported edge detection method")
	ErrEmptyFrame          = response.NewError(http.StatusBadRequest, "empty frame")
)
