package batch

import (
	"SmoothTrack/pkg/response"
	"errors"
	"fmt"
	"net/http"
)

const ProcessingFailedMessage = "Batch processing failed"

var (
	ErrJobNotFound = response.NewError(http.StatusNotFound, "job not found")
	ErrNoImages    = response.NewError(http.StatusBadRequest, "No images provided")
	ErrJobFinished = response.NewError(http.StatusConflict, "job already finished")
	ErrJobOrphaned = errors.New("job has no active worker")
)

func InvalidFileType(fileName string) error {
	return response.NewError(http.StatusBadRequest, fmt.Sprintf("Invalid file type: %s", fileName))
}

func FileTooLarge(fileName string) error {
	return response.NewError(http.StatusBadRequest, fmt.Sprintf("File too large: %s", fileName))
}
