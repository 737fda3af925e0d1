package utils

import (
	"SmoothTrack/pkg/response"
	"crypto/rand"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const DefaultMaxImageSize = 10 * 1024 * 1024

var (
	ErrNoImage         = response.NewError(http.StatusBadRequest, "No image provided")
	ErrInvalidFileType = response.NewError(http.StatusBadRequest, "Invalid file type. Please upload an image.")
	ErrFileTooLarge    = response.NewError(http.StatusBadRequest, "File too large. Maximum size is 10MB.")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	NewPrefixedID(prefix string, t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: DefaultMaxImageSize,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// NewPrefixedID returns ids such as "job_01j9...".
func (u *utils) NewPrefixedID(prefix string, t time.Time) (string, error) {
	id, err := u.NewULIDFromTimestamp(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, strings.ToLower(id)), nil
}

// ValidateImageFile checks presence, declared MIME type and size. The
// content itself is never inspected.
func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoImage
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrInvalidFileType
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}
