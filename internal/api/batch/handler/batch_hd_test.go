package batchHandler

import (
	batchRepository "SmoothTrack/internal/api/batch/repository"
	batchService "SmoothTrack/internal/api/batch/service"
	"SmoothTrack/internal/entity"
	"SmoothTrack/internal/middleware"
	"SmoothTrack/pkg/utils"
	"SmoothTrack/pkg/worker"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct{}

func (stubPipeline) RunYOLO(ctx context.Context, image []byte) (entity.YOLORun, error) {
	return entity.YOLORun{
		Detections:     []entity.Detection{{ID: 1, Class: entity.ClassPothole, Confidence: 0.8}},
		ProcessingTime: "1.20s",
		Model:          "YOLOv8n-pothole",
	}, nil
}

func (stubPipeline) RunEdges(ctx context.Context, image []byte) (entity.EdgeRun, error) {
	return entity.EdgeRun{ProcessingTime: "0.80s", Method: "OpenCV Combined Edge Detection"}, nil
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type upload struct {
	name        string
	contentType string
	size        int
}

func multipartBody(t *testing.T, field string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xff}, f.size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	pool := worker.New(4, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})

	svc := batchService.NewBatchService(logger, batchRepository.NewMemory(logger), pool, stubPipeline{}, utils.New(), batchService.Config{
		StreamInterval: 5 * time.Millisecond,
		StreamMaxTicks: 5,
		Source:         fixedSource(0.9),
	})

	app := fiber.New(fiber.Config{
		BodyLimit:   100 * 1024 * 1024,
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
	})
	mw := middleware.New(logger, middleware.DefaultRateLimit)
	app.Use(mw.NewRequestIDMiddleware())

	h := New(logger, validator.New(), mw, svc, utils.New())
	h.Start(app.Group("/api/v1"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request, out any) int {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postBatch(t *testing.T, app *fiber.App, files ...upload) (int, map[string]any) {
	t.Helper()
	body, contentType := multipartBody(t, imagesField, files...)
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/process/batch", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	var out map[string]any
	status := doJSON(t, app, req, &out)
	return status, out
}

func TestCreateBatch_QueuesJobs(t *testing.T) {
	app := newTestApp(t)

	status, out := postBatch(t, app,
		upload{"a.jpg", "image/jpeg", 128},
		upload{"b.png", "image/png", 256},
	)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "2 images queued for processing", out["message"])

	jobs := out["jobs"].([]any)
	require.Len(t, jobs, 2)
	first := jobs[0].(map[string]any)
	assert.Equal(t, "a.jpg", first["fileName"])
	assert.Equal(t, "queued", first["status"])
	assert.Equal(t, float64(0), first["progress"])
	assert.True(t, strings.HasPrefix(first["id"].(string), "job_"))
}

func TestCreateBatch_RejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name  string
		files []upload
		want  string
	}{
		{"non image", []upload{{"a.jpg", "image/jpeg", 10}, {"notes.pdf", "application/pdf", 10}}, "Invalid file type: notes.pdf"},
		{"too large", []upload{{"big.jpg", "image/jpeg", utils.DefaultMaxImageSize + 1}}, "File too large: big.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			status, out := postBatch(t, app, tt.files...)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, tt.want, out["error"])

			var list map[string]any
			doJSON(t, app, httptest.NewRequest(fiber.MethodGet, "/api/v1/process/batch", nil), &list)
			assert.Empty(t, list["jobs"])
		})
	}
}

func TestCreateBatch_NoImages(t *testing.T) {
	app := newTestApp(t)

	status, out := postBatch(t, app)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "No images provided", out["error"])

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/process/batch", strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	var plain map[string]any
	assert.Equal(t, fiber.StatusBadRequest, doJSON(t, app, req, &plain))
}

func TestGetJobs(t *testing.T) {
	app := newTestApp(t)

	_, out := postBatch(t, app, upload{"a.jpg", "image/jpeg", 64})
	id := out["jobs"].([]any)[0].(map[string]any)["id"].(string)

	var job map[string]any
	require.Eventually(t, func() bool {
		job = nil
		status := doJSON(t, app, httptest.NewRequest(fiber.MethodGet, "/api/v1/process/batch?jobId="+id, nil), &job)
		return status == fiber.StatusOK && job["status"] == "completed"
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, float64(100), job["progress"])
	results := job["results"].(map[string]any)
	analysis := results["analysis"].(map[string]any)
	assert.Equal(t, map[string]any{"yolo": float64(1), "opencv": float64(0)}, analysis["detectionCount"])

	var list struct {
		Jobs []struct {
			ID             string  `json:"id"`
			Status         string  `json:"status"`
			ProcessingTime *string `json:"processingTime"`
		} `json:"jobs"`
	}
	require.Equal(t, fiber.StatusOK, doJSON(t, app, httptest.NewRequest(fiber.MethodGet, "/api/v1/process/batch", nil), &list))
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, id, list.Jobs[0].ID)
	require.NotNil(t, list.Jobs[0].ProcessingTime)
	assert.Regexp(t, `^\d+\.\d{2}s$`, *list.Jobs[0].ProcessingTime)
}

func TestGetJobs_UnknownJob(t *testing.T) {
	app := newTestApp(t)

	var out map[string]any
	status := doJSON(t, app, httptest.NewRequest(fiber.MethodGet, "/api/v1/process/batch?jobId=job_missing", nil), &out)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, map[string]any{"error": "Job not found"}, out)
}

func TestCancelJob(t *testing.T) {
	app := newTestApp(t)

	var out map[string]any
	status := doJSON(t, app, httptest.NewRequest(fiber.MethodDelete, "/api/v1/process/batch", nil), &out)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])

	status = doJSON(t, app, httptest.NewRequest(fiber.MethodDelete, "/api/v1/process/batch?jobId=job_missing", nil), &out)
	assert.Equal(t, fiber.StatusNotFound, status)

	_, created := postBatch(t, app, upload{"a.jpg", "image/jpeg", 64})
	id := created["jobs"].([]any)[0].(map[string]any)["id"].(string)
	require.Eventually(t, func() bool {
		var job map[string]any
		doJSON(t, app, httptest.NewRequest(fiber.MethodGet, "/api/v1/process/batch?jobId="+id, nil), &job)
		return job["status"] == "completed"
	}, 3*time.Second, 10*time.Millisecond)

	status = doJSON(t, app, httptest.NewRequest(fiber.MethodDelete, "/api/v1/process/batch?jobId="+id, nil), &out)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "job already finished", out["error"])
}

func TestStreamProgress_ServerSentEvents(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/process/stream?jobIds=job_1,%20job_2,", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(fiber.HeaderContentType))

	var events []entity.StreamEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev entity.StreamEvent
		require.NoError(t, jsoniter.UnmarshalFromString(strings.TrimPrefix(line, "data: "), &ev))
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, entity.StreamConnected, events[0].Type)
	assert.Equal(t, entity.StreamProgressUpdate, events[1].Type)
	require.Len(t, events[1].Updates, 2)
	assert.Equal(t, "job_1", events[1].Updates[0].JobID)
	assert.Equal(t, "job_2", events[1].Updates[1].JobID)
	assert.Equal(t, entity.StreamCompleted, events[2].Type)
}

func TestStreamWebSocket_RequiresUpgrade(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/process/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestParseJobIDs(t *testing.T) {
	assert.Equal(t, []string{}, parseJobIDs(""))
	assert.Equal(t, []string{"a", "b"}, parseJobIDs(" a, ,b,"))
}
