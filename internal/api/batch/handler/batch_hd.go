package batchHandler

import (
	"SmoothTrack/internal/api/batch"
	"SmoothTrack/internal/entity"
	contextPkg "SmoothTrack/pkg/context"
	"SmoothTrack/pkg/handlerUtil"
	"SmoothTrack/pkg/log"
	"SmoothTrack/pkg/response"
	"SmoothTrack/pkg/utils"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const imagesField = "images"

func (h *BatchHandler) CreateBatch(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing create batch request")

	form, err := ctx.MultipartForm()
	if err != nil {
		return errHandler.Handle(ctx, requestID, batch.ErrNoImages, ctx.Path(), "parse_multipart")
	}

	headers := form.File[imagesField]
	if len(headers) == 0 {
		return errHandler.Handle(ctx, requestID, batch.ErrNoImages, ctx.Path(), "parse_multipart")
	}

	for _, header := range headers {
		if err := h.utils.ValidateImageFile(header); err != nil {
			return errHandler.Handle(ctx, requestID, fileError(header, err), ctx.Path(), "validate_images")
		}
	}

	// The multipart form is released once the handler returns, so the bytes
	// are copied out before the jobs are queued.
	uploads := make([]batch.UploadedFile, 0, len(headers))
	for _, header := range headers {
		data, err := h.utils.ReadFile(header)
		if err != nil {
			return errHandler.HandleProcessingError(ctx, requestID, batch.ProcessingFailedMessage, err, ctx.Path(), "read_images")
		}
		uploads = append(uploads, batch.UploadedFile{FileName: header.Filename, Data: data})
	}

	jobs, err := h.batchService.CreateBatch(c, uploads)
	if err != nil {
		if _, ok := response.StatusOf(err); ok {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_batch")
		}
		return errHandler.HandleProcessingError(ctx, requestID, batch.ProcessingFailedMessage, err, ctx.Path(), "create_batch")
	}

	summaries := make([]batch.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, toSummary(job))
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, batch.CreateBatchResponse{
			Success: true,
			Message: fmt.Sprintf("%d images queued for processing", len(jobs)),
			Jobs:    summaries,
		})
	}
}

func (h *BatchHandler) GetJobs(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var query batch.JobQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if query.JobID != "" {
		job, err := h.batchService.GetJob(c, query.JobID)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_job")
		}

		select {
		case <-c.Done():
			return errHandler.HandleRequestTimeout(ctx)
		default:
			return errHandler.HandleSuccess(ctx, fiber.StatusOK, job)
		}
	}

	jobs, err := h.batchService.ListJobs(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_jobs")
	}

	items := make([]batch.JobListItem, 0, len(jobs))
	for _, job := range jobs {
		item := batch.JobListItem{JobSummary: toSummary(job)}
		if job.StartTime != nil && job.EndTime != nil {
			elapsed := fmt.Sprintf("%.2fs", job.ProcessingTime().Seconds())
			item.ProcessingTime = &elapsed
		}
		items = append(items, item)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, batch.JobListResponse{Jobs: items})
	}
}

func (h *BatchHandler) CancelJob(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var query batch.JobQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if query.JobID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("jobId is required"), ctx.Path())
	}

	job, err := h.batchService.CancelJob(c, query.JobID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "cancel_job")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"job_id":     job.ID,
	}).Info("Job cancelled")

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, batch.CancelJobResponse{
			Success: true,
			Message: "Job cancelled",
			Job:     toSummary(job),
		})
	}
}

func toSummary(job entity.Job) batch.JobSummary {
	return batch.JobSummary{
		ID:       job.ID,
		FileName: job.FileName,
		Status:   string(job.Status),
		Progress: job.Progress,
	}
}

func fileError(header *multipart.FileHeader, err error) error {
	switch {
	case errors.Is(err, utils.ErrInvalidFileType):
		return batch.InvalidFileType(header.Filename)
	case errors.Is(err, utils.ErrFileTooLarge):
		return batch.FileTooLarge(header.Filename)
	default:
		return err
	}
}
