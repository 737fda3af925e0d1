package detectionHandler

import (
	"SmoothTrack/internal/api/detection"
	contextPkg "SmoothTrack/pkg/context"
	"SmoothTrack/pkg/handlerUtil"
	"SmoothTrack/pkg/log"
	"SmoothTrack/pkg/response"
	"SmoothTrack/pkg/utils"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const (
	imageField     = "image"
	detectTimeout  = 30 * time.Second
	defaultTimeout = 10 * time.Second
)

// readImage validates the uploaded image before anything else is parsed.
func (h *DetectionHandler) readImage(ctx *fiber.Ctx) ([]byte, error) {
	file, err := ctx.FormFile(imageField)
	if err != nil {
		return nil, utils.ErrNoImage
	}

	if err := h.utils.ValidateImageFile(file); err != nil {
		return nil, err
	}

	return h.utils.ReadFile(file)
}

// detectionError maps a service failure onto the response for the detector.
func (h *DetectionHandler) detectionError(ctx *fiber.Ctx, errHandler *handlerUtil.ErrorHandler, requestID, message string, err error, operation string) error {
	if _, ok := response.StatusOf(err); ok {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), operation)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleProcessingError(ctx, requestID, message, err, ctx.Path(), operation)
	}
}

func (h *DetectionHandler) DetectYOLO(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), detectTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing YOLO detection request")

	image, err := h.readImage(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
	}

	var req detection.YOLODetectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.detectionService.DetectYOLO(c, req, image)
	if err != nil {
		return h.detectionError(ctx, errHandler, requestID, detection.YOLOFailedMessage, err, "detect_yolo")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":      requestID,
			"path":            ctx.Path(),
			"detections":      len(result.Detections),
			"processing_time": result.ProcessingTime,
		}).Info("YOLO detection successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *DetectionHandler) DetectEdges(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), detectTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing OpenCV detection request")

	image, err := h.readImage(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
	}

	var req detection.EdgeDetectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.detectionService.DetectEdges(c, req, image)
	if err != nil {
		return h.detectionError(ctx, errHandler, requestID, detection.OpenCVFailedMessage, err, "detect_opencv")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":      requestID,
			"path":            ctx.Path(),
			"method":          result.Parameters.Method,
			"detections":      len(result.Detections),
			"processing_time": result.ProcessingTime,
		}).Info("OpenCV detection successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *DetectionHandler) YOLOInfo(ctx *fiber.Ctx) error {
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, h.detectionService.YOLOInfo())
}

func (h *DetectionHandler) EdgeInfo(ctx *fiber.Ctx) error {
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, h.detectionService.EdgeInfo())
}

func (h *DetectionHandler) Analyze(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), defaultTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req detection.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result := h.detectionService.Analyze(c, req)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}
