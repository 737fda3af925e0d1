package batchHandler

import (
	batchService "SmoothTrack/internal/api/batch/service"
	"SmoothTrack/internal/middleware"
	"SmoothTrack/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type BatchHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	batchService batchService.IBatchService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	bs batchService.IBatchService,
	utils utils.IUtils,
) *BatchHandler {
	return &BatchHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		batchService: bs,
		utils:        utils,
	}
}

func (h *BatchHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	process := srv.Group("/process")

	process.Post("/batch", h.middleware.NewRateLimiter, h.CreateBatch)
	process.Get("/batch", h.GetJobs)
	process.Delete("/batch", h.CancelJob)
	process.Get("/stream", h.StreamProgress)

	process.Use("/ws", wsMiddleware)
	process.Get("/ws", websocket.New(h.handleStreamWebSocket))
}
