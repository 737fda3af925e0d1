package detectionHandler

import (
	detectionService "SmoothTrack/internal/api/detection/service"
	"SmoothTrack/internal/middleware"
	"SmoothTrack/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type DetectionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
	utils utils.IUtils,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		log:              log,
		validator:        validator,
		middleware:       middleware,
		utils:            utils,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	detect := srv.Group("/detect")
	detect.Post("/yolo", h.middleware.NewRateLimiter, h.DetectYOLO)
	detect.Get("/yolo", h.YOLOInfo)
	detect.Post("/opencv", h.middleware.NewRateLimiter, h.DetectEdges)
	detect.Get("/opencv", h.EdgeInfo)

	detect.Use("/ws", wsMiddleware)
	detect.Get("/ws", websocket.New(h.handleFrameWebSocket))

	srv.Post("/analyze", h.Analyze)
}
