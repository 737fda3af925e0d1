package middleware

import (
	"SmoothTrack/pkg/log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const maxLoggedBody = 2048

type loggingMiddleware struct {
	logger *logrus.Logger
}

func newLoggingMiddleware(logger *logrus.Logger) *loggingMiddleware {
	return &loggingMiddleware{
		logger: logger,
	}
}

func (m *middleware) NewLoggingMiddleware() fiber.Handler {
	return m.loggingMiddleware.handle
}

func (l *loggingMiddleware) handle(c *fiber.Ctx) error {
	start := time.Now()

	requestID, ok := c.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		requestID = "unknown"
	}

	c.Locals(log.RequestIDKey, requestID)

	err := c.Next()

	latency := time.Since(start)
	status := c.Response().StatusCode()

	if err != nil && status == fiber.StatusInternalServerError {
		return err
	}

	logFields := log.Fields{
		"request_id": requestID,
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     status,
		"latency_ms": latency.Milliseconds(),
		"ip":         c.IP(),
		"user_agent": c.Get("User-Agent"),
	}

	if !c.Response().IsBodyStream() {
		logFields["response_size"] = len(c.Response().Body())
	}

	if body := describeRequestBody(c); body != "" {
		logFields["request_body"] = body
	}

	entry := l.logger.WithFields(logFields)
	switch {
	case status >= 500:
		entry.Error("Server error")
	case status >= 400:
		entry.Warn("Client error")
	default:
		entry.Info("Success")
	}

	return err
}

// describeRequestBody keeps image uploads out of the log.
func describeRequestBody(c *fiber.Ctx) string {
	body := c.Request().Body()
	if len(body) == 0 {
		return ""
	}

	contentType := string(c.Request().Header.ContentType())
	if strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return "[multipart body]"
	}

	if !jsoniter.Valid(body) {
		return "[non-JSON body]"
	}
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "...[truncated]"
	}

	return string(body)
}
