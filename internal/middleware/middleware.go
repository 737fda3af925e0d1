package middleware

import (
	"SmoothTrack/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewLoggingMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

// RateLimit configures the per-IP token bucket.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

var DefaultRateLimit = RateLimit{RequestsPerSecond: 50, Burst: 100}

type middleware struct {
	rateLimitter        *rateLimiter
	loggingMiddleware   *loggingMiddleware
	requestIDMiddleware fiber.Handler
	log                 *logrus.Logger
}

func New(logger *logrus.Logger, limit RateLimit) Middleware {
	if limit.RequestsPerSecond <= 0 {
		limit.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if limit.Burst <= 0 {
		limit.Burst = DefaultRateLimit.Burst
	}

	rateLimit := newRateLimiter(rate.Limit(limit.RequestsPerSecond), limit.Burst)
	logging := newLoggingMiddleware(logger)
	requestID := newRequestIDMiddleware(utils.New())

	return &middleware{
		rateLimitter:        rateLimit,
		loggingMiddleware:   logging,
		requestIDMiddleware: requestID,
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}
