package middleware

import (
	"SmoothTrack/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDKey       = "X-Request-ID"
	requestIDPrefix    = "req"
	maxClientRequestID = 128
)

// newRequestIDMiddleware echoes a usable client id or issues a "req_<ulid>".
// Client ids that are too long or carry control characters are replaced so
// they cannot pollute log lines.
func newRequestIDMiddleware(ids utils.IUtils) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if !validClientRequestID(requestID) {
			requestID, _ = ids.NewPrefixedID(requestIDPrefix, time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}

func validClientRequestID(id string) bool {
	if id == "" || len(id) > maxClientRequestID {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
