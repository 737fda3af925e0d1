package batchHandler

import (
	"SmoothTrack/internal/entity"
	contextPkg "SmoothTrack/pkg/context"
	"SmoothTrack/pkg/log"
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"golang.org/x/net/context"
)

const writeTimeout = 10 * time.Second

func parseJobIDs(raw string) []string {
	ids := make([]string, 0)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// StreamProgress serves job progress as server-sent events.
func (h *BatchHandler) StreamProgress(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	jobIDs := parseJobIDs(ctx.Query("jobIds"))

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"job_count":  len(jobIDs),
	}).Debug("Opening progress stream")

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	// The writer outlives the handler; nothing from ctx may be used inside it.
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		streamCtx, cancel := context.WithCancel(contextPkg.Detached(requestID))
		defer cancel()

		err := h.batchService.StreamProgress(streamCtx, jobIDs, func(event entity.StreamEvent) error {
			payload, err := jsoniter.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return err
			}
			return w.Flush()
		})

		h.logStreamEnd(requestID, "sse", err)
	}))

	return nil
}

func (h *BatchHandler) handleStreamWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals("X-Request-ID").(string)
	jobIDs := parseJobIDs(c.Query("jobIds"))

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"job_count":  len(jobIDs),
	}).Info("Progress WebSocket client connected")

	streamCtx, cancel := context.WithCancel(contextPkg.Detached(requestID))
	defer cancel()

	// A read error means the client went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err := h.batchService.StreamProgress(streamCtx, jobIDs, func(event entity.StreamEvent) error {
		if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
		return c.WriteJSON(event)
	})

	if err == nil {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Processing completed"),
			time.Now().Add(time.Second))
	}

	h.logStreamEnd(requestID, "websocket", err)
}

func (h *BatchHandler) logStreamEnd(requestID, transport string, err error) {
	fields := log.Fields{
		"request_id": requestID,
		"transport":  transport,
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fields["error"] = err.Error()
		h.log.WithFields(fields).Warn("Progress stream ended early")
		return
	}

	h.log.WithFields(fields).Debug("Progress stream closed")
}
