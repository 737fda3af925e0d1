package detectionHandler

import (
	"SmoothTrack/internal/api/detection"
	contextPkg "SmoothTrack/pkg/context"
	"SmoothTrack/pkg/response"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const (
	maxReadTimeout = 60 * time.Second
	frameTimeout   = 30 * time.Second
)

// handleFrameWebSocket runs a detector on every binary frame and replies with
// the same body the matching POST endpoint returns. The detector is chosen
// with ?detector=opencv; the default is yolo.
func (h *DetectionHandler) handleFrameWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals("X-Request-ID").(string)
	useEdges := c.Query("detector") == "opencv"

	h.log.WithField("request_id", requestID).Info("Frame detection WebSocket client connected")
	defer h.log.WithField("request_id", requestID).Info("Frame detection WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Frame WebSocket error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		result, err := h.detectFrame(requestID, useEdges, message)
		if err != nil {
			h.log.Errorf("Error processing frame: %v", err)
			result = frameError(useEdges, err)
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

func (h *DetectionHandler) detectFrame(requestID string, useEdges bool, frame []byte) (any, error) {
	if len(frame) == 0 {
		return nil, detection.ErrEmptyFrame
	}

	ctx, cancel := context.WithTimeout(contextPkg.Detached(requestID), frameTimeout)
	defer cancel()

	if useEdges {
		return h.detectionService.DetectEdges(ctx, detection.EdgeDetectRequest{}, frame)
	}
	return h.detectionService.DetectYOLO(ctx, detection.YOLODetectRequest{}, frame)
}

// frameError mirrors the HTTP error bodies: client errors carry their own
// message, detector failures the detector message with the cause in details.
func frameError(useEdges bool, err error) detection.FrameError {
	if _, ok := response.StatusOf(err); ok {
		return detection.FrameError{Error: err.Error()}
	}

	message := detection.YOLOFailedMessage
	if useEdges {
		message = detection.OpenCVFailedMessage
	}
	return detection.FrameError{Error: message, Details: err.Error()}
}
