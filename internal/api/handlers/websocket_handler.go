package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/pose"
	"github.com/health-dashboard/backend/pkg/logger"
)

// WebSocketHandler streams live pose analysis. The client sends one frame
// per message ({"landmarks": [...]}) and receives one update per frame. A
// {"type": "stop"} message or closing the socket ends the capture.
type WebSocketHandler struct{}

func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{}
}

// Upgrade rejects plain HTTP requests to the websocket route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	mode := pose.Mode(c.Query("mode", string(pose.ModeReps)))
	exercise := c.Query("exercise")

	logger.Info("Pose stream opened", zap.String("mode", string(mode)), zap.String("exercise", exercise))

	defer func() {
		c.Close()
		logger.Info("Pose stream closed")
	}()

	task, err := pose.NewTask(mode, exercise)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan pose.Frame)
	updates := make(chan pose.Update, 16)

	go func() {
		defer close(updates)
		if err := task.Run(ctx, pose.ChannelSource(frames), updates); err != nil && ctx.Err() == nil {
			logger.Error("Pose task failed", zap.Error(err))
		}
	}()

	written := make(chan struct{})
	go func() {
		defer close(written)
		for u := range updates {
			if err := c.WriteJSON(fiber.Map{"type": "update", "update": u}); err != nil {
				logger.Debug("Failed to write pose update", zap.Error(err))
				cancel()
				return
			}
		}
	}()

	h.readFrames(ctx, c, frames)
	close(frames)
	<-written
}

func (h *WebSocketHandler) readFrames(ctx context.Context, c *websocket.Conn, frames chan<- pose.Frame) {
	for {
		var msg struct {
			Type      string          `json:"type"`
			Landmarks []pose.Landmark `json:"landmarks"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Failed to read pose frame", zap.Error(err))
			}
			return
		}

		if msg.Type == "stop" {
			return
		}

		select {
		case frames <- pose.Frame{Landmarks: msg.Landmarks}:
		case <-ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}
