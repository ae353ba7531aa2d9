package httpserver

import (
	"context"
	"net/http"
	"strings"

	"clonedirect/internal/domain"
	"clonedirect/internal/transport"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dispatcher consumes normalized events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.Event) error
}

// inboundEvent is the webhook body. Choice presses arrive with a kind, text
// messages arrive with text only and are normalized here, so both entry
// points hand the core the same Event type.
type inboundEvent struct {
	UserID string `json:"user_id" binding:"required"`
	Kind   string `json:"kind"`
	Arg    string `json:"arg"`
	Text   string `json:"text"`
}

func eventsHandler(logger *zap.Logger, dispatcher Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in inboundEvent
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event body"})
			return
		}

		var ev domain.Event
		if strings.TrimSpace(in.Kind) != "" {
			ev = domain.Event{UserID: in.UserID, Kind: domain.EventKind(in.Kind), Arg: in.Arg}
		} else {
			ev = transport.MapText(in.UserID, in.Text)
		}

		if err := dispatcher.Dispatch(c.Request.Context(), ev); err != nil {
			logger.Error("dispatch failed",
				zap.String("user_id", ev.UserID),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}
