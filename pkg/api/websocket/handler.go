package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // spell editors are served from other origins
	},
}

// Handler handles WebSocket connections
type Handler struct {
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		logger:   logger,
	}
}

// HandleSpellStream streams the events of one execution until the client
// disconnects or the execution reaches a terminal state
func (h *Handler) HandleSpellStream(c *gin.Context) {
	executionID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("execution_id", executionID),
		zap.String("client", c.ClientIP()))

	eventChan := make(chan domain.Event, 32)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// a read loop is needed to notice the client closing the socket
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.subscribe(ctx, executionID, eventChan); err != nil {
		h.logger.Error("failed to subscribe to events",
			zap.String("execution_id", executionID),
			zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChan:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}

			if isFinal(event.Type) {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(event.Type)))
				return
			}
		}
	}
}

// subscribe forwards the events of executionID on both topics to ch
func (h *Handler) subscribe(ctx context.Context, executionID string, ch chan<- domain.Event) error {
	eventHandler := func(pubCtx context.Context, event domain.Event) error {
		if event.ExecutionID != executionID {
			return nil
		}

		// the final event closes the stream and is never dropped
		if isFinal(event.Type) {
			select {
			case ch <- event:
			case <-ctx.Done():
			case <-pubCtx.Done():
				return pubCtx.Err()
			}
			return nil
		}

		select {
		case ch <- event:
		case <-pubCtx.Done():
			return pubCtx.Err()
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}

	for _, topic := range []string{domain.TopicSpellEvents, domain.TopicNodeEvents} {
		if err := h.eventBus.Subscribe(ctx, topic, eventHandler); err != nil {
			return err
		}
	}
	return nil
}

func isFinal(t domain.EventType) bool {
	switch t {
	case domain.EventTypeSpellCompleted, domain.EventTypeSpellFailed, domain.EventTypeSpellCancelled:
		return true
	}
	return false
}
