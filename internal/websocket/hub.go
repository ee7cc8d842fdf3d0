package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"charachat/internal/middleware"
	"charachat/internal/models"
	"charachat/internal/services"
)

const maxFrameBytes = 64 << 10

// Relayer is the part of services.RelayService the hub needs.
type Relayer interface {
	Send(ctx context.Context, call services.Call) (string, error)
}

type client struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// Hub serves the chat relay over WebSocket connections: one ChatRequest frame
// in, one SocketFrame out, in order per connection.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*client
	relay       Relayer
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewHub creates a hub. allowedOrigin follows the CORS setting; "*" accepts
// any origin.
func NewHub(relay Relayer, allowedOrigin string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		connections: make(map[uuid.UUID]*client),
		relay:       relay,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigin, origin)
			},
		},
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(r.Context())
	id := uuid.New()
	h.register(id, &client{conn: conn, cancel: cancel})
	defer h.unregister(id)

	requestID := middleware.GetRequestID(r.Context())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", "conn_id", id, "error", err)
			}
			return
		}

		frame := h.handleFrame(ctx, requestID, data)
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Warn("websocket write failed", "conn_id", id, "error", err)
			return
		}
	}
}

func (h *Hub) handleFrame(ctx context.Context, requestID string, data []byte) models.SocketFrame {
	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		return models.SocketFrame{Type: models.FrameError, Error: services.MsgMessageRequired, Status: http.StatusBadRequest}
	}

	reply, err := h.relay.Send(ctx, services.Call{
		RequestID: requestID,
		Transport: models.TransportWS,
		Message:   req.Message,
	})
	if err != nil {
		status, msg := services.StatusOf(err)
		return models.SocketFrame{Type: models.FrameError, Error: msg, Status: status}
	}

	return models.SocketFrame{Type: models.FrameReply, Reply: reply}
}

func (h *Hub) register(id uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[id] = c
	h.logger.Info("websocket connected", "conn_id", id, "total", len(h.connections))
}

func (h *Hub) unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.connections[id]
	if !ok {
		return
	}
	c.cancel()
	c.conn.Close()
	delete(h.connections, id)

	h.logger.Info("websocket disconnected", "conn_id", id, "total", len(h.connections))
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// CloseAll cancels in-flight relay calls and closes every connection. The
// read loops then unwind on their own.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections {
		c.cancel()
		c.conn.Close()
	}
}
