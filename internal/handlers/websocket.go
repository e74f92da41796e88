package handlers

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// LogEntry is the log feed payload pushed to connected clients
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// WebSocketHandler serves answer streams over WebSocket connections and
// broadcasts server logs to every connected client.
type WebSocketHandler struct {
	agentService     interfaces.AgentService
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	serverInstanceID string // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(agentService interfaces.AgentService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		agentService:     agentService,
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")
	return h
}

// HandleWebSocket handles GET /ws upgrades. Each JSON message on the
// socket is an answer request; the events for it are written back as JSON
// frames in order. One request runs at a time per connection.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.register(conn)
	defer h.unregister(conn)

	h.writeJSON(conn, map[string]interface{}{
		"type":               "connected",
		"server_instance_id": h.serverInstanceID,
	})

	for {
		var req interfaces.AnswerRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		if req.Query == "" {
			h.writeJSON(conn, models.ErrorEvent("query field is required"))
			continue
		}

		events := h.agentService.Answer(r.Context(), req)
		for event := range events {
			if err := h.writeJSON(conn, event); err != nil {
				h.logger.Warn().Err(err).Msg("WebSocket write failed during event stream")
				return
			}
		}
	}
}

// BroadcastLog sends a log entry to every connected client. Writes that
// fail drop the client.
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	payload := map[string]interface{}{
		"type": "log",
		"data": entry,
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := h.writeJSON(conn, payload); err != nil {
			h.unregister(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHandler) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client connected")
}

func (h *WebSocketHandler) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn)
	delete(h.clientMutex, conn)
	count := len(h.clients)
	h.mu.Unlock()

	conn.Close()
	h.logger.Debug().Int("clients", count).Msg("WebSocket client disconnected")
}

// writeJSON serializes writes per connection; gorilla conns do not allow
// concurrent writers.
func (h *WebSocketHandler) writeJSON(conn *websocket.Conn, v interface{}) error {
	h.mu.RLock()
	mu, ok := h.clientMutex[conn]
	h.mu.RUnlock()
	if !ok {
		return websocket.ErrCloseSent
	}

	mu.Lock()
	defer mu.Unlock()
	return conn.WriteJSON(v)
}
