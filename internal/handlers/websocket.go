package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from the same origin in production; development
	// builds run the editor on a separate port.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is a progress or log message streamed to connected UI clients
type Event struct {
	Type      string      `json:"type"` // "log" or "scan"
	Timestamp string      `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// WebSocketHandler fans progress events out to connected clients
type WebSocketHandler struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan Event
	logger  arbor.ILogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		clients: map[*websocket.Conn]chan Event{},
		logger:  logger,
	}
}

// HandleWebSocket upgrades the connection and starts the write pump
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	events := make(chan Event, 256)
	h.mu.Lock()
	h.clients[conn] = events
	h.mu.Unlock()

	h.logger.Debug().Msg("WebSocket client connected")

	go h.writePump(conn, events)
	go h.readPump(conn)
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, events chan Event) {
	defer h.drop(conn)
	for event := range events {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// readPump discards client messages and detects disconnects
func (h *WebSocketHandler) readPump(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if events, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(events)
	}
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends an event to every connected client. Slow clients are
// skipped rather than blocking the run.
func (h *WebSocketHandler) Broadcast(eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().Format("15:04:05.000"),
		Payload:   payload,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, events := range h.clients {
		select {
		case events <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
