package api

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/thereceipt/receipt-templater/internal/errors"
)

// WebSocket message types
const (
	EventJobStatus = "job_status"
	EventResponse  = "response"
	EventError     = "error"
)

// WSMessage represents a WebSocket message. Inbound messages name an
// order or service event and carry its data record.
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// Hub tracks connected clients for broadcasts.
type Hub struct {
	clients map[*WSClient]bool
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*WSClient]bool),
		logger:  logger,
	}
}

func (h *Hub) add(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

func (h *Hub) remove(client *WSClient) {
	h.mu.Lock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. Clients whose buffer is full
// miss the message.
func (h *Hub) Broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.Warn().Str("event", msg.Event).Msg("WebSocket client buffer full, dropping message")
		}
	}
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}
	s.hub.add(client)
	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("WebSocket client connected")

	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.logger.Debug().Err(err).Msg("WebSocket write error")
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.hub.remove(c)
		c.conn.Close()
		c.server.logger.Info().Msg("WebSocket client disconnected")
	}()

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// handleMessage prints the template bound to the message's event.
func (c *WSClient) handleMessage(msg *WSMessage) {
	if msg.Event == "" {
		c.sendError("event is required", nil)
		return
	}

	var data interface{}
	if msg.Data != nil {
		data = msg.Data
	}
	jobID, doc, err := c.server.engine.HandleEvent(context.Background(), msg.Event, data)
	if err != nil {
		details := map[string]interface{}{"event": msg.Event}
		if doc != nil {
			details["outcome"] = doc.Outcome
		}
		c.sendError(errors.UserMessage(err), map[string]interface{}{
			"event":     msg.Event,
			"errorType": errors.CategoryOf(err),
			"details":   details,
			"message":   err.Error(),
		})
		return
	}

	c.sendResponse(map[string]interface{}{
		"success": true,
		"event":   msg.Event,
		"job_id":  jobID,
	})
}

func (c *WSClient) sendResponse(data map[string]interface{}) {
	c.trySend(WSMessage{Event: EventResponse, Data: data})
}

func (c *WSClient) sendError(message string, extra map[string]interface{}) {
	data := map[string]interface{}{"error": message}
	for k, v := range extra {
		data[k] = v
	}
	c.trySend(WSMessage{Event: EventError, Data: data})
}

func (c *WSClient) trySend(msg WSMessage) {
	c.server.hub.mu.RLock()
	defer c.server.hub.mu.RUnlock()
	if !c.server.hub.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
