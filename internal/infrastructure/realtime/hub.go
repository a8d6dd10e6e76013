// Package realtime pushes notification frames to connected browsers over WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopfront/backend/internal/application/notification"
	"go.uber.org/zap"
)

var _ notification.Pusher = (*Hub)(nil)

// Frame is the JSON envelope of every pushed message
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// HubConfig holds connection tuning
type HubConfig struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	MaxMessageSize int64
	// AllowedOrigins lists browser origins allowed to connect. Empty allows any.
	AllowedOrigins []string
}

// DefaultHubConfig returns the default connection tuning
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBuffer:     32,
		MaxMessageSize: 4 << 10,
	}
}

type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
	done   chan struct{}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks open sockets per user. A user may hold many connections.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
	closed  bool
}

// NewHub creates a new Hub
func NewHub(config HubConfig, logger *zap.Logger) *Hub {
	defaults := DefaultHubConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}

	h := &Hub{
		config:  config,
		logger:  logger,
		clients: make(map[uuid.UUID]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Serve upgrades the request and blocks until the connection closes.
// The caller has already authenticated userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, h.config.SendBuffer),
		done:   make(chan struct{}),
	}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.config.WriteTimeout))
		return conn.Close()
	}
	defer h.unregister(c)

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Push sends a frame to every connection of the user. Clients whose send
// buffer is full are disconnected.
func (h *Hub) Push(_ context.Context, userID uuid.UUID, frameType string, data any) {
	payload, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		h.logger.Error("failed to encode frame", zap.String("type", frameType), zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		select {
		case <-c.done:
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow websocket client", zap.String("user_id", userID.String()))
			c.close()
		}
	}
}

// Connections returns the number of open connections for a user
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("websocket connected",
		zap.String("user_id", c.userID.String()),
		zap.Int("connections", len(set)))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()
	_ = c.conn.Close()
}

// readPump discards client input; it exists to process control frames and
// notice disconnects.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(h.config.MaxMessageSize)
	pongWait := h.config.PingInterval * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		<-c.done
		// unblock ReadMessage when the writer gives up
		_ = c.conn.SetReadDeadline(time.Now())
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			c.close()
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(h.config.WriteTimeout))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.config.WriteTimeout)); err != nil {
				c.close()
				return
			}
		}
	}
}
