// Package monitor fans decoded frame activity out to WebSocket clients so
// a browser can watch gateway traffic live.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kc1awv/m17-core/internal/cors"
	log "github.com/kc1awv/m17-core/internal/logger"
	"github.com/kc1awv/m17-core/internal/status"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultPongWait     = 60 * time.Second
	writeTimeout        = 10 * time.Second
	sendBuffer          = 32
)

// ServerMessage is the envelope for every message pushed to a client.
type ServerMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WelcomeMessage greets a client with its session id.
type WelcomeMessage struct {
	SessionID string `json:"session_id"`
	Server    string `json:"server"`
}

// FrameEvent describes one decoded frame.
type FrameEvent struct {
	Kind        string `json:"kind"` // "stream", "control"
	StreamID    uint16 `json:"stream_id,omitempty"`
	Src         string `json:"src,omitempty"`
	Dst         string `json:"dst,omitempty"`
	TypeField   uint16 `json:"type_field,omitempty"`
	FrameNumber uint16 `json:"frame_number,omitempty"`
	EOT         bool   `json:"eot,omitempty"`
	Control     string `json:"control,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan ServerMessage
}

// Config carries the hub's tunables.
type Config struct {
	Origins      cors.Rules
	ServerName   string
	PingInterval time.Duration
	PongWait     time.Duration
	MaxClients   int
}

// Hub tracks connected monitor clients and broadcasts frame events.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(cfg Config) *Hub {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}

	h := &Hub{
		cfg:     cfg,
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return cfg.Origins.Allow(origin)
		},
	}
	return h
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a frame event for every connected client. Slow clients
// drop events rather than stalling the gateway.
func (h *Hub) Broadcast(ev FrameEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warn("Error marshaling frame event", "err", err)
		return
	}
	msg := ServerMessage{Type: "frame", Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Debug("Client send buffer full, dropping event", "session", c.id)
		}
	}
}

// HandleWS upgrades the request and runs the client session.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MaxClients > 0 && h.Count() >= h.cfg.MaxClients {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("WebSocket upgrade failed", "err", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan ServerMessage, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()
	status.SetMonitorClients(count)
	log.Info("Monitor client connected", "session", c.id, "clients", count)

	welcome, err := json.Marshal(WelcomeMessage{SessionID: c.id, Server: h.cfg.ServerName})
	if err == nil {
		c.send <- ServerMessage{Type: "welcome", Data: welcome}
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	count := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
	status.SetMonitorClients(count)
	log.Info("Monitor client disconnected", "session", c.id, "clients", count)
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(1024)
	if err := c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		// clients only send pongs and close frames; discard the rest
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CloseAll disconnects every client, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
}
