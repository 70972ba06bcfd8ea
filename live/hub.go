package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Message is what board clients receive for every session event.
type Message struct {
	Type      string      `json:"type"` // ROUND_CREATED, MATCH_SCORED, ...
	Payload   interface{} `json:"payload"`
	SessionID int         `json:"session_id"`
	SentAt    time.Time   `json:"sent_at"`
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID int

	mu     sync.Mutex
	closed bool
}

// Hub keeps one room of websocket clients per session and fans session
// events out to them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[int]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
	now        func() time.Time
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger.With("component", "live_hub"),
		now:        time.Now,
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.sessionID]; !ok {
				h.rooms[client.sessionID] = make(map[*Client]bool)
			}
			h.rooms[client.sessionID][client] = true
			n := len(h.rooms[client.sessionID])
			h.mu.Unlock()
			h.logger.Debug("client registered", slog.Int("session_id", client.sessionID), slog.Int("clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, room := range h.rooms {
				for client := range room {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	room, ok := h.rooms[client.sessionID]
	if !ok || !room[client] {
		return
	}
	client.close()
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.sessionID)
		h.logger.Debug("room closed", slog.Int("session_id", client.sessionID))
		return
	}
	h.logger.Debug("client unregistered", slog.Int("session_id", client.sessionID), slog.Int("clients", len(room)))
}

// Clients returns how many clients are listening to a session.
func (h *Hub) Clients(sessionID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// TotalClients counts connected clients across all sessions.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Publish broadcasts an event to everyone watching the session. Slow clients
// whose buffers are full miss the message.
func (h *Hub) Publish(sessionID int, eventType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(Message{Type: eventType, Payload: payload, SessionID: sessionID, SentAt: h.now().UTC()})
	if err != nil {
		h.logger.Error("failed to marshal event", slog.String("type", eventType), slog.Int("session_id", sessionID), slog.Any("error", err))
		return
	}

	for client := range room {
		if !client.trySend(data) {
			h.logger.Warn("client send buffer full, event dropped", slog.Int("session_id", sessionID), slog.String("type", eventType))
		}
	}
}

// Attach registers a websocket connection for the session and starts its
// read and write pumps. A stopped hub closes the connection right away.
func (h *Hub) Attach(conn *websocket.Conn, sessionID int) bool {
	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return false
	}
	go client.writePump()
	go client.readPump()
	return true
}

func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump only keeps the connection alive; clients do not send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket closed unexpectedly", slog.Int("session_id", c.sessionID), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one event per frame so clients can decode each message on its own
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("websocket write failed", slog.Int("session_id", c.sessionID), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
