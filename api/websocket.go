package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a pipeline event sent over WebSocket connections. AppID scopes
// the event to one application; events with an empty AppID (stage updates from
// a run whose application id is not yet assigned) go to every client.
type WSMessage struct {
	Type  string `json:"type"`
	AppID string `json:"app_id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// wsReplayDepth is how many recent events a freshly connected client receives,
// so a dashboard that reconnects mid-pipeline still sees what happened.
const wsReplayDepth = 16

// WSHub fans pipeline events out to connected dashboard clients.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	recent     []WSMessage
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection. watch, when set, narrows
// delivery to events for that application id (plus unscoped events).
type WSClient struct {
	hub    *WSHub
	send   chan WSMessage
	mu     sync.Mutex
	watch  string
	closed bool
}

// setWatch updates the client's application filter. Empty clears it.
func (c *WSClient) setWatch(appID string) {
	c.mu.Lock()
	c.watch = appID
	c.mu.Unlock()
}

// closeSend closes the send channel exactly once. The hub calls it when
// dropping a client; the closed flag keeps trySend from writing to a
// channel the hub already closed.
func (c *WSClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// trySend queues a reply for the client. Dropped or backed-up clients
// lose the message instead of blocking the caller.
func (c *WSClient) trySend(msg WSMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// wants reports whether msg should be delivered to this client.
func (c *WSClient) wants(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watch == "" || msg.AppID == "" || msg.AppID == c.watch
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			// Replay recent events so late joiners catch up.
			for _, msg := range h.recent {
				select {
				case client.send <- msg:
				default:
				}
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			h.recent = append(h.recent, msg)
			if len(h.recent) > wsReplayDepth {
				h.recent = h.recent[len(h.recent)-wsReplayDepth:]
			}
			for client := range h.clients {
				if !client.wants(msg) {
					continue
				}
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					delete(h.clients, client)
					client.closeSend()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a pipeline event to all connected clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

// ============================================================
// Connection handling
// ============================================================

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// handleWebSocket upgrades HTTP connections to WebSocket and streams
// pipeline stage events and completed-analysis notifications.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}

	s.wsHub.Register(client)

	// Start reader and writer goroutines
	go wsWritePump(conn, client)
	go wsReadPump(conn, client, s)
}

// wsReadPump pumps messages from the WebSocket connection to the hub.
func wsReadPump(conn *websocket.Conn, client *WSClient, s *Server) {
	defer func() {
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		// Parse incoming message
		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		// Clients can narrow the stream to one application, or widen it back.
		switch msg.Type {
		case "watch":
			client.setWatch(msg.AppID)
			client.trySend(WSMessage{Type: "watching", AppID: msg.AppID})
		case "unwatch":
			client.setWatch("")
			client.trySend(WSMessage{Type: "watching"})
		case "ping":
			client.trySend(WSMessage{Type: "pong"})
		}
	}
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("WebSocket marshal error: %v", err)
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Flush queued messages
			n := len(client.send)
			for i := 0; i < n; i++ {
				nextMsg := <-client.send
				nextData, err := json.Marshal(nextMsg)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, nextData); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
