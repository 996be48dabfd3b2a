package devtools

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/vstore/pkg/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageType identifies a devtools stream message.
type MessageType string

const (
	MessageStoreAdded MessageType = "store"
	MessageMutation   MessageType = "mutation"
)

// Message is sent to devtools clients over the WebSocket stream.
type Message struct {
	Type     MessageType           `json:"type"`
	StoreID  string                `json:"storeId"`
	Store    string                `json:"store"`
	Mutation *store.MutationRecord `json:"mutation,omitempty"`
	State    map[string]any        `json:"state,omitempty"`
}

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// client is one WebSocket connection with its own write loop. Messages
// that do not fit the send buffer are dropped for that client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans devtools messages out to connected WebSocket clients.
type Hub struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // devtools is a local inspection endpoint
			},
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and streams messages until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("devtools client connected", "remote", req.RemoteAddr)

	go h.writeLoop(c)

	// Incoming messages are ignored; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(c)
	h.logger.Debug("devtools client disconnected", "remote", req.RemoteAddr)
}

func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
}

// drop unregisters c and closes its connection. Safe to call repeatedly.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	c.conn.Close()
}

// Publish encodes msg once and queues it for every client. The message is
// encoded before Publish returns, so it may reference live state.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("devtools message not encodable", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("devtools client too slow; message dropped")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
}
