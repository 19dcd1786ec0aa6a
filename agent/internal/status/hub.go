package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/savewarden/savewarden/agent/internal/stats"
	"github.com/savewarden/savewarden/pkg/types"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the connection
	// as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

// Message kinds sent on the event feed.
const (
	MessageStats = "stats"
	MessageEvent = "event"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The server is meant to listen on loopback only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to feed clients.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans monitor events and periodic stats out to WebSocket clients.
type Hub struct {
	counters *stats.Counters
	interval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a Hub that reads counters and broadcasts a summary every
// interval.
func NewHub(counters *stats.Counters, interval time.Duration) *Hub {
	return &Hub{
		counters: counters,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run broadcasts the stats summary every interval until ctx is cancelled,
// then closes all client connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast(h.statsMessage())
		}
	}
}

// Observe pushes ev to every connected client. It is called from the
// monitor loop and never blocks on a slow client.
func (h *Hub) Observe(ev types.Event) {
	data, err := json.Marshal(Message{Event: MessageEvent, Data: ev})
	if err != nil {
		slog.Warn("status: encode event", "err", err)
		return
	}
	h.broadcast(data)
}

// ServeHTTP upgrades the request to a WebSocket connection, sends the
// current stats summary and then streams broadcasts until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	if data := h.statsMessage(); data != nil {
		c.send <- data
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.drop(c)
	h.mu.Unlock()
}

// drop removes c and closes its send channel. h.mu must be held.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(data []byte) {
	if data == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Outgoing buffer full: disconnect the client.
			h.drop(c)
		}
	}
}

func (h *Hub) statsMessage() []byte {
	data, err := json.Marshal(Message{Event: MessageStats, Data: h.counters.Summary()})
	if err != nil {
		slog.Warn("status: encode stats", "err", err)
		return nil
	}
	return data
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}

// writePump forwards queued messages to the connection and pings it
// periodically. It runs in its own goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes control frames and detects disconnects. Blocks until the
// connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
