package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satindergrewal/soundscape/internal/engine"
)

// Event types pushed to websocket clients.
const (
	EventTime     = "time"
	EventFinished = "finished"
	EventState    = "state"
	EventDrift    = "drift"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Event is one message on /api/events.
type Event struct {
	Type   string         `json:"type"`
	Time   float64        `json:"time,omitempty"`
	Status *engine.Status `json:"status,omitempty"`
	From   string         `json:"from,omitempty"`
	To     string         `json:"to,omitempty"`
}

// Hub fans engine events out to websocket clients. A client that cannot
// keep up loses events rather than stalling the publisher.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	send chan Event
	done chan struct{}
	once sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.done) }) }

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish queues ev for every client.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) register() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{send: make(chan Event, clientBuffer), done: make(chan struct{})}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// ServeWS upgrades the request and streams events until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Events: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c, ok := h.register()
	if !ok {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		return
	}
	defer h.unregister(c)
	log.Printf("Events client connected (total: %d)", h.ClientCount())
	defer log.Printf("Events client disconnected")

	// Drain incoming messages (pong, close frames) so control frames are handled.
	go func() {
		defer c.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-r.Context().Done():
			return
		case ev := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
