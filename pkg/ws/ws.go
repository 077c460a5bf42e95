// Package ws is the websocket broadcast channel the admin dashboard listens
// on for order events. Delivery is fire-and-forget: no persistence, no
// replay — a disconnected dashboard misses the event and relies on its own
// poll refresh.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/sehatly/pkg/logger"
	"github.com/shashiranjanraj/sehatly/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // dashboard clients never send payloads
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins by default — restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// Client is a single connected dashboard session.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump exists only to process control frames and detect disconnects;
// inbound data frames are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "error", err)
			}
			break
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
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Hub maintains the set of connected clients and fans broadcasts out to them.
// Besides websocket clients it supports plain channel subscribers, used by
// the SSE fallback stream.
type Hub struct {
	clients     map[*Client]bool
	subscribers map[chan []byte]bool
	broadcast   chan []byte
	register    chan *Client
	unregister  chan *Client
	subscribe   chan chan []byte
	unsubscribe chan chan []byte
}

// NewHub creates a Hub. Call hub.Run in its own goroutine at startup.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		subscribers: make(map[chan []byte]bool),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan chan []byte),
		unsubscribe: make(chan chan []byte),
	}
}

// Subscribe registers a channel receiving every broadcast. The returned
// cancel func must be called when the consumer goes away.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 64)
	h.subscribe <- ch
	var once sync.Once
	cancel := func() {
		once.Do(func() { h.unsubscribe <- ch })
	}
	return ch, cancel
}

// Broadcast queues msg for delivery to every connected client. A slow client
// whose buffer is full is dropped rather than blocking the hub.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
		metrics.WSBroadcasts.Inc()
	default:
		logger.Warn("ws: broadcast queue full, event dropped")
	}
}

// Run starts the hub event loop. Must be run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.WSClients.Set(float64(len(h.clients)))
			logger.Info("ws: client connected", "total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WSClients.Set(float64(len(h.clients)))
				logger.Info("ws: client disconnected", "total", len(h.clients))
			}

		case ch := <-h.subscribe:
			h.subscribers[ch] = true

		case ch := <-h.unsubscribe:
			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			for ch := range h.subscribers {
				select {
				case ch <- msg:
				default:
					// Slow subscriber, skip this event.
				}
			}
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int { return len(h.clients) }

// Upgrade upgrades an HTTP connection to a websocket and registers the
// resulting client with the hub.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws: upgrade failed", "error", err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	hub.register <- client
	go client.writePump()
	go client.readPump()
}
