// Package ws pushes order lifecycle transitions to live subscribers, i.e.
// the cooker dashboard watching its queue.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// OrderUpdate is the message broadcast on every status transition
type OrderUpdate struct {
	OrderID      uint      `json:"orderId"`
	RestaurantID uint      `json:"restaurantId"`
	Status       string    `json:"status"`
	At           time.Time `json:"at"`
}

// Hub fans order updates out to every connected client
type Hub struct {
	clients map[*client]struct{}
	mu      sync.RWMutex
}

// client maintains one WebSocket connection
type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// HandleWS upgrades the request and registers the connection
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: failed to upgrade connection: %v", err)
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go cl.writePump()
	go cl.readPump()
}

// BroadcastOrderUpdate implements the order service's Broadcaster interface.
// Slow clients are skipped rather than blocking the order path.
func (h *Hub) BroadcastOrderUpdate(orderID uint, restaurantID uint, status string) {
	data, err := json.Marshal(OrderUpdate{
		OrderID:      orderID,
		RestaurantID: restaurantID,
		Status:       status,
		At:           time.Now(),
	})
	if err != nil {
		log.Printf("ws: failed to marshal order update: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			log.Println("ws: client buffer full, dropping message")
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

// readPump drains client messages; the feed is one-way, so incoming frames
// only refresh the read deadline.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			break
		}
	}
}

// writePump pumps broadcast messages to the connection and keeps it alive
// with periodic pings.
func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
