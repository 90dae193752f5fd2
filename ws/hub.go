package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub tracks open sockets per user. A user may hold several connections
// (one per device or tab); pushes go to all of them.
type Hub struct {
	clients map[string]map[*websocket.Conn]*Client
	mu      sync.RWMutex
}

type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]*Client)}
}

func (h *Hub) RegisterUser(userID string, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]*Client)
	}
	client := &Client{UserID: userID, Conn: conn, Send: make(chan []byte, sendBuffer)}
	h.clients[userID][conn] = client
	return client
}

func (h *Hub) UnregisterUser(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[userID]; ok {
		if client, ok := conns[conn]; ok {
			close(client.Send)
			delete(conns, conn)
		}
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// BroadcastToUser queues data on every connection of userID and returns
// how many accepted it. Slow clients with a full buffer are skipped.
func (h *Hub) BroadcastToUser(userID string, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
			sent++
		default:
		}
	}
	return sent
}

func (h *Hub) SendJSON(userID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.BroadcastToUser(userID, data)
	return nil
}

// SendBadgeUpdate pushes the unread notification count.
func (h *Hub) SendBadgeUpdate(userID string, unread int64) error {
	return h.SendJSON(userID, map[string]interface{}{
		"type":        "badge_update",
		"unreadCount": unread,
	})
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) GetStats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := Stats{Users: len(h.clients)}
	for _, conns := range h.clients {
		s.Connections += len(conns)
	}
	return s
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames until the socket closes.
func (c *Client) readPump(h *Hub) {
	defer h.UnregisterUser(c.UserID, c.Conn)
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
