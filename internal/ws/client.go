package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	userID       int64
	lastActivity time.Time // guarded by hub.mu

	sendMu sync.Mutex
	closed bool
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.enqueue(errorMessage{Type: "error", Message: "Invalid message format"})
			continue
		}

		c.handleMessage(env)
		c.hub.touch(c)
	}
}

func (c *Client) handleMessage(env Envelope) {
	switch env.Type {
	case "cursor_position":
		var payload cursorPayload
		_ = json.Unmarshal(env.Payload, &payload)
		c.hub.broadcastToOthers(c, cursorUpdateMessage{
			Type:     "cursor_update",
			UserID:   c.userID,
			Position: payload.Position,
		})
	case "content_change":
		var payload contentPayload
		_ = json.Unmarshal(env.Payload, &payload)
		c.hub.broadcastToOthers(c, contentUpdateMessage{
			Type:    "content_update",
			UserID:  c.userID,
			Changes: payload.Changes,
		})
	case "ping":
		c.enqueue(typeOnlyMessage{Type: "pong"})
	default:
		c.enqueue(errorMessage{Type: "error", Message: "Unknown message type"})
	}
}

func (c *Client) writePump() {
	defer func() { _ = c.conn.Close() }()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	// send channel closed: the hub dropped this client
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) enqueue(message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal ws message: %v", err)
		return
	}
	c.trySend(data)
}

// trySend drops the message when the client's buffer is full rather than
// blocking the hub. The idle sweeper may close the channel concurrently,
// hence the guard.
func (c *Client) trySend(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) close(code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = c.conn.Close()
}
