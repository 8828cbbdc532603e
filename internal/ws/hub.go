// Live-editing presence relay. Each connection is authenticated once at
// handshake with the same token validation used by the HTTP routes and
// otherwise has no bearing on the auth lifecycle.

package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/writeitupx/backend/internal/model"
)

const (
	idleTimeout   = 30 * time.Second
	sweepInterval = 10 * time.Second
)

type tokenValidator interface {
	Validate(ctx context.Context, token string) (*model.AuthUser, error)
}

type Hub struct {
	auth     tokenValidator
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}

	stopCh chan struct{}
}

func NewHub(auth tokenValidator) *Hub {
	hub := &Hub{
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
		stopCh:  make(chan struct{}),
	}
	go hub.sweepLoop()
	return hub
}

func (h *Hub) Stop() {
	close(h.stopCh)
}

// HandleConnection upgrades, authenticates via the token query parameter
// and starts the client pumps. Authentication failures close the socket
// with a policy-violation code.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	token := c.Query("token")
	if token == "" {
		closeWithPolicy(conn, "Authentication required")
		return
	}

	user, err := h.auth.Validate(c.Request.Context(), token)
	if err != nil {
		closeWithPolicy(conn, "Authentication failed")
		return
	}

	client := &Client{
		hub:          h,
		conn:         conn,
		send:         make(chan []byte, 16),
		userID:       user.ID,
		lastActivity: time.Now(),
	}

	h.register(client)
	h.broadcastPresence()

	client.enqueue(connectedMessage{Type: "connected", UserID: user.ID})

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.closeSend()
	}
	h.mu.Unlock()

	if ok {
		h.broadcastPresence()
	}
}

// broadcastToOthers relays a message to every connected client except the
// sender.
func (h *Hub) broadcastToOthers(sender *Client, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal relay message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client == sender {
			continue
		}
		client.trySend(data)
	}
}

func (h *Hub) broadcastPresence() {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := make([]presenceEntry, 0, len(h.clients))
	for client := range h.clients {
		users = append(users, presenceEntry{
			UserID:       client.userID,
			LastActivity: client.lastActivity.UnixMilli(),
		})
	}

	data, err := json.Marshal(presenceUpdateMessage{Type: "presence_update", Users: users})
	if err != nil {
		return
	}
	for client := range h.clients {
		client.trySend(data)
	}
}

func (h *Hub) touch(client *Client) {
	h.mu.Lock()
	client.lastActivity = time.Now()
	h.mu.Unlock()
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sweepIdle()
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hub) sweepIdle() {
	now := time.Now()

	h.mu.Lock()
	var idle []*Client
	for client := range h.clients {
		if now.Sub(client.lastActivity) > idleTimeout {
			idle = append(idle, client)
		}
	}
	h.mu.Unlock()

	for _, client := range idle {
		client.close(websocket.CloseNormalClosure, "Connection timeout")
		h.unregister(client)
	}
}

func closeWithPolicy(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	_ = conn.Close()
}
