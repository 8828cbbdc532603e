package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/writeitupx/backend/internal/model"
)

type fakeValidator struct {
	users map[string]*model.AuthUser
}

func (f *fakeValidator) Validate(ctx context.Context, token string) (*model.AuthUser, error) {
	if user, ok := f.users[token]; ok {
		return user, nil
	}
	return nil, errors.New("invalid token")
}

func newHubFixture(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(&fakeValidator{users: map[string]*model.AuthUser{
		"tok-1": {ID: 1, Email: "one@example.com"},
		"tok-2": {ID: 2, Email: "two@example.com"},
	}})
	t.Cleanup(hub.Stop)

	router := gin.New()
	router.GET("/ws", hub.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		wsURL += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil discards messages until one of the wanted type arrives,
// returning every type seen along the way.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) (map[string]json.RawMessage, []string) {
	t.Helper()
	var seen []string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read (seen %v): %v", seen, err)
		}
		var msg map[string]json.RawMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode %q: %v", data, err)
		}
		var msgType string
		_ = json.Unmarshal(msg["type"], &msgType)
		seen = append(seen, msgType)
		if msgType == wantType {
			return msg, seen
		}
	}
	t.Fatalf("never received %q, seen %v", wantType, seen)
	return nil, nil
}

func expectPolicyClose(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				t.Fatalf("expected policy violation close, got %v", err)
			}
			return
		}
	}
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	_, srv := newHubFixture(t)
	conn := dial(t, srv, "")
	expectPolicyClose(t, conn)
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	hub, srv := newHubFixture(t)
	conn := dial(t, srv, "tok-bogus")
	expectPolicyClose(t, conn)

	if hub.ClientCount() != 0 {
		t.Fatalf("rejected connection was registered")
	}
}

func TestHandshakeAnnouncesConnection(t *testing.T) {
	hub, srv := newHubFixture(t)
	conn := dial(t, srv, "tok-1")

	msg, _ := readUntil(t, conn, "connected")
	var userID int64
	_ = json.Unmarshal(msg["userId"], &userID)
	if userID != 1 {
		t.Fatalf("unexpected userId: %d", userID)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
}

func TestCursorRelayedToOthersOnly(t *testing.T) {
	_, srv := newHubFixture(t)
	conn1 := dial(t, srv, "tok-1")
	readUntil(t, conn1, "connected")
	conn2 := dial(t, srv, "tok-2")
	readUntil(t, conn2, "connected")

	payload := `{"type":"cursor_position","payload":{"position":{"line":3,"ch":14}}}`
	if err := conn1.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg, _ := readUntil(t, conn2, "cursor_update")
	var userID int64
	_ = json.Unmarshal(msg["userId"], &userID)
	if userID != 1 {
		t.Fatalf("relay attributed to wrong user: %d", userID)
	}
	if string(msg["position"]) != `{"line":3,"ch":14}` {
		t.Fatalf("position not relayed verbatim: %s", msg["position"])
	}

	// the sender must not hear its own cursor back; a ping bounds the wait
	if err := conn1.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	_, seen := readUntil(t, conn1, "pong")
	for _, msgType := range seen {
		if msgType == "cursor_update" {
			t.Fatalf("sender received its own cursor update")
		}
	}
}

func TestContentChangeRelayed(t *testing.T) {
	_, srv := newHubFixture(t)
	conn1 := dial(t, srv, "tok-1")
	readUntil(t, conn1, "connected")
	conn2 := dial(t, srv, "tok-2")
	readUntil(t, conn2, "connected")

	payload := `{"type":"content_change","payload":{"changes":{"op":"insert","text":"hi"}}}`
	if err := conn2.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg, _ := readUntil(t, conn1, "content_update")
	var userID int64
	_ = json.Unmarshal(msg["userId"], &userID)
	if userID != 2 {
		t.Fatalf("relay attributed to wrong user: %d", userID)
	}
}

func TestUnknownMessageType(t *testing.T) {
	_, srv := newHubFixture(t)
	conn := dial(t, srv, "tok-1")
	readUntil(t, conn, "connected")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg, _ := readUntil(t, conn, "error")
	var text string
	_ = json.Unmarshal(msg["message"], &text)
	if text != "Unknown message type" {
		t.Fatalf("unexpected error message: %q", text)
	}
}

func TestDisconnectUpdatesPresence(t *testing.T) {
	hub, srv := newHubFixture(t)
	conn1 := dial(t, srv, "tok-1")
	readUntil(t, conn1, "connected")
	conn2 := dial(t, srv, "tok-2")
	readUntil(t, conn2, "connected")

	_ = conn2.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client not unregistered, count=%d", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
