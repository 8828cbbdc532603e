package ws

import "encoding/json"

// Envelope is the framing for every relay message, inbound and outbound.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type cursorPayload struct {
	Position json.RawMessage `json:"position"`
}

type contentPayload struct {
	Changes json.RawMessage `json:"changes"`
}

type connectedMessage struct {
	Type   string `json:"type"`
	UserID int64  `json:"userId"`
}

type cursorUpdateMessage struct {
	Type     string          `json:"type"`
	UserID   int64           `json:"userId"`
	Position json.RawMessage `json:"position"`
}

type contentUpdateMessage struct {
	Type    string          `json:"type"`
	UserID  int64           `json:"userId"`
	Changes json.RawMessage `json:"changes"`
}

type presenceEntry struct {
	UserID       int64 `json:"userId"`
	LastActivity int64 `json:"lastActivity"`
}

type presenceUpdateMessage struct {
	Type  string          `json:"type"`
	Users []presenceEntry `json:"users"`
}

type typeOnlyMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
