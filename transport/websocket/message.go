package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/royalur-backend/internal/entity"
	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload carries the request and response fields of every action.
type Payload struct {
	Player   *entity.Player    `json:"player,omitempty"`
	Game     *entity.Game      `json:"game,omitempty"`
	Snapshot *royalur.Snapshot `json:"snapshot,omitempty"`
	PieceID  *int              `json:"piece_id,omitempty"`
	Dice     *int              `json:"dice,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func parsePayload(msg *Message) (*Payload, error) {
	var payload Payload

	if len(msg.Payload) == 0 {
		return &payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payload, nil
}

func (that *Server) sendMessage(conn *connection, action string, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return conn.send(&Message{Action: action, Payload: raw})
}

func (that *Server) sendErrorResponse(conn *connection, action, errorMsg string) error {
	if err := that.sendMessage(conn, action, Payload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
