package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	actionConnect     = "connect"
	actionGameUpdated = "game:updated"
	actionGameTurn    = "game:turn"
)

// ConnectPayload carries the identity we want the authority to know us by.
// The authority echoes it back with the assigned player.
type ConnectPayload struct {
	Player *entity.Player `json:"player"`
}

// UpdatePayload is an authoritative state push. The snapshot wholly replaces
// whatever the mirror held before.
type UpdatePayload struct {
	GameID   string           `json:"game_id,omitempty"`
	Snapshot *entity.Snapshot `json:"game"`
}

// TurnRequest forwards a candidate move; the request id correlates the ack.
type TurnRequest struct {
	RequestID string      `json:"request_id"`
	GameID    string      `json:"game_id"`
	Kind      string      `json:"kind"`
	Move      entity.Move `json:"move"`
}

// TurnAck reports the authority's verdict on a forwarded move.
type TurnAck struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
}
