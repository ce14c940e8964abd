package websocket

import (
	"encoding/json"

	actionpkg "sixthed-backend/internal/action"
	"sixthed-backend/internal/cardstate"
)

// MessageType tags the variant carried by a WebSocketMessage's Payload.
type MessageType string

const (
	MessageTypePlayerConnect MessageType = "PLAYER_CONNECT"
	MessageTypeSubmitAction  MessageType = "SUBMIT_ACTION"
	MessageTypeStateUpdated  MessageType = "STATE_UPDATED"
	MessageTypeError         MessageType = "ERROR"
	MessageTypeFullState     MessageType = "FULL_STATE"
)

// WebSocketMessage is the envelope every message over the socket uses;
// Payload is decoded according to Type.
type WebSocketMessage struct {
	Type    MessageType     `json:"type"`
	GameID  string          `json:"gameId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerConnectPayload attaches a connection to a game as one of its
// two seats.
type PlayerConnectPayload struct {
	PlayerID cardstate.Role `json:"playerId"`
}

// SubmitActionPayload carries one action for the engine to apply.
type SubmitActionPayload struct {
	Action actionpkg.Action `json:"action"`
}

// StateUpdatedPayload is broadcast to every connection in a game
// whenever its stored state changes.
type StateUpdatedPayload struct {
	State *cardstate.GameState `json:"state"`
}

// ErrorPayload reports a failed action back to the connection that
// submitted it, carrying the §7 failing-clause list when available.
type ErrorPayload struct {
	Message string   `json:"message"`
	Clauses []string `json:"clauses,omitempty"`
}

// FullStatePayload is sent once, right after PLAYER_CONNECT, so a newly
// joined client doesn't have to wait for the next action to see the
// board.
type FullStatePayload struct {
	State        *cardstate.GameState  `json:"state"`
	LegalActions []actionpkg.Action    `json:"legalActions"`
	PlayerID     cardstate.Role        `json:"playerId"`
}

func encodePayload(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}
