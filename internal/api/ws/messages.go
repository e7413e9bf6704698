package ws

import (
	"encoding/json"

	"battleship/internal/game"
)

// Message is the wire envelope. Data is always a structured JSON
// value, never JSON wrapped in a string.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	ID   int             `json:"id"`
}

// Inbound message types.
const (
	TypeRegister     = "register"
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypePlaceFleet   = "place_fleet"
	TypeAttack       = "attack"
	TypeRandomAttack = "random_attack"
)

// Outbound message types.
const (
	TypeRoomsUpdated   = "rooms_updated"
	TypeGameCreated    = "game_created"
	TypeGameStarted    = "game_started"
	TypeAttackResult   = "attack_result"
	TypeTurn           = "turn"
	TypeFinish         = "finish"
	TypeWinnersUpdated = "winners_updated"
	TypeError          = "error"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

type JoinRoomRequest struct {
	RoomID int `json:"roomId"`
}

type GameCreated struct {
	GameID   int `json:"gameId"`
	PlayerID int `json:"playerId"`
}

type PlaceFleetRequest struct {
	GameID   int         `json:"gameId"`
	Ships    []game.Ship `json:"ships"`
	PlayerID int         `json:"playerId"`
}

type GameStarted struct {
	Ships           []game.Ship `json:"ships"`
	CurrentPlayerID int         `json:"currentPlayerId"`
}

type AttackRequest struct {
	GameID   int `json:"gameId"`
	X        int `json:"x"`
	Y        int `json:"y"`
	PlayerID int `json:"playerId"`
}

type RandomAttackRequest struct {
	GameID   int `json:"gameId"`
	PlayerID int `json:"playerId"`
}

type AttackResult struct {
	Position      game.Position `json:"position"`
	CurrentPlayer int           `json:"currentPlayer"`
	Status        game.Outcome  `json:"status"`
}

type Turn struct {
	CurrentPlayer int `json:"currentPlayer"`
}

type Finish struct {
	Winner int `json:"winner"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage builds an outbound envelope. Payloads are plain structs
// that always marshal, so the error is only logged by the caller.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}
