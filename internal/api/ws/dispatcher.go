package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"battleship/internal/game"
	"battleship/internal/registry"
	"battleship/internal/session"
)

// Transport is the narrow sending surface the dispatcher needs. The
// Hub implements it; tests substitute a recorder.
type Transport interface {
	Send(c *Conn, msg Message)
	Broadcast(msg Message)
}

// Dispatcher routes inbound messages to registry and session
// operations and packages the results into outbound events. It also
// owns the connection-to-player side table used to answer "who sent
// this" and to drive disconnect handling.
type Dispatcher struct {
	reg *registry.Registry
	tr  Transport

	mu       sync.Mutex
	playerOf map[uuid.UUID]int
	connOf   map[int]*Conn
}

func NewDispatcher(reg *registry.Registry, tr Transport) *Dispatcher {
	return &Dispatcher{
		reg:      reg,
		tr:       tr,
		playerOf: make(map[uuid.UUID]int),
		connOf:   make(map[int]*Conn),
	}
}

// Handle processes one inbound message. Unparseable or unknown
// messages are logged and dropped; every other failure is reported to
// the sender only.
func (d *Dispatcher) Handle(c *Conn, msg Message) {
	switch msg.Type {
	case TypeRegister:
		d.handleRegister(c, msg.Data)
	case TypeCreateRoom:
		d.handleCreateRoom(c)
	case TypeJoinRoom:
		d.handleJoinRoom(c, msg.Data)
	case TypePlaceFleet:
		d.handlePlaceFleet(c, msg.Data)
	case TypeAttack:
		d.handleAttack(c, msg.Data)
	case TypeRandomAttack:
		d.handleRandomAttack(c, msg.Data)
	default:
		log.Printf("unknown message type %q from %s", msg.Type, c.ID)
	}
}

// Disconnect removes the connection's identity binding and lets the
// registry clean up rooms or force-finish the player's session.
func (d *Dispatcher) Disconnect(c *Conn) {
	d.mu.Lock()
	playerID, registered := d.playerOf[c.ID]
	if registered {
		delete(d.playerOf, c.ID)
		if d.connOf[playerID] == c {
			delete(d.connOf, playerID)
		}
	}
	d.mu.Unlock()
	if !registered {
		return
	}

	res := d.reg.OnDisconnect(playerID)
	if res.RoomsChanged {
		d.broadcastRooms()
	}
	if res.Finished != nil {
		d.sendToSession(res.Finished, TypeFinish, Finish{Winner: res.WinnerID})
		d.broadcastWinners()
	}
}

func (d *Dispatcher) handleRegister(c *Conn, data json.RawMessage) {
	var req RegisterRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("bad register payload from %s: %v", c.ID, err)
		return
	}

	player, err := d.reg.RegisterPlayer(req.Name, req.Password)
	if err != nil {
		d.send(c, TypeRegister, RegisterResponse{
			Name:      req.Name,
			Index:     -1,
			Error:     true,
			ErrorText: err.Error(),
		})
		return
	}

	d.mu.Lock()
	d.playerOf[c.ID] = player.ID
	d.connOf[player.ID] = c
	d.mu.Unlock()

	d.send(c, TypeRegister, RegisterResponse{Name: player.Name, Index: player.ID})
	d.broadcastRooms()
	d.broadcastWinners()
}

func (d *Dispatcher) handleCreateRoom(c *Conn) {
	playerID, ok := d.player(c)
	if !ok {
		d.sendError(c, "register first")
		return
	}
	if _, err := d.reg.CreateRoom(playerID); err != nil {
		d.sendError(c, err.Error())
		return
	}
	d.broadcastRooms()
}

func (d *Dispatcher) handleJoinRoom(c *Conn, data json.RawMessage) {
	playerID, ok := d.player(c)
	if !ok {
		d.sendError(c, "register first")
		return
	}
	var req JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("bad join_room payload from %s: %v", c.ID, err)
		return
	}

	sess, err := d.reg.JoinRoom(req.RoomID, playerID)
	if err != nil {
		d.sendError(c, err.Error())
		return
	}
	if sess != nil {
		for _, pid := range sess.Players() {
			d.sendToPlayer(pid, TypeGameCreated, GameCreated{GameID: sess.ID, PlayerID: pid})
		}
	}
	d.broadcastRooms()
}

func (d *Dispatcher) handlePlaceFleet(c *Conn, data json.RawMessage) {
	var req PlaceFleetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("bad place_fleet payload from %s: %v", c.ID, err)
		return
	}
	if !d.verifyIdentity(c, req.PlayerID) {
		return
	}
	sess, ok := d.reg.Session(req.GameID)
	if !ok {
		d.sendError(c, registry.ErrSessionNotFound.Error())
		return
	}

	started, err := sess.PlaceFleet(req.PlayerID, req.Ships)
	if err != nil {
		d.sendError(c, err.Error())
		return
	}
	if !started {
		return
	}

	current := sess.CurrentPlayer()
	for _, pid := range sess.Players() {
		d.sendToPlayer(pid, TypeGameStarted, GameStarted{
			Ships:           sess.Fleet(pid),
			CurrentPlayerID: current,
		})
	}
	d.sendToSession(sess, TypeTurn, Turn{CurrentPlayer: current})
}

func (d *Dispatcher) handleAttack(c *Conn, data json.RawMessage) {
	var req AttackRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("bad attack payload from %s: %v", c.ID, err)
		return
	}
	d.resolveAttack(c, req.GameID, req.PlayerID, func(sess *session.Session) (session.AttackResult, error) {
		return sess.Attack(req.PlayerID, game.Position{X: req.X, Y: req.Y})
	})
}

func (d *Dispatcher) handleRandomAttack(c *Conn, data json.RawMessage) {
	var req RandomAttackRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("bad random_attack payload from %s: %v", c.ID, err)
		return
	}
	d.resolveAttack(c, req.GameID, req.PlayerID, func(sess *session.Session) (session.AttackResult, error) {
		return sess.RandomAttack(req.PlayerID)
	})
}

// resolveAttack runs one shot and emits the event sequence the shot
// causes: attack_result first, then either turn or finish followed by
// the leaderboard update.
func (d *Dispatcher) resolveAttack(c *Conn, gameID, attackerID int, fire func(*session.Session) (session.AttackResult, error)) {
	if !d.verifyIdentity(c, attackerID) {
		return
	}
	sess, ok := d.reg.Session(gameID)
	if !ok {
		d.sendError(c, registry.ErrSessionNotFound.Error())
		return
	}

	res, err := fire(sess)
	if err != nil {
		d.sendError(c, err.Error())
		return
	}

	d.sendToSession(sess, TypeAttackResult, AttackResult{
		Position:      res.Position,
		CurrentPlayer: res.Attacker,
		Status:        res.Status,
	})

	if res.Finished {
		d.reg.CompleteSession(sess.ID, res.Winner)
		d.sendToSession(sess, TypeFinish, Finish{Winner: res.Winner})
		d.broadcastWinners()
		return
	}
	if res.Next != res.Attacker {
		d.sendToSession(sess, TypeTurn, Turn{CurrentPlayer: res.Next})
	}
}

// verifyIdentity checks that claimedID is the player registered on
// this connection, so a client cannot act as its opponent by sending
// the opponent's id. Mismatches get an error unicast.
func (d *Dispatcher) verifyIdentity(c *Conn, claimedID int) bool {
	playerID, ok := d.player(c)
	if !ok {
		d.sendError(c, "register first")
		return false
	}
	if claimedID != playerID {
		d.sendError(c, "player id does not match this connection")
		return false
	}
	return true
}

// player resolves the registered player behind a connection.
func (d *Dispatcher) player(c *Conn) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.playerOf[c.ID]
	return id, ok
}

func (d *Dispatcher) send(c *Conn, msgType string, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Printf("marshal %s: %v", msgType, err)
		return
	}
	d.tr.Send(c, msg)
}

func (d *Dispatcher) sendError(c *Conn, text string) {
	d.send(c, TypeError, ErrorPayload{Message: text})
}

func (d *Dispatcher) sendToPlayer(playerID int, msgType string, payload any) {
	d.mu.Lock()
	c, ok := d.connOf[playerID]
	d.mu.Unlock()
	if !ok {
		// Player has no live connection (already disconnected).
		return
	}
	d.send(c, msgType, payload)
}

func (d *Dispatcher) sendToSession(sess *session.Session, msgType string, payload any) {
	for _, pid := range sess.Players() {
		d.sendToPlayer(pid, msgType, payload)
	}
}

func (d *Dispatcher) broadcast(msgType string, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Printf("marshal %s: %v", msgType, err)
		return
	}
	d.tr.Broadcast(msg)
}

func (d *Dispatcher) broadcastRooms() {
	d.broadcast(TypeRoomsUpdated, d.reg.Rooms())
}

func (d *Dispatcher) broadcastWinners() {
	d.broadcast(TypeWinnersUpdated, d.reg.Winners())
}
