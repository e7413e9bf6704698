package ws_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship/internal/api/ws"
	"battleship/internal/config"
	"battleship/internal/game"
	"battleship/internal/registry"
)

// fakeTransport records everything the dispatcher sends.
type fakeTransport struct {
	mu         sync.Mutex
	unicasts   map[uuid.UUID][]ws.Message
	broadcasts []ws.Message
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{unicasts: make(map[uuid.UUID][]ws.Message)}
}

func (f *fakeTransport) Send(c *ws.Conn, msg ws.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unicasts[c.ID] = append(f.unicasts[c.ID], msg)
}

func (f *fakeTransport) Broadcast(msg ws.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, msg)
}

func (f *fakeTransport) sentTo(c *ws.Conn) []ws.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ws.Message(nil), f.unicasts[c.ID]...)
}

func (f *fakeTransport) lastTo(t *testing.T, c *ws.Conn) ws.Message {
	t.Helper()
	msgs := f.sentTo(c)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) broadcastTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.broadcasts))
	for i, m := range f.broadcasts {
		types[i] = m.Type
	}
	return types
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unicasts = make(map[uuid.UUID][]ws.Message)
	f.broadcasts = nil
}

func testRules() config.Game {
	return config.Game{BoardSize: 10, FleetQuota: map[int]int{2: 1}}
}

func newEnv(t *testing.T) (*ws.Dispatcher, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	return ws.NewDispatcher(registry.New(testRules()), tr), tr
}

func inbound(t *testing.T, msgType string, payload any) ws.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ws.Message{Type: msgType, Data: data}
}

func decode[T any](t *testing.T, msg ws.Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

func conn() *ws.Conn {
	return &ws.Conn{ID: uuid.New()}
}

func register(t *testing.T, d *ws.Dispatcher, tr *fakeTransport, c *ws.Conn, name string) int {
	t.Helper()
	d.Handle(c, inbound(t, ws.TypeRegister, ws.RegisterRequest{Name: name, Password: "pw"}))
	msg := tr.lastTo(t, c)
	require.Equal(t, ws.TypeRegister, msg.Type)
	resp := decode[ws.RegisterResponse](t, msg)
	require.False(t, resp.Error, resp.ErrorText)
	return resp.Index
}

func TestRegisterFlow(t *testing.T) {
	d, tr := newEnv(t)
	c := conn()

	id := register(t, d, tr, c, "alice")
	assert.NotZero(t, id)
	assert.Equal(t, []string{ws.TypeRoomsUpdated, ws.TypeWinnersUpdated}, tr.broadcastTypes())
}

func TestRegisterWrongPassword(t *testing.T) {
	d, tr := newEnv(t)
	c1, c2 := conn(), conn()
	register(t, d, tr, c1, "alice")

	d.Handle(c2, inbound(t, ws.TypeRegister, ws.RegisterRequest{Name: "alice", Password: "other"}))
	resp := decode[ws.RegisterResponse](t, tr.lastTo(t, c2))
	assert.True(t, resp.Error)
	assert.Equal(t, -1, resp.Index)
	assert.NotEmpty(t, resp.ErrorText)
}

func TestCreateRoomRequiresRegistration(t *testing.T) {
	d, tr := newEnv(t)
	c := conn()

	d.Handle(c, ws.Message{Type: ws.TypeCreateRoom})
	msg := tr.lastTo(t, c)
	assert.Equal(t, ws.TypeError, msg.Type)
	assert.Empty(t, tr.broadcastTypes())
}

func TestUnknownMessageDropped(t *testing.T) {
	d, tr := newEnv(t)
	c := conn()

	d.Handle(c, ws.Message{Type: "warp_drive"})
	assert.Empty(t, tr.sentTo(c))
	assert.Empty(t, tr.broadcastTypes())
}

// setupGame registers two players, pairs them through a room and
// returns their connections and ids plus the created game id.
func setupGame(t *testing.T, d *ws.Dispatcher, tr *fakeTransport) (cA, cB *ws.Conn, idA, idB, gameID int) {
	t.Helper()
	cA, cB = conn(), conn()
	idA = register(t, d, tr, cA, "alice")
	idB = register(t, d, tr, cB, "bob")

	d.Handle(cA, ws.Message{Type: ws.TypeCreateRoom})
	rooms := decode[[]registry.Room](t, tr.broadcasts[len(tr.broadcasts)-1])
	require.Len(t, rooms, 1)

	d.Handle(cB, inbound(t, ws.TypeJoinRoom, ws.JoinRoomRequest{RoomID: rooms[0].ID}))

	created := decode[ws.GameCreated](t, tr.lastTo(t, cA))
	require.Equal(t, idA, created.PlayerID)
	other := decode[ws.GameCreated](t, tr.lastTo(t, cB))
	require.Equal(t, created.GameID, other.GameID)
	require.Equal(t, idB, other.PlayerID)
	return cA, cB, idA, idB, created.GameID
}

func placeShip(t *testing.T, d *ws.Dispatcher, c *ws.Conn, gameID, playerID, x, y int) {
	t.Helper()
	d.Handle(c, inbound(t, ws.TypePlaceFleet, ws.PlaceFleetRequest{
		GameID:   gameID,
		PlayerID: playerID,
		Ships: []game.Ship{
			{Position: game.Position{X: x, Y: y}, Orientation: game.Horizontal, Length: 2, Class: game.ClassSmall},
		},
	}))
}

func TestGameCreation(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB, idA, idB, gameID := setupGame(t, d, tr)
	tr.reset()

	// First fleet placed: nothing starts yet.
	placeShip(t, d, cA, gameID, idA, 0, 0)
	assert.Empty(t, tr.sentTo(cA))

	// Second fleet starts the game: each player gets their own fleet
	// and the creator owns the first turn.
	placeShip(t, d, cB, gameID, idB, 7, 7)

	startA := decode[ws.GameStarted](t, tr.sentTo(cA)[0])
	assert.Equal(t, idA, startA.CurrentPlayerID)
	require.Len(t, startA.Ships, 1)
	assert.Equal(t, game.Position{X: 0, Y: 0}, startA.Ships[0].Position)

	startB := decode[ws.GameStarted](t, tr.sentTo(cB)[0])
	require.Len(t, startB.Ships, 1)
	assert.Equal(t, game.Position{X: 7, Y: 7}, startB.Ships[0].Position)

	turn := decode[ws.Turn](t, tr.lastTo(t, cA))
	assert.Equal(t, idA, turn.CurrentPlayer)
}

func TestInvalidFleetRejected(t *testing.T) {
	d, tr := newEnv(t)
	cA, _, idA, _, gameID := setupGame(t, d, tr)
	tr.reset()

	d.Handle(cA, inbound(t, ws.TypePlaceFleet, ws.PlaceFleetRequest{
		GameID:   gameID,
		PlayerID: idA,
		Ships: []game.Ship{
			{Position: game.Position{X: 9, Y: 9}, Orientation: game.Horizontal, Length: 2, Class: game.ClassSmall},
		},
	}))
	assert.Equal(t, ws.TypeError, tr.lastTo(t, cA).Type)
}

func TestAttackSequence(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB, idA, idB, gameID := setupGame(t, d, tr)
	placeShip(t, d, cA, gameID, idA, 0, 0)
	placeShip(t, d, cB, gameID, idB, 7, 7)
	tr.reset()

	// Out of turn: error to the offender only, no session events.
	d.Handle(cB, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idB, X: 0, Y: 0}))
	assert.Equal(t, ws.TypeError, tr.lastTo(t, cB).Type)
	assert.Empty(t, tr.sentTo(cA))
	tr.reset()

	// Hit: attack_result to both; the turn does not change, so no
	// turn event follows.
	d.Handle(cA, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idA, X: 7, Y: 7}))
	for _, c := range []*ws.Conn{cA, cB} {
		msgs := tr.sentTo(c)
		require.Len(t, msgs, 1)
		res := decode[ws.AttackResult](t, msgs[0])
		assert.Equal(t, game.OutcomeHit, res.Status)
		assert.Equal(t, game.Position{X: 7, Y: 7}, res.Position)
		assert.Equal(t, idA, res.CurrentPlayer)
	}
	tr.reset()

	// Repeating the cell is rejected without touching the game.
	d.Handle(cA, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idA, X: 7, Y: 7}))
	assert.Equal(t, ws.TypeError, tr.lastTo(t, cA).Type)
	assert.Empty(t, tr.sentTo(cB))
	tr.reset()

	// Miss: the turn flips.
	d.Handle(cA, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idA, X: 2, Y: 2}))
	msgs := tr.sentTo(cB)
	require.Len(t, msgs, 2)
	assert.Equal(t, game.OutcomeMiss, decode[ws.AttackResult](t, msgs[0]).Status)
	assert.Equal(t, idB, decode[ws.Turn](t, msgs[1]).CurrentPlayer)
}

func TestWinFinishesSession(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB, idA, idB, gameID := setupGame(t, d, tr)
	placeShip(t, d, cA, gameID, idA, 0, 0)
	placeShip(t, d, cB, gameID, idB, 7, 7)
	tr.reset()

	d.Handle(cA, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idA, X: 7, Y: 7}))
	d.Handle(cA, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idA, X: 8, Y: 7}))

	// The killing shot emits attack_result, then finish, then the
	// global leaderboard update.
	msgs := tr.sentTo(cB)
	require.Len(t, msgs, 3) // hit result, kill result, finish
	assert.Equal(t, game.OutcomeSunk, decode[ws.AttackResult](t, msgs[1]).Status)
	assert.Equal(t, idA, decode[ws.Finish](t, msgs[2]).Winner)

	require.Equal(t, []string{ws.TypeWinnersUpdated}, tr.broadcastTypes())
	winners := decode[[]registry.Winner](t, tr.broadcasts[0])
	require.Len(t, winners, 1)
	assert.Equal(t, registry.Winner{Name: "alice", Wins: 1}, winners[0])

	// The session is gone: further shots cannot find it.
	tr.reset()
	d.Handle(cB, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idB, X: 0, Y: 0}))
	assert.Equal(t, ws.TypeError, tr.lastTo(t, cB).Type)
}

func TestRandomAttackMessage(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB, idA, idB, gameID := setupGame(t, d, tr)
	placeShip(t, d, cA, gameID, idA, 0, 0)
	placeShip(t, d, cB, gameID, idB, 7, 7)
	tr.reset()

	d.Handle(cA, inbound(t, ws.TypeRandomAttack, ws.RandomAttackRequest{GameID: gameID, PlayerID: idA}))
	msgs := tr.sentTo(cB)
	require.NotEmpty(t, msgs)
	require.Equal(t, ws.TypeAttackResult, msgs[0].Type)
	res := decode[ws.AttackResult](t, msgs[0])
	assert.Equal(t, idA, res.CurrentPlayer)
}

func TestDisconnectFromRoom(t *testing.T) {
	d, tr := newEnv(t)
	c := conn()
	register(t, d, tr, c, "alice")
	d.Handle(c, ws.Message{Type: ws.TypeCreateRoom})
	tr.reset()

	d.Disconnect(c)

	types := tr.broadcastTypes()
	require.Equal(t, []string{ws.TypeRoomsUpdated}, types, "room cleanup only, no finish")
	rooms := decode[[]registry.Room](t, tr.broadcasts[0])
	assert.Empty(t, rooms)
}

func TestDisconnectDuringSession(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB, idA, idB, gameID := setupGame(t, d, tr)
	placeShip(t, d, cA, gameID, idA, 0, 0)
	placeShip(t, d, cB, gameID, idB, 7, 7)
	tr.reset()

	d.Disconnect(cB)

	// The survivor gets the finish event and the win.
	finish := decode[ws.Finish](t, tr.lastTo(t, cA))
	assert.Equal(t, idA, finish.Winner)
	require.Equal(t, []string{ws.TypeWinnersUpdated}, tr.broadcastTypes())

	// A second disconnect must not double-report.
	tr.reset()
	d.Disconnect(cA)
	assert.Empty(t, tr.broadcastTypes())
}

// A client sending its opponent's playerId must be rejected without
// touching the game.
func TestAttackAsOpponentRejected(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB, idA, idB, gameID := setupGame(t, d, tr)
	placeShip(t, d, cA, gameID, idA, 0, 0)
	placeShip(t, d, cB, gameID, idB, 7, 7)
	tr.reset()

	// Bob claims to be alice, whose turn it is.
	d.Handle(cB, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idA, X: 7, Y: 7}))
	assert.Equal(t, ws.TypeError, tr.lastTo(t, cB).Type)
	assert.Empty(t, tr.sentTo(cA))
	tr.reset()

	d.Handle(cB, inbound(t, ws.TypeRandomAttack, ws.RandomAttackRequest{GameID: gameID, PlayerID: idA}))
	assert.Equal(t, ws.TypeError, tr.lastTo(t, cB).Type)
	assert.Empty(t, tr.sentTo(cA))
	tr.reset()

	// Alice still owns the turn and can fire normally.
	d.Handle(cA, inbound(t, ws.TypeAttack, ws.AttackRequest{GameID: gameID, PlayerID: idA, X: 7, Y: 7}))
	res := decode[ws.AttackResult](t, tr.sentTo(cA)[0])
	assert.Equal(t, game.OutcomeHit, res.Status)
}

func TestPlaceFleetAsOpponentRejected(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB, idA, idB, gameID := setupGame(t, d, tr)
	tr.reset()

	// Bob tries to plant a fleet for alice.
	d.Handle(cB, inbound(t, ws.TypePlaceFleet, ws.PlaceFleetRequest{
		GameID:   gameID,
		PlayerID: idA,
		Ships: []game.Ship{
			{Position: game.Position{X: 0, Y: 0}, Orientation: game.Horizontal, Length: 2, Class: game.ClassSmall},
		},
	}))
	assert.Equal(t, ws.TypeError, tr.lastTo(t, cB).Type)
	assert.Empty(t, tr.sentTo(cA))

	// Both players placing for themselves still starts the game.
	placeShip(t, d, cA, gameID, idA, 0, 0)
	placeShip(t, d, cB, gameID, idB, 7, 7)
	assert.Equal(t, ws.TypeGameStarted, tr.sentTo(cA)[0].Type)
}

// Disconnecting while holding both a stale open room and a live game
// cleans up the room and finishes the game in one pass.
func TestDisconnectWithStaleRoom(t *testing.T) {
	d, tr := newEnv(t)
	cA, cB := conn(), conn()
	idA := register(t, d, tr, cA, "alice")
	idB := register(t, d, tr, cB, "bob")

	d.Handle(cA, ws.Message{Type: ws.TypeCreateRoom}) // nobody ever joins this one
	d.Handle(cB, ws.Message{Type: ws.TypeCreateRoom})
	rooms := decode[[]registry.Room](t, tr.broadcasts[len(tr.broadcasts)-1])
	require.Len(t, rooms, 2)
	var bobsRoom int
	for _, r := range rooms {
		if r.Members[0].Index == idB {
			bobsRoom = r.ID
		}
	}
	d.Handle(cA, inbound(t, ws.TypeJoinRoom, ws.JoinRoomRequest{RoomID: bobsRoom}))
	gameID := decode[ws.GameCreated](t, tr.lastTo(t, cA)).GameID
	placeShip(t, d, cA, gameID, idA, 0, 0)
	placeShip(t, d, cB, gameID, idB, 7, 7)
	tr.reset()

	d.Disconnect(cA)

	finish := decode[ws.Finish](t, tr.lastTo(t, cB))
	assert.Equal(t, idB, finish.Winner)
	require.Equal(t, []string{ws.TypeRoomsUpdated, ws.TypeWinnersUpdated}, tr.broadcastTypes())
	assert.Empty(t, decode[[]registry.Room](t, tr.broadcasts[0]))
}

func TestDisconnectUnregistered(t *testing.T) {
	d, tr := newEnv(t)
	c := conn()
	d.Disconnect(c)
	assert.Empty(t, tr.broadcastTypes())
}
