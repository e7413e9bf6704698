package registry

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"battleship/internal/config"
	"battleship/internal/session"
)

var (
	ErrInvalidCredential = errors.New("name already taken, wrong password")
	ErrUnknownPlayer     = errors.New("player not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrSessionNotFound   = errors.New("game not found")
	ErrSelfJoin          = errors.New("cannot join your own room")
)

type Player struct {
	ID     int    `json:"index"`
	Name   string `json:"name"`
	secret string
	Wins   int `json:"wins"`
}

// Member is a room member as shown in room listings.
type Member struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

type Room struct {
	ID      int      `json:"roomId"`
	Members []Member `json:"members"`
}

// Winner is one leaderboard row.
type Winner struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// DisconnectResult reports what OnDisconnect did. Both effects can
// apply at once: a player can leave a stale open room behind while
// playing a session started from another room.
type DisconnectResult struct {
	RoomsChanged bool
	// Finished is the session that was force-finished, nil if none.
	Finished *session.Session
	WinnerID int
}

// Registry is the single owner of all players, waiting rooms and
// active sessions. Every operation is atomic with respect to the
// others; per-session game state has its own lock inside Session.
type Registry struct {
	mu       sync.RWMutex
	players  map[int]*Player
	byName   map[string]int
	rooms    map[int]*Room
	sessions map[int]*session.Session

	nextPlayerID  int
	nextRoomID    int
	nextSessionID int

	rules config.Game
	rng   *rand.Rand
}

func New(rules config.Game) *Registry {
	return &Registry{
		players:       make(map[int]*Player),
		byName:        make(map[string]int),
		rooms:         make(map[int]*Room),
		sessions:      make(map[int]*session.Session),
		nextPlayerID:  1,
		nextRoomID:    1,
		nextSessionID: 1,
		rules:         rules,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterPlayer creates a player on first use of a name. A known
// name acts as a login handle: the stored secret must match or the
// registration is rejected.
func (r *Registry) RegisterPlayer(name, secret string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, taken := r.byName[name]; taken {
		p := r.players[id]
		if p.secret != secret {
			return nil, ErrInvalidCredential
		}
		return p, nil
	}

	p := &Player{ID: r.nextPlayerID, Name: name, secret: secret}
	r.nextPlayerID++
	r.players[p.ID] = p
	r.byName[name] = p.ID
	return p, nil
}

// Player looks up a player by id.
func (r *Registry) Player(id int) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// CreateRoom opens a waiting room with playerID as its only member.
// A player may sit in several rooms at once.
func (r *Registry) CreateRoom(playerID int) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	room := &Room{
		ID:      r.nextRoomID,
		Members: []Member{{Name: p.Name, Index: p.ID}},
	}
	r.nextRoomID++
	r.rooms[room.ID] = room
	return room, nil
}

// JoinRoom adds playerID to the room. Reaching two members promotes
// the room into a session and deletes the room in the same step, so
// no concurrent caller can observe a full-but-joinable room.
func (r *Registry) JoinRoom(roomID, playerID int) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	for _, m := range room.Members {
		if m.Index == playerID {
			return nil, ErrSelfJoin
		}
	}

	room.Members = append(room.Members, Member{Name: p.Name, Index: p.ID})
	if len(room.Members) < 2 {
		return nil, nil
	}

	delete(r.rooms, roomID)
	sess := session.New(
		r.nextSessionID,
		room.Members[0].Index,
		room.Members[1].Index,
		r.rules,
		rand.New(rand.NewSource(r.rng.Int63())),
	)
	r.nextSessionID++
	r.sessions[sess.ID] = sess
	return sess, nil
}

// Session looks up an active session by id.
func (r *Registry) Session(id int) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// CompleteSession removes a finished session and credits the winner.
// The win is recorded at most once: a second call for the same id
// finds the session already gone and does nothing.
func (r *Registry) CompleteSession(sessionID, winnerID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completeLocked(sessionID, winnerID)
}

func (r *Registry) completeLocked(sessionID, winnerID int) bool {
	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	if p, ok := r.players[winnerID]; ok {
		p.Wins++
	}
	return true
}

// RemoveSession drops a session without crediting anyone.
func (r *Registry) RemoveSession(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// OnDisconnect handles a player's connection going away: waiting-room
// membership is dropped (empty rooms are deleted), and the player's
// active session, if any, is force-finished with the other player as
// winner. A player who joined a game while still holding an open room
// of their own triggers both.
func (r *Registry) OnDisconnect(playerID int) DisconnectResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res DisconnectResult
	for id, room := range r.rooms {
		for i, m := range room.Members {
			if m.Index != playerID {
				continue
			}
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			if len(room.Members) == 0 {
				delete(r.rooms, id)
			}
			res.RoomsChanged = true
			break
		}
	}

	for id, sess := range r.sessions {
		if !sess.HasPlayer(playerID) {
			continue
		}
		if winner, ok := sess.ForceFinish(playerID); ok {
			r.completeLocked(id, winner)
			res.Finished = sess
			res.WinnerID = winner
		}
		break
	}
	return res
}

// Rooms lists the open waiting rooms for the rooms_updated broadcast.
func (r *Registry) Rooms() []Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		members := make([]Member, len(room.Members))
		copy(members, room.Members)
		out = append(out, Room{ID: room.ID, Members: members})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Winners returns players with at least one win, most wins first.
func (r *Registry) Winners() []Winner {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Winner, 0)
	for _, p := range r.players {
		if p.Wins > 0 {
			out = append(out, Winner{Name: p.Name, Wins: p.Wins})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	return out
}
