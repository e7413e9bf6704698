package session

import (
	"errors"
	"math/rand"
	"sync"

	"battleship/internal/config"
	"battleship/internal/game"
)

var (
	ErrNotParticipant = errors.New("player is not part of this game")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotStarted     = errors.New("game not started yet")
	ErrFinished       = errors.New("game already finished")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrOutOfBounds    = errors.New("attack position is outside the board")
	ErrCellAttacked   = errors.New("cell already attacked")
	ErrNoCellsLeft    = errors.New("no cells remain")
)

// Session is one game between exactly two players. All mutating
// operations serialize on the session's own lock, so two sessions
// never contend with each other.
//
// State machine: awaiting fleets -> in progress -> finished. The
// second transition fires either when an attack sinks the last ship
// or when a participant disconnects.
type Session struct {
	ID int

	mu       sync.Mutex
	players  [2]int // player ids; players[0] moves first
	fleets   [2][]game.Ship
	grids    [2]game.ShotGrid // grids[i] records shots fired at players[i]
	turn     int              // index into players, valid once started
	started  bool
	finished bool
	winner   int

	rules config.Game
	rng   *rand.Rand
}

// AttackResult describes one resolved shot for the protocol layer.
type AttackResult struct {
	Position game.Position
	Status   game.Outcome
	Attacker int
	// Next is the player whose turn it is after the shot. Unchanged
	// on a hit, flipped on a miss, meaningless once Finished is set.
	Next     int
	Finished bool
	Winner   int
}

func New(id int, playerA, playerB int, rules config.Game, rng *rand.Rand) *Session {
	return &Session{
		ID:      id,
		players: [2]int{playerA, playerB},
		grids: [2]game.ShotGrid{
			game.NewShotGrid(rules.BoardSize),
			game.NewShotGrid(rules.BoardSize),
		},
		rules: rules,
		rng:   rng,
	}
}

// PlaceFleet validates and stores one player's fleet. started reports
// whether this placement completed the setup, which happens exactly
// once. Re-placing before the game starts overwrites the earlier
// fleet; after the start it is rejected.
func (s *Session) PlaceFleet(playerID int, ships []game.Ship) (started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexOf(playerID)
	if !ok {
		return false, ErrNotParticipant
	}
	if s.finished {
		return false, ErrFinished
	}
	if s.started {
		return false, ErrAlreadyStarted
	}
	if err := game.ValidateFleet(ships, s.rules); err != nil {
		return false, err
	}

	s.fleets[idx] = ships
	if len(s.fleets[0]) > 0 && len(s.fleets[1]) > 0 {
		s.started = true
		s.turn = 0
		return true, nil
	}
	return false, nil
}

// Attack resolves one shot by playerID at pos.
func (s *Session) Attack(playerID int, pos game.Position) (AttackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attackLocked(playerID, pos)
}

// RandomAttack picks a target uniformly among the cells playerID has
// not shot at yet, then resolves it like Attack.
func (s *Session) RandomAttack(playerID int) (AttackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexOf(playerID)
	if !ok {
		return AttackResult{}, ErrNotParticipant
	}
	if err := s.checkTurnLocked(idx); err != nil {
		return AttackResult{}, err
	}
	pos, ok := game.RandomTarget(s.grids[1-idx], s.rng)
	if !ok {
		return AttackResult{}, ErrNoCellsLeft
	}
	return s.attackLocked(playerID, pos)
}

func (s *Session) attackLocked(playerID int, pos game.Position) (AttackResult, error) {
	idx, ok := s.indexOf(playerID)
	if !ok {
		return AttackResult{}, ErrNotParticipant
	}
	if err := s.checkTurnLocked(idx); err != nil {
		return AttackResult{}, err
	}

	target := 1 - idx
	grid := s.grids[target]
	if !grid.Contains(pos) {
		return AttackResult{}, ErrOutOfBounds
	}
	if grid.At(pos) != game.CellUnknown {
		return AttackResult{}, ErrCellAttacked
	}

	outcome, allSunk := game.Resolve(s.fleets[target], grid, pos)

	res := AttackResult{
		Position: pos,
		Status:   outcome,
		Attacker: playerID,
	}

	switch {
	case outcome == game.OutcomeSunk && allSunk:
		s.finished = true
		s.winner = playerID
		res.Finished = true
		res.Winner = playerID
	case outcome == game.OutcomeMiss:
		s.turn = target
		res.Next = s.players[target]
	default:
		// Hit or sunk with ships remaining: attacker shoots again.
		res.Next = playerID
	}
	return res, nil
}

func (s *Session) checkTurnLocked(idx int) error {
	if s.finished {
		return ErrFinished
	}
	if !s.started {
		return ErrNotStarted
	}
	if s.turn != idx {
		return ErrNotYourTurn
	}
	return nil
}

// ForceFinish ends the session with the opponent of loserID as winner,
// used when a participant disconnects. ok is false if the session was
// already finished or loserID is not a participant, in which case
// nothing changes.
func (s *Session) ForceFinish(loserID int) (winnerID int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, found := s.indexOf(loserID)
	if !found || s.finished {
		return 0, false
	}
	s.finished = true
	s.winner = s.players[1-idx]
	return s.winner, true
}

// Players returns both participant ids, first mover first.
func (s *Session) Players() [2]int {
	return s.players
}

// HasPlayer reports whether playerID participates in this session.
func (s *Session) HasPlayer(playerID int) bool {
	_, ok := s.indexOf(playerID)
	return ok
}

// Opponent returns the other participant's id.
func (s *Session) Opponent(playerID int) (int, bool) {
	idx, ok := s.indexOf(playerID)
	if !ok {
		return 0, false
	}
	return s.players[1-idx], true
}

// Fleet returns the fleet playerID placed, for the game start event.
func (s *Session) Fleet(playerID int) []game.Ship {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexOf(playerID); ok {
		return s.fleets[idx]
	}
	return nil
}

// ShotsAt returns a copy of the grid of shots fired at playerID.
func (s *Session) ShotsAt(playerID int) game.ShotGrid {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexOf(playerID)
	if !ok {
		return nil
	}
	src := s.grids[idx]
	out := game.NewShotGrid(src.Size())
	for y := range src {
		copy(out[y], src[y])
	}
	return out
}

func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// CurrentPlayer returns the id of the turn owner.
func (s *Session) CurrentPlayer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[s.turn]
}

// Winner returns the winner id once the session is finished.
func (s *Session) Winner() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return 0, false
	}
	return s.winner, true
}

func (s *Session) indexOf(playerID int) (int, bool) {
	switch playerID {
	case s.players[0]:
		return 0, true
	case s.players[1]:
		return 1, true
	}
	return 0, false
}
