package game

import (
	"fmt"

	"battleship/internal/config"
)

// RejectReason classifies why a fleet was rejected. The validator
// short-circuits, so the reason is always the first rule violated.
type RejectReason string

const (
	ReasonOutOfBounds    RejectReason = "out_of_bounds"
	ReasonOverlap        RejectReason = "overlap"
	ReasonAdjacent       RejectReason = "adjacent"
	ReasonBadComposition RejectReason = "bad_composition"
)

// PlacementError is returned by ValidateFleet for an invalid fleet.
type PlacementError struct {
	Reason RejectReason
	Detail string
}

func (e *PlacementError) Error() string {
	return e.Detail
}

func reject(reason RejectReason, format string, args ...any) *PlacementError {
	return &PlacementError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ValidateFleet checks a fleet against the placement rules, in order:
// bounds, overlap, adjacency, composition. It is pure; the first
// violated rule is reported and the rest are not checked.
func ValidateFleet(ships []Ship, rules config.Game) error {
	n := rules.BoardSize

	// Bounds: the whole span of every ship must lie on the board.
	for _, s := range ships {
		for _, c := range s.Cells() {
			if c.X < 0 || c.X >= n || c.Y < 0 || c.Y >= n {
				return reject(ReasonOutOfBounds, "ship %s is outside the board", s)
			}
		}
	}

	// Overlap: no cell may be claimed twice.
	occupied := make(map[Position]struct{})
	for _, s := range ships {
		for _, c := range s.Cells() {
			if _, taken := occupied[c]; taken {
				return reject(ReasonOverlap, "ships overlap at (%d,%d)", c.X, c.Y)
			}
			occupied[c] = struct{}{}
		}
	}

	// Adjacency: no cell of one ship may touch a cell of another ship,
	// diagonals included.
	for _, s := range ships {
		own := make(map[Position]struct{}, s.Length)
		for _, c := range s.Cells() {
			own[c] = struct{}{}
		}
		for _, c := range s.Cells() {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nb := Position{X: c.X + dx, Y: c.Y + dy}
					if _, ours := own[nb]; ours {
						continue
					}
					if _, taken := occupied[nb]; taken {
						return reject(ReasonAdjacent, "ships touch at (%d,%d)", nb.X, nb.Y)
					}
				}
			}
		}
	}

	// Composition: declared class must match length, and the length
	// counts must match the configured quota exactly.
	counts := make(map[int]int)
	for _, s := range ships {
		want, ok := ClassLength(s.Class)
		if !ok {
			return reject(ReasonBadComposition, "unknown ship class %q", s.Class)
		}
		if s.Length != want {
			return reject(ReasonBadComposition, "%s ship must have length %d, got %d", s.Class, want, s.Length)
		}
		counts[s.Length]++
	}
	for length, want := range rules.FleetQuota {
		if counts[length] != want {
			return reject(ReasonBadComposition, "need %d ships of length %d, got %d", want, length, counts[length])
		}
	}
	for length := range counts {
		if _, allowed := rules.FleetQuota[length]; !allowed {
			return reject(ReasonBadComposition, "ships of length %d are not allowed", length)
		}
	}

	return nil
}
