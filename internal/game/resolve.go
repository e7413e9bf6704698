package game

import "math/rand"

// Outcome is the result of one shot. The values double as the wire
// status strings.
type Outcome string

const (
	OutcomeMiss Outcome = "miss"
	OutcomeHit  Outcome = "shot"
	OutcomeSunk Outcome = "killed"
)

// Resolve applies one shot at pos against fleet, recording the result
// in grid. The caller must have checked that pos is on the grid and
// still Unknown; Resolve assumes a fresh cell.
//
// On a hit the cell is marked Hit. If that completes the ship, every
// Unknown cell around the sunk ship is marked Miss (the dead border of
// a sunk ship never holds another ship) and allSunk reports whether
// the whole fleet is now destroyed. allSunk is only meaningful for
// OutcomeSunk.
func Resolve(fleet []Ship, grid ShotGrid, pos Position) (outcome Outcome, allSunk bool) {
	for _, ship := range fleet {
		if !ship.Occupies(pos) {
			continue
		}
		grid[pos.Y][pos.X] = CellHit

		if !isSunk(ship, grid) {
			return OutcomeHit, false
		}
		markAroundSunk(fleet, ship, grid)

		for _, other := range fleet {
			if !isSunk(other, grid) {
				return OutcomeSunk, false
			}
		}
		return OutcomeSunk, true
	}

	grid[pos.Y][pos.X] = CellMiss
	return OutcomeMiss, false
}

// isSunk reports whether every cell of the ship is Hit.
func isSunk(ship Ship, grid ShotGrid) bool {
	for _, c := range ship.Cells() {
		if grid.At(c) != CellHit {
			return false
		}
	}
	return true
}

// markAroundSunk marks every still-Unknown neighbor of the sunk ship
// as Miss. Cells belonging to any ship are left alone, so a Hit is
// never overwritten.
func markAroundSunk(fleet []Ship, sunk Ship, grid ShotGrid) {
	for _, c := range sunk.Cells() {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nb := Position{X: c.X + dx, Y: c.Y + dy}
				if !grid.Contains(nb) || grid.At(nb) != CellUnknown {
					continue
				}
				if cellBelongsToFleet(fleet, nb) {
					continue
				}
				grid[nb.Y][nb.X] = CellMiss
			}
		}
	}
}

func cellBelongsToFleet(fleet []Ship, pos Position) bool {
	for _, s := range fleet {
		if s.Occupies(pos) {
			return true
		}
	}
	return false
}

// AllSunk reports whether every ship of the fleet is fully Hit.
func AllSunk(fleet []Ship, grid ShotGrid) bool {
	for _, s := range fleet {
		if !isSunk(s, grid) {
			return false
		}
	}
	return len(fleet) > 0
}

// RandomTarget picks a still-Unknown cell uniformly at random. ok is
// false when no cells remain.
func RandomTarget(grid ShotGrid, rng *rand.Rand) (pos Position, ok bool) {
	open := grid.Unknown()
	if len(open) == 0 {
		return Position{}, false
	}
	return open[rng.Intn(len(open))], true
}
