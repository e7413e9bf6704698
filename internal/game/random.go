package game

import (
	"math/rand"
	"sort"

	"battleship/internal/config"
)

// RandomFleet generates a fleet that satisfies ValidateFleet, placing
// the longest ships first. Used by the terminal demo and by tests.
func RandomFleet(rules config.Game, rng *rand.Rand) []Ship {
	lengths := make([]int, 0, rules.FleetSize())
	for length, count := range rules.FleetQuota {
		for i := 0; i < count; i++ {
			lengths = append(lengths, length)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))

	for {
		if fleet, ok := tryPlace(lengths, rules, rng); ok {
			return fleet
		}
		// Dead-end layout, start over. With the default quotas on a
		// 10x10 board a retry is rare.
	}
}

func tryPlace(lengths []int, rules config.Game, rng *rand.Rand) ([]Ship, bool) {
	n := rules.BoardSize
	blocked := make(map[Position]struct{}) // occupied cells plus their halo
	fleet := make([]Ship, 0, len(lengths))

	for _, length := range lengths {
		class, _ := ClassForLength(length)
		placed := false
		for attempt := 0; attempt < 200; attempt++ {
			ship := Ship{
				Position:    Position{X: rng.Intn(n), Y: rng.Intn(n)},
				Orientation: Horizontal,
				Length:      length,
				Class:       class,
			}
			if rng.Intn(2) == 0 {
				ship.Orientation = Vertical
			}
			if fits(ship, n, blocked) {
				for _, c := range ship.Cells() {
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							blocked[Position{X: c.X + dx, Y: c.Y + dy}] = struct{}{}
						}
					}
				}
				fleet = append(fleet, ship)
				placed = true
				break
			}
		}
		if !placed {
			return nil, false
		}
	}
	return fleet, true
}

func fits(ship Ship, boardSize int, blocked map[Position]struct{}) bool {
	for _, c := range ship.Cells() {
		if c.X < 0 || c.X >= boardSize || c.Y < 0 || c.Y >= boardSize {
			return false
		}
		if _, bad := blocked[c]; bad {
			return false
		}
	}
	return true
}
