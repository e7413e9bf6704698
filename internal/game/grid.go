package game

// CellState is the attacker's knowledge of one opponent cell. A cell
// starts Unknown and is written at most once for the whole session.
type CellState uint8

const (
	CellUnknown CellState = iota
	CellMiss
	CellHit
)

// ShotGrid records the shots fired at one player's board, indexed
// [y][x] from the attacker's point of view.
type ShotGrid [][]CellState

func NewShotGrid(size int) ShotGrid {
	g := make(ShotGrid, size)
	for y := range g {
		g[y] = make([]CellState, size)
	}
	return g
}

func (g ShotGrid) Size() int {
	return len(g)
}

// Contains reports whether pos lies on the grid.
func (g ShotGrid) Contains(pos Position) bool {
	n := len(g)
	return pos.X >= 0 && pos.X < n && pos.Y >= 0 && pos.Y < n
}

func (g ShotGrid) At(pos Position) CellState {
	return g[pos.Y][pos.X]
}

// Unknown lists every cell that has not been shot at yet.
func (g ShotGrid) Unknown() []Position {
	var out []Position
	for y := range g {
		for x, s := range g[y] {
			if s == CellUnknown {
				out = append(out, Position{X: x, Y: y})
			}
		}
	}
	return out
}
