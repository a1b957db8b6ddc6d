package env

import (
	"strings"

	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

// State is the observable board encoded one byte per cell in [mines.Grid]
// order. Equal boards yield equal states.
type State string

func EncodeState(grid mines.Grid) State {
	var b strings.Builder
	b.Grow(len(grid))
	for _, s := range grid {
		b.WriteString(s.String())
	}
	return State(b.String())
}

func (s State) Grid() (mines.Grid, error) {
	grid := make(mines.Grid, len(s))
	for i := range len(s) {
		cs, ok := mines.ParseCellState(s[i])
		if !ok {
			return nil, mines.NewConfigurationError(
				"invalid cell %q at %d in state", s[i], i,
			)
		}
		grid[i] = cs
	}
	return grid, nil
}

// At returns the cell at x:y for a board of the given height.
func (s State) At(x, y, height int) mines.CellState {
	cs, _ := mines.ParseCellState(s[x*height+y])
	return cs
}
