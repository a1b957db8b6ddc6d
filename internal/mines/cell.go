package mines

// MineSentinel is stored in AdjacentMines of mine cells. It carries no count.
const MineSentinel = -1

type Cell struct {
	IsMine        bool
	IsRevealed    bool
	IsFlagged     bool
	AdjacentMines int
}

// State reports what a player can observe about the cell.
func (c Cell) State() CellState {
	switch {
	case c.IsFlagged:
		return Flagged
	case !c.IsRevealed:
		return Hidden
	case c.IsMine:
		return ExposedMine
	default:
		return CellState(c.AdjacentMines)
	}
}
