package mines

import "strconv"

type CellState int8

const (
	Flagged     CellState = -3
	Hidden      CellState = -2
	ExposedMine CellState = -1
	/*
	 * 0 to 8 mean the cell is open and has that many mined
	 * neighbours.
	 */
)

func (s CellState) String() string {
	switch {
	case s == Flagged:
		return "F"
	case s == Hidden:
		return "."
	case s == ExposedMine:
		return "*"
	case 0 <= s && s <= 8:
		return strconv.Itoa(int(s))
	default:
		return "!"
	}
}

func (s CellState) Revealed() bool {
	return s == ExposedMine || (0 <= s && s <= 8)
}

// ParseCellState is the inverse of [CellState.String].
func ParseCellState(c byte) (CellState, bool) {
	switch {
	case c == 'F':
		return Flagged, true
	case c == '.':
		return Hidden, true
	case c == '*':
		return ExposedMine, true
	case '0' <= c && c <= '8':
		return CellState(c - '0'), true
	default:
		return 0, false
	}
}

// Grid is the observable board, laid out column by column: the cell at x:y
// lives at index x*height + y.
type Grid []CellState
