package mines

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// RevealResult tells apart the outcomes that [Board.Reveal] folds into a
// single bool.
type RevealResult int8

const (
	Protected   RevealResult = iota // cell is flagged, nothing changed
	AlreadyOpen                     // cell was revealed before
	Opened                          // safe cell revealed
	Exploded                        // mine revealed
)

func (r RevealResult) String() string {
	switch r {
	case Protected:
		return "protected"
	case AlreadyOpen:
		return "already open"
	case Opened:
		return "opened"
	case Exploded:
		return "exploded"
	default:
		return "unknown"
	}
}

type Board struct {
	GameParams
	cells    []Cell
	expanded []bool /* origins already flood-filled */
}

// NewBoard places MineCount mines uniformly at random without replacement
// and computes every adjacency count once.
func NewBoard(params GameParams, r *rand.Rand) (*Board, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	n := params.Cells()
	candidates := make([]int, n)
	for i := range candidates {
		candidates[i] = i
	}

	/*
	 * Pick mine positions off the candidate list, swapping each pick
	 * with the last live candidate so it can't come up again.
	 */
	mines := make([]int, 0, params.MineCount)
	k := n
	for range params.MineCount {
		i := r.IntN(k)
		mines = append(mines, candidates[i])
		k--
		candidates[i] = candidates[k]
	}

	return newBoard(params, mines), nil
}

// NewBoardWithMines builds a board with mines at the given cells. Duplicate
// points are rejected so the mine count stays exact.
func NewBoardWithMines(width, height int, points ...Point) (*Board, error) {
	params := GameParams{Width: width, Height: height, MineCount: len(points)}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[Point]struct{}, len(points))
	mines := make([]int, 0, len(points))
	for _, p := range points {
		if !params.InBounds(p.X, p.Y) {
			return nil, BoundsError{p.X, p.Y, width, height}
		}
		if _, ok := seen[p]; ok {
			return nil, NewConfigurationError("duplicate mine at %d:%d", p.X, p.Y)
		}
		seen[p] = struct{}{}
		mines = append(mines, p.X*height+p.Y)
	}
	return newBoard(params, mines), nil
}

func newBoard(params GameParams, mines []int) *Board {
	b := &Board{
		GameParams: params,
		cells:      make([]Cell, params.Cells()),
		expanded:   make([]bool, params.Cells()),
	}
	for _, i := range mines {
		b.cells[i].IsMine = true
	}
	b.computeAdjacency()
	return b
}

func (b *Board) computeAdjacency() {
	for x := range b.Width {
		for y := range b.Height {
			cell := &b.cells[b.index(x, y)]
			if cell.IsMine {
				cell.AdjacentMines = MineSentinel
				continue
			}
			n := 0
			b.neighbours(x, y, func(i int) {
				if b.cells[i].IsMine {
					n++
				}
			})
			cell.AdjacentMines = n
		}
	}
}

func (b *Board) index(x, y int) int {
	return x*b.Height + y
}

func (b *Board) coords(i int) (x, y int) {
	return i / b.Height, i % b.Height
}

// neighbours calls fn with the index of every in-bounds cell around x:y.
func (b *Board) neighbours(x, y int, fn func(int)) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if b.InBounds(x+dx, y+dy) {
				fn(b.index(x+dx, y+dy))
			}
		}
	}
}

func (b *Board) checkBounds(x, y int) error {
	if !b.InBounds(x, y) {
		return BoundsError{x, y, b.Width, b.Height}
	}
	return nil
}

func (b *Board) Cell(x, y int) (Cell, error) {
	if err := b.checkBounds(x, y); err != nil {
		return Cell{}, err
	}
	return b.cells[b.index(x, y)], nil
}

// Grid returns a copy of the cells indexed as grid[x][y].
func (b *Board) Grid() [][]Cell {
	grid := make([][]Cell, b.Width)
	for x := range b.Width {
		grid[x] = make([]Cell, b.Height)
		copy(grid[x], b.cells[x*b.Height:(x+1)*b.Height])
	}
	return grid
}

// PlayerGrid returns what a player can observe, in [Grid] layout.
func (b *Board) PlayerGrid() Grid {
	grid := make(Grid, len(b.cells))
	for i, c := range b.cells {
		grid[i] = c.State()
	}
	return grid
}

// Reveal opens the cell at x:y. It returns false when the cell is a mine or
// is protected by a flag; use [Board.Open] to tell the two apart.
func (b *Board) Reveal(x, y int) (bool, error) {
	res, err := b.Open(x, y)
	if err != nil {
		return false, err
	}
	return res == Opened || res == AlreadyOpen, nil
}

func (b *Board) Open(x, y int) (RevealResult, error) {
	if err := b.checkBounds(x, y); err != nil {
		return Protected, err
	}
	i := b.index(x, y)
	cell := &b.cells[i]

	if cell.IsFlagged {
		return Protected, nil
	}
	if cell.IsRevealed {
		return AlreadyOpen, nil
	}

	cell.IsRevealed = true

	if cell.IsMine {
		return Exploded, nil
	}
	if cell.AdjacentMines == 0 {
		b.floodFill(i)
	}
	return Opened, nil
}

// floodFill reveals every cell reachable from origin through zero-count
// cells. Each zero cell is expanded at most once over the board's lifetime.
// Flagged cells are left alone.
func (b *Board) floodFill(origin int) {
	if b.expanded[origin] {
		return
	}
	b.expanded[origin] = true

	todo := newCellTodo(len(b.cells))
	todo.add(origin)

	expansions := 0
	for i, ok := todo.pop(); ok; i, ok = todo.pop() {
		expansions++
		x, y := b.coords(i)
		b.neighbours(x, y, func(j int) {
			neighbour := &b.cells[j]
			if neighbour.IsRevealed || neighbour.IsMine || neighbour.IsFlagged {
				return
			}
			neighbour.IsRevealed = true
			if neighbour.AdjacentMines == 0 && !b.expanded[j] {
				b.expanded[j] = true
				todo.add(j)
			}
		})
	}

	Log.WithFields(logrus.Fields{
		"origin":     origin,
		"expansions": expansions,
	}).Trace("flood fill")
}

// ToggleFlag flips the flag on x:y without looking at the cell's state.
func (b *Board) ToggleFlag(x, y int) error {
	if err := b.checkBounds(x, y); err != nil {
		return err
	}
	cell := &b.cells[b.index(x, y)]
	cell.IsFlagged = !cell.IsFlagged
	return nil
}

// CheckWin reports whether every safe cell is revealed. Flags are ignored.
func (b *Board) CheckWin() bool {
	for _, c := range b.cells {
		if !c.IsMine && !c.IsRevealed {
			return false
		}
	}
	return true
}

func (b *Board) Mines() []Point {
	var points []Point
	for i, c := range b.cells {
		if c.IsMine {
			x, y := b.coords(i)
			points = append(points, Point{x, y})
		}
	}
	return points
}
