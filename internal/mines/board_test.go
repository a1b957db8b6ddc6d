package mines

import (
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	m.Run()
}

func naiveAdjacency(grid [][]Cell, x, y int) (count int) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			xx, yy := x+dx, y+dy
			if xx < 0 || xx >= len(grid) || yy < 0 || yy >= len(grid[xx]) {
				continue
			}
			if grid[xx][yy].IsMine {
				count++
			}
		}
	}
	return
}

func TestNewBoardPlacement(t *testing.T) {
	tests := []GameParams{
		{Width: 1, Height: 2, MineCount: 1},
		{Width: 3, Height: 3, MineCount: 0},
		{Width: 6, Height: 6, MineCount: 5},
		{Width: 9, Height: 9, MineCount: 80},
		{Width: 16, Height: 30, MineCount: 99},
	}

	r := rand.New(rand.NewPCG(1, 2))
	for _, params := range tests {
		t.Run(params.Seed(), func(t *testing.T) {
			for range 50 {
				b, err := NewBoard(params, r)
				require.NoError(t, err)

				grid := b.Grid()
				require.Len(t, grid, params.Width)

				mines := 0
				for x := range grid {
					require.Len(t, grid[x], params.Height)
					for y, c := range grid[x] {
						if c.IsMine {
							mines++
							assert.Equal(t, MineSentinel, c.AdjacentMines)
							continue
						}
						assert.Equal(t, naiveAdjacency(grid, x, y), c.AdjacentMines,
							"adjacency at %d:%d", x, y)
					}
				}
				assert.Equal(t, params.MineCount, mines)
				assert.Len(t, b.Mines(), params.MineCount)
			}
		})
	}
}

func TestNewBoardInvalidParams(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	tests := []GameParams{
		{Width: 0, Height: 3, MineCount: 0},
		{Width: 3, Height: -1, MineCount: 0},
		{Width: 3, Height: 3, MineCount: 9},
		{Width: 3, Height: 3, MineCount: -1},
	}
	for _, params := range tests {
		_, err := NewBoard(params, r)
		var ce ConfigurationError
		assert.ErrorAs(t, err, &ce, "params %+v", params)
	}
}

func TestNewBoardWithMinesDuplicate(t *testing.T) {
	_, err := NewBoardWithMines(3, 3, Point{1, 1}, Point{1, 1})
	var ce ConfigurationError
	assert.ErrorAs(t, err, &ce)

	_, err = NewBoardWithMines(3, 3, Point{3, 0})
	var be BoundsError
	assert.ErrorAs(t, err, &be)
}

func TestRevealCascade(t *testing.T) {
	b, err := NewBoardWithMines(3, 3, Point{0, 0})
	require.NoError(t, err)

	c, err := b.Cell(2, 2)
	require.NoError(t, err)
	require.Equal(t, 0, c.AdjacentMines)

	ok, err := b.Reveal(2, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	for x := range 3 {
		for y := range 3 {
			c, _ := b.Cell(x, y)
			if x == 0 && y == 0 {
				assert.False(t, c.IsRevealed)
			} else {
				assert.True(t, c.IsRevealed, "cell %d:%d", x, y)
			}
		}
	}
	assert.True(t, b.CheckWin())
}

func TestRevealMineLoses(t *testing.T) {
	b, err := NewBoardWithMines(3, 3, Point{0, 0})
	require.NoError(t, err)

	res, err := b.Open(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Exploded, res)

	c, _ := b.Cell(0, 0)
	assert.True(t, c.IsRevealed)
	assert.False(t, b.CheckWin())

	// no cascade from a mine
	for _, p := range []Point{{1, 1}, {2, 2}, {0, 1}} {
		c, _ := b.Cell(p.X, p.Y)
		assert.False(t, c.IsRevealed)
	}

	ok, err := b.Reveal(0, 0)
	require.NoError(t, err)
	assert.True(t, ok, "repeat reveal is idempotent")
}

func TestRevealIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	params := GameParams{Width: 12, Height: 9, MineCount: 10}

	for range 100 {
		b, err := NewBoard(params, r)
		require.NoError(t, err)

		x, y := r.IntN(params.Width), r.IntN(params.Height)
		first, err := b.Open(x, y)
		require.NoError(t, err)
		snapshot := b.PlayerGrid()

		second, err := b.Open(x, y)
		require.NoError(t, err)
		assert.Equal(t, snapshot, b.PlayerGrid())
		if first == Opened {
			assert.Equal(t, AlreadyOpen, second)
		}

		// re-expanding any origin is a fixed point
		for i, done := range b.expanded {
			if done {
				b.expanded[i] = false
				b.floodFill(i)
			}
		}
		assert.Equal(t, snapshot, b.PlayerGrid())
	}
}

func TestRevealFlaggedIsProtected(t *testing.T) {
	b, err := NewBoardWithMines(3, 3, Point{0, 0})
	require.NoError(t, err)

	require.NoError(t, b.ToggleFlag(0, 0))
	res, err := b.Open(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Protected, res)

	ok, err := b.Reveal(0, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	c, _ := b.Cell(0, 0)
	assert.False(t, c.IsRevealed)
	assert.True(t, c.IsFlagged)
	assert.Equal(t, Flagged, c.State())
}

func TestFloodFillSkipsFlags(t *testing.T) {
	b, err := NewBoardWithMines(3, 3, Point{0, 0})
	require.NoError(t, err)

	require.NoError(t, b.ToggleFlag(0, 2))
	_, err = b.Reveal(2, 2)
	require.NoError(t, err)

	c, _ := b.Cell(0, 2)
	assert.False(t, c.IsRevealed)
	assert.True(t, c.IsFlagged)
	assert.False(t, b.CheckWin())

	require.NoError(t, b.ToggleFlag(0, 2))
	_, err = b.Reveal(0, 2)
	require.NoError(t, err)
	assert.True(t, b.CheckWin())
}

func TestCheckWinIgnoresFlags(t *testing.T) {
	b, err := NewBoardWithMines(2, 2, Point{0, 0})
	require.NoError(t, err)

	for _, p := range []Point{{0, 1}, {1, 0}, {1, 1}} {
		assert.False(t, b.CheckWin())
		_, err := b.Reveal(p.X, p.Y)
		require.NoError(t, err)
	}
	assert.True(t, b.CheckWin())

	require.NoError(t, b.ToggleFlag(0, 0))
	assert.True(t, b.CheckWin())
}

func TestOutOfBounds(t *testing.T) {
	b, err := NewBoardWithMines(4, 2)
	require.NoError(t, err)

	for _, p := range []Point{{-1, 0}, {0, -1}, {4, 0}, {0, 2}} {
		var be BoundsError

		_, err := b.Reveal(p.X, p.Y)
		assert.ErrorAs(t, err, &be)

		err = b.ToggleFlag(p.X, p.Y)
		assert.ErrorAs(t, err, &be)

		_, err = b.Cell(p.X, p.Y)
		assert.ErrorAs(t, err, &be)
	}
}

func TestToggleFlag(t *testing.T) {
	b, err := NewBoardWithMines(2, 2)
	require.NoError(t, err)

	require.NoError(t, b.ToggleFlag(1, 1))
	c, _ := b.Cell(1, 1)
	assert.True(t, c.IsFlagged)

	require.NoError(t, b.ToggleFlag(1, 1))
	c, _ = b.Cell(1, 1)
	assert.False(t, c.IsFlagged)
}

func TestFloodFillLargeBoard(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	b, err := NewBoardWithMines(600, 600)
	require.NoError(t, err)

	ok, err := b.Reveal(300, 300)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b.CheckWin())
}

func TestPlayerGridLayout(t *testing.T) {
	b, err := NewBoardWithMines(3, 2, Point{2, 1})
	require.NoError(t, err)

	_, err = b.Reveal(0, 0)
	require.NoError(t, err)
	require.NoError(t, b.ToggleFlag(2, 1))

	grid := b.PlayerGrid()
	require.Len(t, grid, 6)
	assert.Equal(t, CellState(0), grid[0*2+0])
	assert.Equal(t, CellState(1), grid[1*2+1])
	assert.Equal(t, Hidden, grid[2*2+0])
	assert.Equal(t, Flagged, grid[2*2+1])
}
