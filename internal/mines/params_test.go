package mines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	p, err := ParseSeed("6:5:4")
	require.NoError(t, err)
	assert.Equal(t, GameParams{Width: 6, Height: 5, MineCount: 4}, *p)
	assert.Equal(t, "6:5:4", p.Seed())

	for _, seed := range []string{"", "6:5", "a:b:c", "3:3:9"} {
		_, err := ParseSeed(seed)
		assert.Error(t, err, seed)
	}
}

func TestCellStateRoundTrip(t *testing.T) {
	states := []CellState{Flagged, Hidden, ExposedMine, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	for _, s := range states {
		str := s.String()
		require.Len(t, str, 1)
		parsed, ok := ParseCellState(str[0])
		require.True(t, ok)
		assert.Equal(t, s, parsed)
	}
	_, ok := ParseCellState('x')
	assert.False(t, ok)
	assert.Equal(t, "!", CellState(42).String())
}

func TestCellTodo(t *testing.T) {
	todo := newCellTodo(5)
	_, ok := todo.pop()
	assert.False(t, ok)

	todo.add(3)
	todo.add(0)
	i, ok := todo.pop()
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	todo.add(4)
	for _, want := range []int{0, 4} {
		i, ok := todo.pop()
		require.True(t, ok)
		assert.Equal(t, want, i)
	}
	_, ok = todo.pop()
	assert.False(t, ok)

	todo.add(2)
	i, _ = todo.pop()
	assert.Equal(t, 2, i)
}
