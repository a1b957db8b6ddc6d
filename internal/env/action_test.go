package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

func TestParseAction(t *testing.T) {
	for _, a := range []Action{RevealAt(0, 0), FlagAt(12, 3), RevealAt(5, 11)} {
		parsed, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	for _, s := range []string{"", "reveal", "poke:1:2", "flag:1", "flag:a:b"} {
		_, err := ParseAction(s)
		var ce mines.ConfigurationError
		assert.ErrorAs(t, err, &ce, s)
	}
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("Flags")
	require.NoError(t, err)
	assert.Equal(t, WithFlags, v)

	v, err = ParseVariant("reveal")
	require.NoError(t, err)
	assert.Equal(t, RevealOnly, v)

	_, err = ParseVariant("chord")
	assert.Error(t, err)

	assert.True(t, RevealOnly.Allows(RevealAt(1, 1)))
	assert.False(t, RevealOnly.Allows(FlagAt(1, 1)))
	assert.True(t, WithFlags.Allows(FlagAt(1, 1)))
}

func TestStateGrid(t *testing.T) {
	grid := mines.Grid{mines.Hidden, mines.Flagged, mines.ExposedMine, 0, 8}
	s := EncodeState(grid)
	assert.Equal(t, State(".F*08"), s)

	decoded, err := s.Grid()
	require.NoError(t, err)
	assert.Equal(t, grid, decoded)

	_, err = State("..x").Grid()
	assert.Error(t, err)
}
