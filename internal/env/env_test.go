package env

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

func newTestEnv(t *testing.T, v Variant, mineAt ...mines.Point) *Environment {
	t.Helper()
	params := mines.GameParams{Width: 3, Height: 3, MineCount: len(mineAt)}
	e, err := New(Config{Params: params, Variant: v, Rewards: RewardsFor(v)},
		rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	board, err := mines.NewBoardWithMines(3, 3, mineAt...)
	require.NoError(t, err)
	_, err = e.ResetWith(board)
	require.NoError(t, err)
	return e
}

func TestResetEncodesHiddenBoard(t *testing.T) {
	e, err := New(Config{
		Params:  mines.GameParams{Width: 6, Height: 6, MineCount: 5},
		Variant: WithFlags,
		Rewards: DefaultRewards(),
	}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	s, err := e.Reset()
	require.NoError(t, err)
	assert.Equal(t, State(strings.Repeat(".", 36)), s)
	assert.False(t, e.Done())
	assert.Len(t, e.LegalActions(s), 72)
}

func TestNewRejectsBadConfig(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	_, err := New(Config{Params: mines.GameParams{Width: 2, Height: 2, MineCount: 4}}, r)
	var ce mines.ConfigurationError
	assert.ErrorAs(t, err, &ce)

	_, err = New(Config{Params: mines.GameParams{Width: 2, Height: 2}, Variant: 7}, r)
	assert.ErrorAs(t, err, &ce)
}

func TestStepRevealCascadeWins(t *testing.T) {
	e := newTestEnv(t, WithFlags, mines.Point{X: 0, Y: 0})
	r := DefaultRewards()

	out, err := e.Step(RevealAt(2, 2))
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.True(t, out.Info.Won)
	assert.Equal(t, EventRevealZero, out.Info.Event)
	assert.Equal(t, r.RevealZero+r.Win, out.Reward)
	assert.Equal(t, State(".10110000"), out.State)
	assert.Equal(t, out.State, e.State())
}

func TestStepRevealMine(t *testing.T) {
	e := newTestEnv(t, WithFlags, mines.Point{X: 0, Y: 0})

	out, err := e.Step(RevealAt(0, 0))
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.True(t, out.Info.Lost)
	assert.Equal(t, EventMine, out.Info.Event)
	assert.Equal(t, DefaultRewards().Mine, out.Reward)
	assert.Equal(t, mines.ExposedMine, out.State.At(0, 0, 3))
}

func TestStepRepeatRevealAndNumber(t *testing.T) {
	e := newTestEnv(t, WithFlags, mines.Point{X: 0, Y: 0}, mines.Point{X: 2, Y: 2})
	r := DefaultRewards()

	out, err := e.Step(RevealAt(1, 1))
	require.NoError(t, err)
	assert.False(t, out.Done)
	assert.Equal(t, EventRevealSafe, out.Info.Event)
	assert.Equal(t, r.RevealSafe, out.Reward)

	before := e.State()
	out, err = e.Step(RevealAt(1, 1))
	require.NoError(t, err)
	assert.False(t, out.Done)
	assert.Equal(t, EventRepeatReveal, out.Info.Event)
	assert.Equal(t, r.RepeatReveal, out.Reward)
	assert.Equal(t, before, out.State)
}

func TestStepRevealFlaggedDiffersFromMine(t *testing.T) {
	e := newTestEnv(t, WithFlags, mines.Point{X: 0, Y: 0})
	r := DefaultRewards()

	_, err := e.Step(FlagAt(0, 0))
	require.NoError(t, err)

	out, err := e.Step(RevealAt(0, 0))
	require.NoError(t, err)
	assert.False(t, out.Done)
	assert.False(t, out.Info.Lost)
	assert.Equal(t, EventRevealFlagged, out.Info.Event)
	assert.Equal(t, r.RevealFlagged, out.Reward)
	assert.NotEqual(t, r.Mine, out.Reward)
	assert.Equal(t, mines.Flagged, out.State.At(0, 0, 3))
}

func TestStepFlags(t *testing.T) {
	e := newTestEnv(t, WithFlags, mines.Point{X: 0, Y: 0}, mines.Point{X: 2, Y: 2})
	r := DefaultRewards()

	tests := []struct {
		action Action
		event  Event
		reward float64
	}{
		{FlagAt(0, 0), EventFlagCorrect, r.FlagCorrect},
		{FlagAt(0, 0), EventUnflag, r.Unflag},
		{FlagAt(1, 0), EventFlagWrong, r.FlagWrong},
		{RevealAt(0, 1), EventRevealSafe, r.RevealSafe},
		{FlagAt(0, 1), EventFlagRevealed, r.FlagRevealed},
	}
	for _, test := range tests {
		out, err := e.Step(test.action)
		require.NoError(t, err, test.action.String())
		assert.Equal(t, test.event, out.Info.Event, test.action.String())
		assert.Equal(t, test.reward, out.Reward, test.action.String())
		assert.False(t, out.Done)
	}

	c, _ := e.Board().Cell(0, 1)
	assert.False(t, c.IsFlagged)
}

func TestStepMalformedAction(t *testing.T) {
	e := newTestEnv(t, RevealOnly, mines.Point{X: 0, Y: 0})
	before := e.State()

	var ce mines.ConfigurationError
	_, err := e.Step(FlagAt(1, 1))
	assert.ErrorAs(t, err, &ce)

	_, err = e.Step(Action{Kind: 9})
	assert.ErrorAs(t, err, &ce)

	var be mines.BoundsError
	_, err = e.Step(RevealAt(3, 0))
	assert.ErrorAs(t, err, &be)

	assert.Equal(t, before, e.State())
}

func TestSimpleRewardsWinReplaces(t *testing.T) {
	e := newTestEnv(t, RevealOnly, mines.Point{X: 0, Y: 0})

	out, err := e.Step(RevealAt(2, 2))
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.Equal(t, SimpleRewards().Win, out.Reward)
}

func TestLegalActionsOrder(t *testing.T) {
	s := State("0F.1")
	assert.Equal(t, []Action{
		RevealAt(0, 1), FlagAt(0, 1),
		RevealAt(1, 0), FlagAt(1, 0),
	}, LegalActions(s, 2, WithFlags))
	assert.Equal(t, []Action{RevealAt(0, 1), RevealAt(1, 0)}, LegalActions(s, 2, RevealOnly))
	assert.Empty(t, LegalActions(State("01*2"), 2, WithFlags))
}

func TestResetWithMismatchedBoard(t *testing.T) {
	e := newTestEnv(t, WithFlags)
	board, err := mines.NewBoardWithMines(4, 4)
	require.NoError(t, err)
	_, err = e.ResetWith(board)
	var ce mines.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}
