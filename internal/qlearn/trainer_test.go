package qlearn

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

func newTestTrainer(t *testing.T, cfg env.Config, params Params, seed uint64) *Trainer {
	t.Helper()
	e, err := env.New(cfg, rand.New(rand.NewPCG(seed, 1)))
	require.NoError(t, err)
	trainer, err := NewTrainer(e, NewTable(), params, rand.New(rand.NewPCG(seed, 2)))
	require.NoError(t, err)
	return trainer
}

func smallConfig(v env.Variant) env.Config {
	return env.Config{
		Params:  mines.GameParams{Width: 3, Height: 3, MineCount: 1},
		Variant: v,
		Rewards: env.RewardsFor(v),
	}
}

func TestBellmanUpdate(t *testing.T) {
	params := DefaultParams()
	params.Alpha = 0.5
	params.Gamma = 1
	trainer := newTestTrainer(t, smallConfig(env.WithFlags), params, 1)

	s := env.State(".........")
	next := env.State("1........")
	a := env.RevealAt(0, 0)

	q := trainer.Update(s, a, 10, next)
	assert.Equal(t, 5.0, q)
	assert.Equal(t, 5.0, trainer.Table().Value(s, a))

	q = trainer.Update(s, a, 10, next)
	assert.Equal(t, 7.5, q)
}

func TestBellmanUpdateBootstrapsFromLegalActions(t *testing.T) {
	params := DefaultParams()
	params.Alpha = 1
	params.Gamma = 0.5
	trainer := newTestTrainer(t, smallConfig(env.RevealOnly), params, 1)
	table := trainer.Table()

	next := env.State("1........")
	table.Set(next, env.RevealAt(0, 1), 8)
	// revealed cells are not legal, so this value must be ignored
	table.Set(next, env.RevealAt(0, 0), 100)

	q := trainer.Update(".........", env.RevealAt(0, 0), 2, next)
	assert.Equal(t, 2+0.5*8.0, q)
}

func TestNewTrainerValidatesParams(t *testing.T) {
	e, err := env.New(smallConfig(env.WithFlags), rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	bad := []func(*Params){
		func(p *Params) { p.Alpha = 0 },
		func(p *Params) { p.Alpha = 1.5 },
		func(p *Params) { p.Gamma = -0.1 },
		func(p *Params) { p.Episodes = 0 },
		func(p *Params) { p.MaxSteps = 0 },
		func(p *Params) { p.Epsilon.Min = 2 },
	}
	for _, mutate := range bad {
		params := DefaultParams()
		mutate(&params)
		_, err := NewTrainer(e, NewTable(), params, rand.New(rand.NewPCG(1, 2)))
		var ce mines.ConfigurationError
		assert.ErrorAs(t, err, &ce)
	}
}

func TestTrainRunsEpisodes(t *testing.T) {
	params := DefaultParams()
	params.Episodes = 300
	params.MaxSteps = 6
	params.Epsilon = EpsilonSchedule{Max: 1, Min: 0.1, DecayRate: 0.01}
	trainer := newTestTrainer(t, smallConfig(env.WithFlags), params, 7)

	var episodes []EpisodeStats
	summary, err := trainer.Train(context.Background(), func(s EpisodeStats) {
		episodes = append(episodes, s)
	})
	require.NoError(t, err)

	assert.Equal(t, params.Episodes, summary.Episodes)
	assert.False(t, summary.Interrupted)
	assert.Equal(t, trainer.Table().Len(), summary.TableSize)
	assert.Positive(t, summary.TableSize)
	require.Len(t, episodes, params.Episodes)

	wins, steps := 0, 0
	for i, s := range episodes {
		assert.Equal(t, i, s.Episode)
		assert.Equal(t, params.Epsilon.At(i), s.Epsilon)
		assert.LessOrEqual(t, s.Steps, params.MaxSteps)
		assert.Positive(t, s.Steps)
		assert.False(t, s.Won && s.Lost)
		if s.Won {
			wins++
		}
		steps += s.Steps
	}
	assert.Equal(t, wins, summary.Wins)
	assert.Equal(t, steps, summary.TotalSteps)
}

func TestTrainIsReproducible(t *testing.T) {
	params := DefaultParams()
	params.Episodes = 200
	params.Epsilon = ConstantEpsilon(0.3)

	a := newTestTrainer(t, smallConfig(env.WithFlags), params, 3)
	b := newTestTrainer(t, smallConfig(env.WithFlags), params, 3)

	_, err := a.Train(context.Background(), nil)
	require.NoError(t, err)
	_, err = b.Train(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, a.Table().Entries(), b.Table().Entries())
}

func TestTrainStopsOnCancel(t *testing.T) {
	params := DefaultParams()
	params.Episodes = 1000
	trainer := newTestTrainer(t, smallConfig(env.WithFlags), params, 1)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	summary, err := trainer.Train(ctx, func(EpisodeStats) {
		calls++
		if calls == 10 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Equal(t, 10, summary.Episodes)
}

func TestTrainLearnsToReveal(t *testing.T) {
	cfg := env.Config{
		Params:  mines.GameParams{Width: 2, Height: 2, MineCount: 0},
		Variant: env.WithFlags,
		Rewards: env.DefaultRewards(),
	}
	params := DefaultParams()
	params.Alpha = 0.5
	params.Gamma = 0.9
	params.Episodes = 500
	params.Epsilon = ConstantEpsilon(1)
	trainer := newTestTrainer(t, cfg, params, 5)

	_, err := trainer.Train(context.Background(), nil)
	require.NoError(t, err)

	table := trainer.Table()
	initial := env.State("....")
	assert.Greater(t,
		table.Value(initial, env.RevealAt(0, 0)),
		table.Value(initial, env.FlagAt(0, 0)),
	)

	best, _, ok := table.Best(initial, env.LegalActions(initial, 2, env.WithFlags))
	require.True(t, ok)
	assert.Equal(t, env.Reveal, best.Kind)
}
