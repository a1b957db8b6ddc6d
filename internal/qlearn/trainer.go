package qlearn

import (
	"context"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

var Log = logrus.New()

type Params struct {
	Alpha         float64         `json:"alpha"`
	Gamma         float64         `json:"gamma"`
	Episodes      int             `json:"episodes"`
	MaxSteps      int             `json:"max_steps"`
	Epsilon       EpsilonSchedule `json:"epsilon"`
	ProgressEvery int             `json:"progress_every"`
}

func DefaultParams() Params {
	return Params{
		Alpha:         0.2,
		Gamma:         1,
		Episodes:      8000 * 40,
		MaxSteps:      16,
		Epsilon:       DefaultEpsilonSchedule(),
		ProgressEvery: 1000,
	}
}

func (p Params) Validate() error {
	if p.Alpha <= 0 || p.Alpha > 1 {
		return mines.NewConfigurationError("alpha must be in (0, 1], got %g", p.Alpha)
	}
	if p.Gamma < 0 || p.Gamma > 1 {
		return mines.NewConfigurationError("gamma must be in [0, 1], got %g", p.Gamma)
	}
	if p.Episodes <= 0 {
		return mines.NewConfigurationError("episodes must be positive, got %d", p.Episodes)
	}
	if p.MaxSteps <= 0 {
		return mines.NewConfigurationError("max steps must be positive, got %d", p.MaxSteps)
	}
	return p.Epsilon.Validate()
}

type EpisodeStats struct {
	Episode int     `json:"episode"`
	Epsilon float64 `json:"epsilon"`
	Steps   int     `json:"steps"`
	Reward  float64 `json:"reward"`
	Won     bool    `json:"won"`
	Lost    bool    `json:"lost"`
}

type Summary struct {
	Episodes    int     `json:"episodes"`
	Wins        int     `json:"wins"`
	TotalReward float64 `json:"total_reward"`
	TotalSteps  int     `json:"total_steps"`
	TableSize   int     `json:"table_size"`
	Interrupted bool    `json:"interrupted"`
}

func (s Summary) WinRate() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Episodes)
}

// Trainer runs tabular Q-learning. It is the only writer of its table.
type Trainer struct {
	env    *env.Environment
	table  *Table
	agent  *Agent
	params Params
}

func NewTrainer(e *env.Environment, table *Table, params Params, rnd *rand.Rand) (*Trainer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{
		env:    e,
		table:  table,
		agent:  NewAgent(table, rnd),
		params: params,
	}
	return t, nil
}

func (t *Trainer) Table() *Table {
	return t.table
}

// Update applies one Bellman backup and returns the new value:
//
//	Q[s,a] += alpha * (reward + gamma * max_a' Q[next,a'] - Q[s,a])
//
// The max runs over the same legal actions the agent would choose from in
// next.
func (t *Trainer) Update(s env.State, a env.Action, reward float64, next env.State) float64 {
	bestNext := t.table.Max(next, t.env.LegalActions(next))
	q := t.table.Value(s, a)
	q += t.params.Alpha * (reward + t.params.Gamma*bestNext - q)
	t.table.Set(s, a, q)
	return q
}

// RunEpisode plays one episode from a fresh board, learning after every
// step. Any error leaves the board in an unknown state and is fatal.
func (t *Trainer) RunEpisode(episode int) (EpisodeStats, error) {
	stats := EpisodeStats{
		Episode: episode,
		Epsilon: t.params.Epsilon.At(episode),
	}

	state, err := t.env.Reset()
	if err != nil {
		return stats, err
	}

	for !t.env.Done() && stats.Steps < t.params.MaxSteps {
		action, err := t.agent.ChooseAction(state, t.env.LegalActions(state), stats.Epsilon)
		if err != nil {
			return stats, err
		}
		out, err := t.env.Step(action)
		if err != nil {
			return stats, err
		}
		t.Update(state, action, out.Reward, out.State)

		state = out.State
		stats.Steps++
		stats.Reward += out.Reward
		stats.Won = out.Info.Won
		stats.Lost = out.Info.Lost
	}
	return stats, nil
}

// Train runs the configured number of episodes. Cancelling ctx stops
// training between episodes; the table keeps everything learnt so far.
func (t *Trainer) Train(ctx context.Context, onEpisode func(EpisodeStats)) (summary Summary, err error) {
	defer func() { summary.TableSize = t.table.Len() }()

	for episode := range t.params.Episodes {
		if err := ctx.Err(); err != nil {
			summary.Interrupted = true
			Log.WithError(err).WithField("episode", episode).Warn("training interrupted")
			return summary, nil
		}

		stats, err := t.RunEpisode(episode)
		if err != nil {
			return summary, err
		}

		summary.Episodes++
		summary.TotalReward += stats.Reward
		summary.TotalSteps += stats.Steps
		if stats.Won {
			summary.Wins++
		}

		if onEpisode != nil {
			onEpisode(stats)
		}

		if every := t.params.ProgressEvery; every > 0 && ((episode+1)%every == 0 || episode == 0) {
			Log.WithFields(logrus.Fields{
				"episode": episode + 1,
				"of":      t.params.Episodes,
				"epsilon": stats.Epsilon,
				"reward":  stats.Reward,
				"steps":   stats.Steps,
				"won":     stats.Won,
				"states":  t.table.Len(),
			}).Info("episode complete")
		}
	}

	Log.WithFields(logrus.Fields{
		"episodes": summary.Episodes,
		"wins":     summary.Wins,
		"states":   t.table.Len(),
	}).Info("training finished")
	return summary, nil
}
