package qlearn

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

type Result struct {
	Episodes      int     `json:"episodes"`
	Wins          int     `json:"wins"`
	WinRate       float64 `json:"win_rate"`
	AverageSteps  float64 `json:"average_steps"`
	AverageReward float64 `json:"average_reward"`
}

// Evaluator measures the greedy policy of a table. It only reads the table.
type Evaluator struct {
	table    *Table
	cfg      env.Config
	maxSteps int
}

func NewEvaluator(table *Table, cfg env.Config, maxSteps int) (*Evaluator, error) {
	if maxSteps <= 0 {
		return nil, mines.NewConfigurationError("max steps must be positive, got %d", maxSteps)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{table: table, cfg: cfg, maxSteps: maxSteps}, nil
}

// Evaluate plays episodes greedy games on boards dealt from seed. The same
// table and seed always give the same result.
func (e *Evaluator) Evaluate(episodes int, seed uint64) (Result, error) {
	if episodes <= 0 {
		return Result{}, mines.NewConfigurationError("episodes must be positive, got %d", episodes)
	}
	environment, err := env.New(e.cfg, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return Result{}, err
	}

	var (
		res          = Result{Episodes: episodes}
		totalSteps   int
		totalRewards float64
	)
	for i := range episodes {
		if i > 0 {
			if _, err := environment.Reset(); err != nil {
				return res, err
			}
		}
		steps, err := e.Play(environment, nil)
		if err != nil {
			return res, err
		}
		totalSteps += len(steps)
		for _, s := range steps {
			totalRewards += s.Outcome.Reward
		}
		if environment.Won() {
			res.Wins++
		}
	}

	res.WinRate = float64(res.Wins) / float64(episodes)
	res.AverageSteps = float64(totalSteps) / float64(episodes)
	res.AverageReward = totalRewards / float64(episodes)

	Log.WithFields(logrus.Fields{
		"episodes": res.Episodes,
		"wins":     res.Wins,
		"win_rate": res.WinRate,
		"steps":    res.AverageSteps,
	}).Info("evaluation finished")
	return res, nil
}

// Play finishes the current episode of environment greedily, calling onStep
// after every move.
func (e *Evaluator) Play(environment *env.Environment, onStep func(StepRecord)) ([]StepRecord, error) {
	var records []StepRecord
	for !environment.Done() && len(records) < e.maxSteps {
		rec, err := GreedyStep(environment, e.table)
		if err != nil {
			return records, err
		}
		rec.Step = len(records)
		records = append(records, rec)
		if onStep != nil {
			onStep(rec)
		}
	}
	return records, nil
}

type StepRecord struct {
	Step    int         `json:"step"`
	Action  env.Action  `json:"action"`
	Value   float64     `json:"value"`
	Outcome env.Outcome `json:"outcome"`
}

// GreedyStep takes the best known action in the environment's current
// state.
func GreedyStep(environment *env.Environment, table *Table) (StepRecord, error) {
	state := environment.State()
	action, value, ok := table.Best(state, environment.LegalActions(state))
	if !ok {
		return StepRecord{}, ErrNoActions
	}
	out, err := environment.Step(action)
	if err != nil {
		return StepRecord{}, err
	}
	return StepRecord{Action: action, Value: value, Outcome: out}, nil
}
