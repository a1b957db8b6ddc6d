package qlearn

import (
	"errors"
	"math/rand/v2"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
)

var ErrNoActions = errors.New("no legal actions")

// Agent is an epsilon-greedy policy over a shared [Table]. It never writes
// to the table.
type Agent struct {
	table *Table
	rnd   *rand.Rand
}

func NewAgent(table *Table, rnd *rand.Rand) *Agent {
	return &Agent{table: table, rnd: rnd}
}

// ChooseAction explores with probability epsilon and otherwise takes the
// first best valued action. With epsilon 0 no randomness is consumed.
func (a *Agent) ChooseAction(s env.State, actions []env.Action, epsilon float64) (env.Action, error) {
	if len(actions) == 0 {
		return env.Action{}, ErrNoActions
	}
	if epsilon > 0 && a.rnd.Float64() < epsilon {
		return actions[a.rnd.IntN(len(actions))], nil
	}
	best, _, _ := a.table.Best(s, actions)
	return best, nil
}
