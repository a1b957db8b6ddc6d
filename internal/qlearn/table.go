package qlearn

import (
	"cmp"
	"slices"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
)

type Key struct {
	State  env.State
	Action env.Action
}

// Entry is the persisted form of one table cell.
type Entry struct {
	State  string  `json:"state"`
	Action string  `json:"action"`
	Value  float64 `json:"value"`
}

// Table is a sparse action-value table. Keys that were never written read
// as 0.0 and reading never inserts.
//
// A Table is not safe for concurrent writers. Parallel training would need
// per-key atomic updates or one table per worker merged afterwards.
type Table struct {
	values map[Key]float64
}

func NewTable() *Table {
	return &Table{values: make(map[Key]float64)}
}

func (t *Table) Value(s env.State, a env.Action) float64 {
	return t.values[Key{s, a}]
}

func (t *Table) Set(s env.State, a env.Action, v float64) {
	t.values[Key{s, a}] = v
}

func (t *Table) Len() int {
	return len(t.values)
}

// Best returns the highest valued action among actions. Ties go to the
// action that comes first. ok is false when actions is empty.
func (t *Table) Best(s env.State, actions []env.Action) (best env.Action, value float64, ok bool) {
	for i, a := range actions {
		v := t.Value(s, a)
		if i == 0 || v > value {
			best, value = a, v
		}
	}
	return best, value, len(actions) > 0
}

// Max is the bootstrap value of s; 0 when there is nothing to do.
func (t *Table) Max(s env.State, actions []env.Action) float64 {
	_, v, _ := t.Best(s, actions)
	return v
}

type ActionValue struct {
	Action env.Action `json:"action"`
	Value  float64    `json:"value"`
}

// TopActions returns up to k actions sorted by value, best first. Equal
// values keep their order in actions.
func (t *Table) TopActions(s env.State, actions []env.Action, k int) []ActionValue {
	ranked := make([]ActionValue, len(actions))
	for i, a := range actions {
		ranked[i] = ActionValue{a, t.Value(s, a)}
	}
	slices.SortStableFunc(ranked, func(a, b ActionValue) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Entries lists every stored value ordered by state, then action.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.values))
	for k, v := range t.values {
		entries = append(entries, Entry{
			State:  string(k.State),
			Action: k.Action.String(),
			Value:  v,
		})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.State, b.State); c != 0 {
			return c
		}
		return cmp.Compare(a.Action, b.Action)
	})
	return entries
}

// Load stores every entry, overwriting values already present.
func (t *Table) Load(entries []Entry) error {
	for _, e := range entries {
		a, err := env.ParseAction(e.Action)
		if err != nil {
			return err
		}
		s := env.State(e.State)
		if _, err := s.Grid(); err != nil {
			return err
		}
		t.Set(s, a, e.Value)
	}
	return nil
}

func TableFromEntries(entries []Entry) (*Table, error) {
	t := NewTable()
	if err := t.Load(entries); err != nil {
		return nil, err
	}
	return t, nil
}
