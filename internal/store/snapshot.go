package store

import (
	"fmt"
	"time"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

// Snapshot is a trained table together with everything needed to resume
// training or to play with it.
type Snapshot struct {
	Board   mines.GameParams
	Variant env.Variant
	Rewards env.Rewards
	Params  qlearn.Params
	Summary qlearn.Summary
	Entries []qlearn.Entry
	SavedAt time.Time
}

func (s Snapshot) EnvConfig() env.Config {
	return env.Config{Params: s.Board, Variant: s.Variant, Rewards: s.Rewards}
}

// Table rebuilds the table held by the snapshot.
func (s Snapshot) Table() (*qlearn.Table, error) {
	return qlearn.TableFromEntries(s.Entries)
}

func NewSnapshot(cfg env.Config, params qlearn.Params, summary qlearn.Summary, table *qlearn.Table) Snapshot {
	return Snapshot{
		Board:   cfg.Params,
		Variant: cfg.Variant,
		Rewards: cfg.Rewards,
		Params:  params,
		Summary: summary,
		Entries: table.Entries(),
		SavedAt: time.Now().UTC(),
	}
}

func (s *Store) SaveSnapshot(name string, snap Snapshot) error {
	if err := s.Set(name, snap); err != nil {
		return fmt.Errorf("unable to save snapshot %s: %w", name, err)
	}
	return nil
}

func (s *Store) LoadSnapshot(name string) (*Snapshot, error) {
	var snap Snapshot
	if err := s.Get(name, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
