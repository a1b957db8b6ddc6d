package handlers

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrStepLimit   = errors.New("step limit reached")
	ErrNoSuchGame  = errors.New("game not found")
	ErrTooManyGames = errors.New("too many live games")
)

// Session is one live game. All access goes through its mutex.
type Session struct {
	mu        sync.Mutex
	id        uuid.UUID
	env       *env.Environment
	table     *qlearn.Table
	maxSteps  int
	steps     []qlearn.StepRecord
	startedAt time.Time
	endedAt   *time.Time
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Step plays one move. A nil action lets the agent pick greedily.
func (s *Session) Step(action *env.Action) (qlearn.StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(action)
}

func (s *Session) step(action *env.Action) (qlearn.StepRecord, error) {
	if s.env.Done() {
		return qlearn.StepRecord{}, ErrGameOver
	}
	if len(s.steps) >= s.maxSteps {
		return qlearn.StepRecord{}, ErrStepLimit
	}

	var (
		rec qlearn.StepRecord
		err error
	)
	if action == nil {
		rec, err = qlearn.GreedyStep(s.env, s.table)
	} else {
		rec.Action = *action
		rec.Value = s.table.Value(s.env.State(), *action)
		rec.Outcome, err = s.env.Step(*action)
	}
	if err != nil {
		return qlearn.StepRecord{}, err
	}

	rec.Step = len(s.steps)
	s.steps = append(s.steps, rec)
	if rec.Outcome.Done {
		now := time.Now().UTC()
		s.endedAt = &now
	}
	return rec, nil
}

// Play lets the agent finish the game and returns the moves it made.
func (s *Session) Play() ([]qlearn.StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []qlearn.StepRecord
	for !s.env.Done() && len(s.steps) < s.maxSteps {
		rec, err := s.step(nil)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Session) DTO() GameDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dto()
}

func (s *Session) dto() GameDTO {
	cfg := s.env.Config()
	dto := GameDTO{
		GameId:    s.id.String(),
		Width:     cfg.Params.Width,
		Height:    cfg.Params.Height,
		MineCount: cfg.Params.MineCount,
		Variant:   cfg.Variant,
		State:     s.env.State(),
		Done:      s.env.Done(),
		Won:       s.env.Done() && s.env.Won(),
		Steps:     len(s.steps),
		StartedAt: s.startedAt.UnixMilli(),
	}
	if s.endedAt != nil {
		ended := s.endedAt.UnixMilli()
		dto.EndedAt = &ended
		dto.Mines = s.env.Board().Mines()
	}
	return dto
}

// Sessions keeps live games in memory.
type Sessions struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*Session
	limit int
}

func NewSessions(limit int) *Sessions {
	return &Sessions{games: make(map[uuid.UUID]*Session), limit: limit}
}

func (ss *Sessions) Add(e *env.Environment, table *qlearn.Table, maxSteps int) (*Session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.limit > 0 && len(ss.games) >= ss.limit {
		ss.evictFinished()
		if len(ss.games) >= ss.limit {
			return nil, ErrTooManyGames
		}
	}

	s := &Session{
		id:        uuid.New(),
		env:       e,
		table:     table,
		maxSteps:  maxSteps,
		startedAt: time.Now().UTC(),
	}
	ss.games[s.id] = s
	return s, nil
}

func (ss *Sessions) evictFinished() {
	for id, s := range ss.games {
		s.mu.Lock()
		done := s.env.Done() || len(s.steps) >= s.maxSteps
		s.mu.Unlock()
		if done {
			delete(ss.games, id)
		}
	}
}

func (ss *Sessions) Get(id string) (*Session, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNoSuchGame
	}
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.games[key]
	if !ok {
		return nil, ErrNoSuchGame
	}
	return s, nil
}

func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.games)
}
