package handlers

import (
	"net/url"

	"github.com/gorilla/schema"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type GameDTO struct {
	GameId    string        `json:"game_id"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	MineCount int           `json:"mine_count"`
	Variant   env.Variant   `json:"variant"`
	State     env.State     `json:"state"`
	Done      bool          `json:"done"`
	Won       bool          `json:"won"`
	Steps     int           `json:"steps"`
	StartedAt int64         `json:"started_at"`
	EndedAt   *int64        `json:"ended_at,omitempty"`
	Mines     []mines.Point `json:"mines,omitempty"`
}

type StepDTO struct {
	Step qlearn.StepRecord `json:"step"`
	Game GameDTO           `json:"game"`
}

type PlayDTO struct {
	Steps []qlearn.StepRecord `json:"steps"`
	Game  GameDTO             `json:"game"`
}

// ParseAction reads an explicit move from the query. ok is false when the
// query names no cell, meaning the agent should move.
func ParseAction(query url.Values) (action env.Action, ok bool, err error) {
	if !query.Has("x") && !query.Has("y") {
		return env.Action{}, false, nil
	}
	if err := decoder.Decode(&action, query); err != nil {
		return env.Action{}, false, err
	}
	return action, true, nil
}

type EvaluateDTO struct {
	Episodes int    `schema:"episodes"`
	Seed     uint64 `schema:"seed"`
}

func ParseEvaluateDTO(query url.Values) (EvaluateDTO, error) {
	dto := EvaluateDTO{Episodes: 100}
	err := decoder.Decode(&dto, query)
	return dto, err
}

type LeaderboardDTO struct {
	Width     int    `schema:"width"`
	Height    int    `schema:"height"`
	MineCount int    `schema:"mine_count"`
	Variant   string `schema:"variant"`
	Limit     int    `schema:"limit"`
}

type StatsDTO struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	MineCount int            `json:"mine_count"`
	Variant   env.Variant    `json:"variant"`
	Rewards   env.Rewards    `json:"rewards"`
	TableSize int            `json:"table_size"`
	Games     int            `json:"games"`
	Training  qlearn.Summary `json:"training"`
}
