package repository

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

func TestRunFilterWhereClause(t *testing.T) {
	variant := env.RevealOnly
	tests := []struct {
		name   string
		filter RunFilter
		clause string
		args   pgx.NamedArgs
	}{
		{"empty", RunFilter{}, "", pgx.NamedArgs{}},
		{
			"board",
			RunFilter{GameParams: &mines.GameParams{Width: 6, Height: 6, MineCount: 5}},
			"width = @width AND height = @height AND mine_count = @mineCount",
			pgx.NamedArgs{"width": 6, "height": 6, "mineCount": 5},
		},
		{
			"variant",
			RunFilter{Variant: &variant, Limit: 3},
			"variant = @variant",
			pgx.NamedArgs{"variant": "reveal"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := tt.filter.WhereClause()
			assert.Equal(t, tt.clause, clause)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestFinishRunSetClause(t *testing.T) {
	summary := qlearn.Summary{Episodes: 10, Wins: 4, TableSize: 99}

	clause, args := FinishRunParams{Summary: summary}.SetClause()
	assert.Equal(t, "episodes = @episodes, wins = @wins, table_size = @table_size, finished_at = @finished_at", clause)
	assert.NotContains(t, args, "win_rate")

	clause, args = FinishRunParams{
		Summary:    summary,
		Evaluation: &qlearn.Result{WinRate: 0.4, AverageSteps: 3},
	}.SetClause()
	assert.Contains(t, clause, "win_rate = @win_rate")
	assert.Equal(t, 0.4, args["win_rate"])
	assert.Equal(t, 3.0, args["average_steps"])
}
