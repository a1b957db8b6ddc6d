package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

type Run struct {
	RunId        uuid.UUID
	Name         string
	Width        int
	Height       int
	MineCount    int
	Variant      string
	Params       qlearn.Params
	Rewards      env.Rewards
	Episodes     int
	Wins         int
	TableSize    int
	WinRate      *float64
	AverageSteps *float64
	StartedAt    pgtype.Timestamptz
	FinishedAt   pgtype.Timestamptz
}

func (r Run) GameParams() mines.GameParams {
	return mines.GameParams{Width: r.Width, Height: r.Height, MineCount: r.MineCount}
}

type CreateRunParams struct {
	Name   string
	Env    env.Config
	Params qlearn.Params
}

func (q *Queries) CreateRun(ctx context.Context, params CreateRunParams) (*Run, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO training_run (
			run_id, name, width, height, mine_count, variant, params, rewards
		)
		VALUES (
			@run_id, @name, @width, @height, @mine_count, @variant, @params, @rewards
		)
		RETURNING *`,
		pgx.NamedArgs{
			"run_id":     uuid.New(),
			"name":       params.Name,
			"width":      params.Env.Params.Width,
			"height":     params.Env.Params.Height,
			"mine_count": params.Env.Params.MineCount,
			"variant":    params.Env.Variant.String(),
			"params":     params.Params,
			"rewards":    params.Env.Rewards,
		},
	)
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return nil, ErrRunExists
		}
		return nil, err
	}
	return run, nil
}

type FinishRunParams struct {
	Summary    qlearn.Summary
	Evaluation *qlearn.Result
	FinishedAt time.Time
}

func (p FinishRunParams) SetClause() (string, pgx.NamedArgs) {
	parts := []string{
		"episodes = @episodes",
		"wins = @wins",
		"table_size = @table_size",
		"finished_at = @finished_at",
	}
	args := pgx.NamedArgs{
		"episodes":    p.Summary.Episodes,
		"wins":        p.Summary.Wins,
		"table_size":  p.Summary.TableSize,
		"finished_at": p.FinishedAt,
	}
	if p.Evaluation != nil {
		parts = append(parts, "win_rate = @win_rate", "average_steps = @average_steps")
		args["win_rate"] = p.Evaluation.WinRate
		args["average_steps"] = p.Evaluation.AverageSteps
	}
	return strings.Join(parts, ", "), args
}

func (q *Queries) FinishRun(ctx context.Context, runId uuid.UUID, params FinishRunParams) (*Run, error) {
	setClause, args := params.SetClause()
	args["run_id"] = runId
	rows, _ := q.db.Query(
		ctx,
		"UPDATE training_run SET "+setClause+" WHERE run_id = @run_id RETURNING *",
		args,
	)
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
	return run, notFound(err)
}

func (q *Queries) FetchRun(ctx context.Context, name string) (*Run, error) {
	rows, _ := q.db.Query(ctx, "SELECT * FROM training_run WHERE name = $1", name)
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
	return run, notFound(err)
}

type RunScore struct {
	Name         string  `json:"name"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	MineCount    int     `json:"mine_count"`
	Variant      string  `json:"variant"`
	Episodes     int     `json:"episodes"`
	WinRate      float64 `json:"win_rate"`
	AverageSteps float64 `json:"average_steps"`
}

type RunFilter struct {
	GameParams *mines.GameParams
	Variant    *env.Variant
	Limit      int
}

func (f RunFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.GameParams != nil {
		clauses = append(
			clauses,
			"width = @width",
			"height = @height",
			"mine_count = @mineCount",
		)
		args["width"] = f.GameParams.Width
		args["height"] = f.GameParams.Height
		args["mineCount"] = f.GameParams.MineCount
	}
	if f.Variant != nil {
		clauses = append(clauses, "variant = @variant")
		args["variant"] = f.Variant.String()
	}
	return strings.Join(clauses, " AND "), args
}

// Leaderboard lists evaluated runs, best win rate first.
func (q *Queries) Leaderboard(ctx context.Context, filter RunFilter) ([]RunScore, error) {
	query := `
	SELECT
		name,
		width,
		height,
		mine_count,
		variant,
		episodes,
		win_rate,
		average_steps
	FROM training_run
	WHERE
		finished_at IS NOT NULL
		AND win_rate IS NOT NULL
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}

	query += " ORDER BY win_rate DESC, average_steps"
	if filter.Limit > 0 {
		query += " LIMIT @limit"
		args["limit"] = filter.Limit
	}

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[RunScore])
}
