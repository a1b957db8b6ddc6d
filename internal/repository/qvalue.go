package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

// SaveTable replaces the stored values of a run with entries.
func (q *Queries) SaveTable(ctx context.Context, runId uuid.UUID, entries []qlearn.Entry) (int64, error) {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM q_value WHERE run_id = $1", runId); err != nil {
		return 0, err
	}

	n, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"q_value"},
		[]string{"run_id", "state", "action", "value"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{runId, e.State, e.Action, e.Value}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("unable to copy q values: %w", err)
	}

	return n, tx.Commit(ctx)
}

func (q *Queries) LoadTable(ctx context.Context, runId uuid.UUID) ([]qlearn.Entry, error) {
	rows, err := q.db.Query(
		ctx,
		"SELECT state, action, value FROM q_value WHERE run_id = $1 ORDER BY state, action",
		runId,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[qlearn.Entry])
}
