package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ybhrdwj/mittens-bot/internal/model"
)

type LogRepository interface {
	Append(ctx context.Context, entry *model.LogEntry) error
	CountSince(ctx context.Context, goalID string, since time.Time) (int, error)
}

type logRepository struct {
	db *sqlx.DB
}

func NewLogRepository(db *sqlx.DB) LogRepository {
	return &logRepository{db: db}
}

// Append records one completion event and bumps the goal's counter in the
// same transaction. The counter update is relative and evaluated by the
// store, so concurrent appends against the same goal never lose an
// increment.
func (r *logRepository) Append(ctx context.Context, entry *model.LogEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO logs (id, goal_id, timestamp) VALUES ($1, $2, $3)`,
		entry.ID, entry.GoalID, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE goals SET frequency_done = frequency_done + 1 WHERE id = $1`,
		entry.GoalID)
	if err != nil {
		return fmt.Errorf("failed to increment goal counter: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}

	return tx.Commit()
}

func (r *logRepository) CountSince(ctx context.Context, goalID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM logs WHERE goal_id = $1 AND timestamp >= $2`
	err := r.db.QueryRowContext(ctx, query, goalID, since).Scan(&count)
	return count, err
}
