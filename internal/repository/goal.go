package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ybhrdwj/mittens-bot/internal/model"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Replace(ctx context.Context, userID int64, goals []*model.Goal) error
	ByID(ctx context.Context, goalID string) (*model.Goal, error)
	ByUser(ctx context.Context, userID int64, periodStart time.Time) ([]*model.GoalProgress, error)
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// Replace swaps the user's entire goal set in one transaction. Old log
// entries go with the old goals; a failure anywhere leaves the prior set
// untouched.
func (r *goalRepository) Replace(ctx context.Context, userID int64, goals []*model.Goal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM logs WHERE goal_id IN (SELECT id FROM goals WHERE user_id = $1)`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete old logs: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM goals WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete old goals: %w", err)
	}

	query := `INSERT INTO goals (id, user_id, position, name, frequency_aimed, frequency_done, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, goal := range goals {
		_, err = tx.ExecContext(ctx, query,
			goal.ID,
			goal.UserID,
			goal.Position,
			goal.Name,
			goal.FrequencyAimed,
			goal.FrequencyDone,
			goal.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert goal %q: %w", goal.Name, err)
		}
	}

	return tx.Commit()
}

func (r *goalRepository) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := r.db.GetContext(ctx, goal, query, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

// ByUser returns the user's goals in the order they were declared, with
// frequency_done derived as the count of log entries since periodStart.
// Counting from the log rows means progress resets at each period boundary
// without any write-back.
func (r *goalRepository) ByUser(ctx context.Context, userID int64, periodStart time.Time) ([]*model.GoalProgress, error) {
	var goals []*model.GoalProgress
	query := `SELECT g.id, g.name, g.frequency_aimed, COUNT(l.id) AS frequency_done
	          FROM goals g
	          LEFT JOIN logs l ON l.goal_id = g.id AND l.timestamp >= $2
	          WHERE g.user_id = $1
	          GROUP BY g.id, g.name, g.frequency_aimed, g.position
	          ORDER BY g.position ASC`

	err := r.db.SelectContext(ctx, &goals, query, userID, periodStart)
	if err != nil {
		return nil, err
	}

	return goals, nil
}
