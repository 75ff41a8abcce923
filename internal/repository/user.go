package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ybhrdwj/mittens-bot/internal/model"
)

type UserRepository interface {
	Upsert(ctx context.Context, telegramID int64, username string) error
	ByID(ctx context.Context, telegramID int64) (*model.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert creates the user row on first contact and refreshes the username
// on every later one. Safe to call on every inbound message.
func (r *userRepository) Upsert(ctx context.Context, telegramID int64, username string) error {
	query := `INSERT INTO users (telegram_id, username, created_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (telegram_id) DO UPDATE SET username = excluded.username`

	_, err := r.db.ExecContext(ctx, query, telegramID, username, time.Now())
	return err
}

func (r *userRepository) ByID(ctx context.Context, telegramID int64) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE telegram_id = $1`

	err := r.db.GetContext(ctx, user, query, telegramID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}
