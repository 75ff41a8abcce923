package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ybhrdwj/mittens-bot/internal/db"
	"github.com/ybhrdwj/mittens-bot/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)

	// One writer at a time keeps SQLite happy under concurrent tests.
	database.SetMaxOpenConns(1)

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	t.Cleanup(func() { database.Close() })
	return database
}

func seedUser(t *testing.T, database *sqlx.DB, telegramID int64) {
	t.Helper()
	err := NewUserRepository(database).Upsert(context.Background(), telegramID, "tester")
	require.NoError(t, err)
}

func makeGoal(userID int64, position int, name string, aimed int) *model.Goal {
	return &model.Goal{
		ID:             uuid.New().String(),
		UserID:         userID,
		Position:       position,
		Name:           name,
		FrequencyAimed: aimed,
		CreatedAt:      time.Now(),
	}
}

func TestReplacePreservesDeclarationOrder(t *testing.T) {
	database := newTestDB(t)
	seedUser(t, database, 1)
	repo := NewGoalRepository(database)
	ctx := context.Background()

	goals := []*model.Goal{
		makeGoal(1, 0, "Gym", 2),
		makeGoal(1, 1, "Read", 1),
		makeGoal(1, 2, "Run", 3),
	}
	require.NoError(t, repo.Replace(ctx, 1, goals))

	got, err := repo.ByUser(ctx, 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Gym", got[0].Name)
	assert.Equal(t, "Read", got[1].Name)
	assert.Equal(t, "Run", got[2].Name)
	for _, g := range got {
		assert.Equal(t, 0, g.FrequencyDone)
	}
}

func TestReplaceDropsOldGoalsAndLogs(t *testing.T) {
	database := newTestDB(t)
	seedUser(t, database, 1)
	goals := NewGoalRepository(database)
	logs := NewLogRepository(database)
	ctx := context.Background()

	old := makeGoal(1, 0, "Gym", 2)
	require.NoError(t, goals.Replace(ctx, 1, []*model.Goal{old}))
	require.NoError(t, logs.Append(ctx, &model.LogEntry{
		ID:        uuid.New().String(),
		GoalID:    old.ID,
		Timestamp: time.Now(),
	}))

	require.NoError(t, goals.Replace(ctx, 1, []*model.Goal{makeGoal(1, 0, "Read", 1)}))

	got, err := goals.ByUser(ctx, 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Read", got[0].Name)
	assert.Equal(t, 0, got[0].FrequencyDone)

	var count int
	err = database.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "old logs should go with the old goal set")
}

func TestByUserCountsOnlyCurrentPeriod(t *testing.T) {
	database := newTestDB(t)
	seedUser(t, database, 1)
	goals := NewGoalRepository(database)
	logs := NewLogRepository(database)
	ctx := context.Background()

	goal := makeGoal(1, 0, "Gym", 2)
	require.NoError(t, goals.Replace(ctx, 1, []*model.Goal{goal}))

	periodStart := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		periodStart.Add(-2 * time.Hour), // previous period, must not count
		periodStart.Add(time.Hour),
		periodStart.Add(5 * time.Hour),
	}
	for _, ts := range stamps {
		require.NoError(t, logs.Append(ctx, &model.LogEntry{
			ID:        uuid.New().String(),
			GoalID:    goal.ID,
			Timestamp: ts,
		}))
	}

	got, err := goals.ByUser(ctx, 1, periodStart)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].FrequencyDone)

	// The stored counter still reflects every append.
	stored, err := goals.ByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FrequencyDone)
}

func TestByUserUnknownUserIsEmpty(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)

	got, err := repo.ByUser(context.Background(), 999, time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestByIDUnknownGoal(t *testing.T) {
	database := newTestDB(t)
	repo := NewGoalRepository(database)

	_, err := repo.ByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestAppendUnknownGoalRollsBack(t *testing.T) {
	database := newTestDB(t)
	logs := NewLogRepository(database)

	err := logs.Append(context.Background(), &model.LogEntry{
		ID:        uuid.New().String(),
		GoalID:    uuid.New().String(),
		Timestamp: time.Now(),
	})
	assert.Error(t, err)

	var count int
	err = database.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUserUpsertIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	ctx := context.Background()

	require.NoError(t, users.Upsert(ctx, 42, "mittens"))
	require.NoError(t, users.Upsert(ctx, 42, "mittens_renamed"))

	var count int
	err := database.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	user, err := users.ByID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "mittens_renamed", user.Username)
}
