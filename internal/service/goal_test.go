package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ybhrdwj/mittens-bot/internal/db"
	"github.com/ybhrdwj/mittens-bot/internal/model"
	"github.com/ybhrdwj/mittens-bot/internal/repository"
)

func newTestService(t *testing.T) (*GoalService, *sqlx.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)

	// One writer at a time keeps SQLite happy under concurrent tests.
	database.SetMaxOpenConns(1)

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	svc := NewGoalService(
		repository.NewUserRepository(database),
		repository.NewGoalRepository(database),
		repository.NewLogRepository(database),
	)
	return svc, database
}

func declarations(pairs ...model.Declaration) []model.Declaration {
	return pairs
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, 42, "mittens"))
	require.NoError(t, svc.EnsureUser(ctx, 42, "mittens"))

	var count int
	err := database.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReplaceGoalsRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, 1, "tester"))

	decls := declarations(
		model.Declaration{Frequency: 2, Name: "Gym"},
		model.Declaration{Frequency: 1, Name: "Read"},
		model.Declaration{Frequency: 3, Name: "Run"},
		model.Declaration{Frequency: 1, Name: "Meditate"},
	)
	require.NoError(t, svc.ReplaceGoals(ctx, 1, decls))

	goals, err := svc.Goals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, goals, 4)
	for i, goal := range goals {
		assert.Equal(t, decls[i].Name, goal.Name)
		assert.Equal(t, decls[i].Frequency, goal.FrequencyAimed)
		assert.Equal(t, 0, goal.FrequencyDone)
	}
}

func TestReplaceGoalsValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, 1, "tester"))

	prior := declarations(model.Declaration{Frequency: 2, Name: "Gym"})
	require.NoError(t, svc.ReplaceGoals(ctx, 1, prior))

	tests := []struct {
		name  string
		decls []model.Declaration
	}{
		{"empty set", nil},
		{"five goals", declarations(
			model.Declaration{Frequency: 1, Name: "a"},
			model.Declaration{Frequency: 1, Name: "b"},
			model.Declaration{Frequency: 1, Name: "c"},
			model.Declaration{Frequency: 1, Name: "d"},
			model.Declaration{Frequency: 1, Name: "e"},
		)},
		{"zero frequency", declarations(model.Declaration{Frequency: 0, Name: "Gym"})},
		{"blank name", declarations(model.Declaration{Frequency: 1, Name: "   "})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ReplaceGoals(ctx, 1, tt.decls)
			assert.ErrorIs(t, err, ErrValidation)

			// Prior goal set must be untouched.
			goals, err := svc.Goals(ctx, 1)
			require.NoError(t, err)
			require.Len(t, goals, 1)
			assert.Equal(t, "Gym", goals[0].Name)
		})
	}
}

func TestLogProgressAccumulates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, 1, "tester"))
	require.NoError(t, svc.ReplaceGoals(ctx, 1, declarations(model.Declaration{Frequency: 2, Name: "Gym"})))

	goals, err := svc.Goals(ctx, 1)
	require.NoError(t, err)
	goalID := goals[0].ID

	// No hard cap: logging past the aimed frequency keeps counting.
	const n = 5
	for i := 1; i <= n; i++ {
		progress, err := svc.LogProgress(ctx, goalID, svc.now())
		require.NoError(t, err)
		assert.Equal(t, i, progress.FrequencyDone)
		assert.Equal(t, 2, progress.FrequencyAimed)
		assert.Equal(t, "Gym", progress.Name)
	}

	goals, err = svc.Goals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, n, goals[0].FrequencyDone)
}

func TestLogProgressUnknownGoal(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.LogProgress(context.Background(), "no-such-goal", time.Now())
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestLogProgressGraceWindow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, 1, "tester"))
	require.NoError(t, svc.ReplaceGoals(ctx, 1, declarations(model.Declaration{Frequency: 2, Name: "Gym"})))

	goals, err := svc.Goals(ctx, 1)
	require.NoError(t, err)
	goalID := goals[0].ID

	event := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	periodStart := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	// 23h after the period start the event is still loggable.
	svc.now = func() time.Time { return periodStart.Add(23 * time.Hour) }
	_, err = svc.LogProgress(ctx, goalID, event)
	require.NoError(t, err)

	// 25h after the period start it is not.
	svc.now = func() time.Time { return periodStart.Add(25 * time.Hour) }
	_, err = svc.LogProgress(ctx, goalID, event)
	assert.ErrorIs(t, err, ErrPeriodClosed)

	// The rejection left no trace: the next accepted log is number two,
	// not three.
	svc.now = func() time.Time { return periodStart.Add(23 * time.Hour) }
	progress, err := svc.LogProgress(ctx, goalID, event)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.FrequencyDone)
}

func TestLogProgressConcurrent(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureUser(ctx, 1, "tester"))
	require.NoError(t, svc.ReplaceGoals(ctx, 1, declarations(model.Declaration{Frequency: 2, Name: "Gym"})))

	goals, err := svc.Goals(ctx, 1)
	require.NoError(t, err)
	goalID := goals[0].ID

	const m = 10
	var wg sync.WaitGroup
	errs := make(chan error, m)
	for i := 0; i < m; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LogProgress(ctx, goalID, time.Now())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	goals, err = svc.Goals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, m, goals[0].FrequencyDone, "no increment may be lost")

	var logCount int
	err = database.QueryRow(`SELECT COUNT(*) FROM logs WHERE goal_id = $1`, goalID).Scan(&logCount)
	require.NoError(t, err)
	assert.Equal(t, m, logCount)
}

func TestGoalsUnknownUserIsEmptyNotNil(t *testing.T) {
	svc, _ := newTestService(t)

	goals, err := svc.Goals(context.Background(), 999)
	require.NoError(t, err)
	assert.NotNil(t, goals)
	assert.Empty(t, goals)
}
