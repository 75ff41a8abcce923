package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ybhrdwj/mittens-bot/internal/model"
	"github.com/ybhrdwj/mittens-bot/internal/period"
	"github.com/ybhrdwj/mittens-bot/internal/repository"
)

var (
	ErrValidation   = errors.New("invalid goal declarations")
	ErrPeriodClosed = errors.New("period closed for logging")
)

// GoalService owns durable goal and progress state and its consistency
// rules. Both the chat side and the HTTP query side go through it.
type GoalService struct {
	users repository.UserRepository
	goals repository.GoalRepository
	logs  repository.LogRepository

	now func() time.Time
}

func NewGoalService(
	users repository.UserRepository,
	goals repository.GoalRepository,
	logs repository.LogRepository,
) *GoalService {
	return &GoalService{
		users: users,
		goals: goals,
		logs:  logs,
		now:   time.Now,
	}
}

// EnsureUser creates the user row on first contact. Idempotent; later
// calls only refresh the username.
func (s *GoalService) EnsureUser(ctx context.Context, telegramID int64, username string) error {
	err := s.users.Upsert(ctx, telegramID, username)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// ReplaceGoals atomically swaps the user's goal set for the declared one.
// Partial application is never observable: either the whole new set is
// committed with zeroed counters, or the prior set survives intact.
func (s *GoalService) ReplaceGoals(ctx context.Context, userID int64, decls []model.Declaration) error {
	if len(decls) == 0 {
		return fmt.Errorf("%w: at least one goal is required", ErrValidation)
	}
	if len(decls) > model.MaxGoalsPerUser {
		return fmt.Errorf("%w: at most %d goals are allowed", ErrValidation, model.MaxGoalsPerUser)
	}

	now := s.now()
	goals := make([]*model.Goal, 0, len(decls))
	for i, decl := range decls {
		name := strings.TrimSpace(decl.Name)
		if decl.Frequency <= 0 {
			return fmt.Errorf("%w: frequency must be positive", ErrValidation)
		}
		if name == "" {
			return fmt.Errorf("%w: goal name must not be empty", ErrValidation)
		}
		goals = append(goals, &model.Goal{
			ID:             uuid.New().String(),
			UserID:         userID,
			Position:       i,
			Name:           name,
			FrequencyAimed: decl.Frequency,
			FrequencyDone:  0,
			CreatedAt:      now,
		})
	}

	err := s.goals.Replace(ctx, userID, goals)
	if err != nil {
		return fmt.Errorf("failed to replace goals: %w", err)
	}
	return nil
}

// LogProgress records one completion event dated at against the goal and
// returns the goal's progress within the event's period. The event is
// rejected with ErrPeriodClosed once the grace window after its period's
// start has elapsed, and with repository.ErrGoalNotFound for unknown ids.
func (s *GoalService) LogProgress(ctx context.Context, goalID string, at time.Time) (*model.GoalProgress, error) {
	goal, err := s.goals.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if !period.WithinGrace(s.now(), at) {
		return nil, ErrPeriodClosed
	}

	entry := &model.LogEntry{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		Timestamp: at,
	}
	err = s.logs.Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to append log entry: %w", err)
	}

	done, err := s.logs.CountSince(ctx, goal.ID, period.Start(at))
	if err != nil {
		return nil, fmt.Errorf("failed to count period progress: %w", err)
	}

	return &model.GoalProgress{
		ID:             goal.ID,
		Name:           goal.Name,
		FrequencyAimed: goal.FrequencyAimed,
		FrequencyDone:  done,
	}, nil
}

// Goals returns the user's current goals in declaration order with
// progress counted inside the current period window. Unknown users get an
// empty set.
func (s *GoalService) Goals(ctx context.Context, userID int64) ([]*model.GoalProgress, error) {
	goals, err := s.goals.ByUser(ctx, userID, period.Start(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	if goals == nil {
		goals = []*model.GoalProgress{}
	}
	return goals, nil
}
