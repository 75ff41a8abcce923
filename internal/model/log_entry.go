package model

import (
	"time"
)

// LogEntry is an immutable completion event recorded against a goal.
// Entries are never mutated or deleted on their own; they only disappear
// when the owning goal set is replaced.
type LogEntry struct {
	ID        string    `db:"id"`
	GoalID    string    `db:"goal_id"`
	Timestamp time.Time `db:"timestamp"`
}
