package model

import (
	"time"
)

// MaxGoalsPerUser caps the size of a user's goal set. The whole set is
// replaced as a unit whenever the user finishes a declaration dialog.
const MaxGoalsPerUser = 4

type Goal struct {
	ID             string    `db:"id"`
	UserID         int64     `db:"user_id"`
	Position       int       `db:"position"`
	Name           string    `db:"name"`
	FrequencyAimed int       `db:"frequency_aimed"`
	FrequencyDone  int       `db:"frequency_done"`
	CreatedAt      time.Time `db:"created_at"`
}

// GoalProgress is the read-side view of a goal. FrequencyDone counts the
// log entries inside the current period window rather than the lifetime
// total stored on the goal row.
type GoalProgress struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	FrequencyAimed int    `db:"frequency_aimed" json:"frequency_aimed"`
	FrequencyDone  int    `db:"frequency_done" json:"frequency_done"`
}

// Declaration is a single (frequency, name) pair collected during goal
// setup, prior to being committed as part of a full goal set.
type Declaration struct {
	Frequency int
	Name      string
}
