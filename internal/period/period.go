// Package period computes the boundaries of the logical tracking day.
// A period runs from the cutoff hour on one calendar day to the cutoff
// hour on the next, so late-night activity still counts toward the
// previous day.
package period

import (
	"time"
)

// CutoffHour is the local hour at which one period ends and the next begins.
const CutoffHour = 4

// GraceWindow is how long after a period's start events may still be
// attributed to it.
const GraceWindow = 24 * time.Hour

// Start returns the beginning of the period containing t: the cutoff hour
// on t's calendar day, or on the previous day when t is before the cutoff.
func Start(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), CutoffHour, 0, 0, 0, t.Location())
	if t.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// WithinGrace reports whether an event dated eventTime may still be logged
// at now. Logging closes once now is more than one full day past the start
// of the event's period, which stops a user from backfilling a day after
// the next cutoff has already passed.
func WithinGrace(now, eventTime time.Time) bool {
	return now.Sub(Start(eventTime)) <= GraceWindow
}
