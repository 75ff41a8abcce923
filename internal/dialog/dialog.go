// Package dialog holds the per-user conversational sessions that collect
// goal declarations across multiple chat turns before committing them as
// one set.
package dialog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ybhrdwj/mittens-bot/internal/model"
)

var (
	ErrNoSession = errors.New("no active declaration session")
)

// Ledger is the slice of the goal service the dialog needs to commit a
// finished declaration set.
type Ledger interface {
	ReplaceGoals(ctx context.Context, userID int64, decls []model.Declaration) error
}

type Outcome int

const (
	// OutcomeAdded: the line parsed as a declaration and was appended.
	OutcomeAdded Outcome = iota
	// OutcomeBadFormat: the line did not parse; pending list unchanged.
	OutcomeBadFormat
	// OutcomeLimitReached: a valid line arrived with 4 already pending.
	OutcomeLimitReached
	// OutcomeNothingToCommit: "done" with an empty pending list.
	OutcomeNothingToCommit
	// OutcomeCommitted: "done" committed the set and ended the session.
	OutcomeCommitted
)

// Result describes what a submitted line did to the session. The chat
// gateway turns it into a reply; the dialog itself never renders text.
type Result struct {
	Outcome     Outcome
	Declaration model.Declaration // set for OutcomeAdded
	Pending     int               // declarations collected so far
}

type session struct {
	pending []model.Declaration
}

// Manager keeps one in-memory session per user. Sessions do not survive a
// restart; an uncommitted declaration list is lost, which is acceptable
// for a conversation expected to finish within one live session.
type Manager struct {
	mu       sync.Mutex
	ledger   Ledger
	sessions map[int64]*session
}

func NewManager(ledger Ledger) *Manager {
	return &Manager{
		ledger:   ledger,
		sessions: make(map[int64]*session),
	}
}

// Start opens a declaration session for the user, discarding any pending
// declarations from an earlier unfinished one.
func (m *Manager) Start(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &session{}
}

// Cancel drops the user's session, if any.
func (m *Manager) Cancel(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Active reports whether the user is mid-declaration. The chat gateway
// routes plain text here only when this is true.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// Submit feeds one chat line into the user's session. "done" commits the
// collected set through the ledger; anything else is parsed as a
// declaration. A ledger failure keeps the session and its pending list
// intact so the user can retry.
func (m *Manager) Submit(ctx context.Context, userID int64, line string) (Result, error) {
	line = strings.TrimSpace(line)

	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		m.mu.Unlock()
		return Result{}, ErrNoSession
	}

	if !strings.EqualFold(line, "done") {
		defer m.mu.Unlock()

		decl, ok := parseDeclaration(line)
		if !ok {
			return Result{Outcome: OutcomeBadFormat, Pending: len(s.pending)}, nil
		}
		if len(s.pending) >= model.MaxGoalsPerUser {
			return Result{Outcome: OutcomeLimitReached, Pending: len(s.pending)}, nil
		}
		s.pending = append(s.pending, decl)
		return Result{Outcome: OutcomeAdded, Declaration: decl, Pending: len(s.pending)}, nil
	}

	if len(s.pending) == 0 {
		m.mu.Unlock()
		return Result{Outcome: OutcomeNothingToCommit}, nil
	}

	// Commit outside the lock; chat turns for one user arrive serially, so
	// the pending list cannot change underneath us.
	decls := make([]model.Declaration, len(s.pending))
	copy(decls, s.pending)
	m.mu.Unlock()

	err := m.ledger.ReplaceGoals(ctx, userID, decls)
	if err != nil {
		return Result{Pending: len(decls)}, err
	}

	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()

	return Result{Outcome: OutcomeCommitted, Pending: len(decls)}, nil
}

// parseDeclaration reads a line of the form "<frequency><name>": the first
// character must be a digit 1-9 and the rest of the line, space-trimmed,
// is the name. "2x Gym" therefore parses as frequency 2, name "x Gym".
func parseDeclaration(line string) (model.Declaration, bool) {
	if line == "" {
		return model.Declaration{}, false
	}
	lead := line[0]
	if lead < '1' || lead > '9' {
		return model.Declaration{}, false
	}
	name := strings.TrimSpace(line[1:])
	if name == "" {
		return model.Declaration{}, false
	}
	return model.Declaration{Frequency: int(lead - '0'), Name: name}, true
}
