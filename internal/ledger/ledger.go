// Package ledger is the append-only record of completed games.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/robalobadob/hangman/internal/apperr"
	"github.com/robalobadob/hangman/internal/game"
)

// Score is the immutable outcome of one completed game.
type Score struct {
	ID      string
	UserID  string
	Date    time.Time // day of completion, UTC midnight
	Won     bool
	Guesses int
}

// Order selects how Query sorts its results.
type Order int

const (
	OrderNone Order = iota // insertion order
	OrderGuessesAsc
	OrderGuessesDesc
)

// Filter narrows a Query. Zero values mean "no constraint".
type Filter struct {
	UserID string
	Won    *bool
	Order  Order
	Limit  int // applied by the repository
	Window int // applied to the limited result, mirrors fetch(n)[0:window]
}

// Repository stores scores. Implementations must never update or delete.
type Repository interface {
	Append(ctx context.Context, s *Score) error
	Query(ctx context.Context, f Filter) ([]*Score, error)
}

// Ledger records and queries scores.
type Ledger struct {
	repo Repository
}

func New(repo Repository) *Ledger { return &Ledger{repo: repo} }

// Record stores one score entry.
func (l *Ledger) Record(ctx context.Context, userID string, date time.Time, won bool, guesses int) (*Score, error) {
	s := &Score{UserID: userID, Date: date, Won: won, Guesses: guesses}
	if err := l.append(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordCompletion adapts game completion events to Record. The score takes
// the game's ID, so a game is scored at most once.
func (l *Ledger) RecordCompletion(ctx context.Context, c game.Completion) error {
	return l.append(ctx, &Score{
		ID:      c.GameID,
		UserID:  c.UserID,
		Date:    c.Date,
		Won:     c.Won,
		Guesses: c.Guesses,
	})
}

func (l *Ledger) append(ctx context.Context, s *Score) error {
	if s.UserID == "" {
		return apperr.InvalidInput("score requires a user")
	}
	if s.Guesses < 0 {
		return apperr.InvalidInput("guesses cannot be negative")
	}
	s.Date = truncateDay(s.Date)
	if err := l.repo.Append(ctx, s); err != nil {
		return fmt.Errorf("append score: %w", err)
	}
	return nil
}

// Query returns scores matching f.
func (l *Ledger) Query(ctx context.Context, f Filter) ([]*Score, error) {
	out, err := l.repo.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	if f.Window > 0 && len(out) > f.Window {
		out = out[:f.Window]
	}
	return out, nil
}

// HighScores returns won games, fewest guesses first.
func (l *Ledger) HighScores(ctx context.Context, results, window int) ([]*Score, error) {
	won := true
	return l.Query(ctx, Filter{Won: &won, Order: OrderGuessesAsc, Limit: results, Window: window})
}

// Tally counts wins and losses for one user by scanning their history.
func (l *Ledger) Tally(ctx context.Context, userID string) (wins, losses int, err error) {
	scores, err := l.Query(ctx, Filter{UserID: userID})
	if err != nil {
		return 0, 0, err
	}
	for _, s := range scores {
		if s.Won {
			wins++
		} else {
			losses++
		}
	}
	return wins, losses, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
