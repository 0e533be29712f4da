// internal/store/memory.go
//
// In-memory implementation of the game, user and score repositories.
// This is a lightweight persistence layer used for development/testing,
// or when durability is not required.
//
// Characteristics:
//   - Each entity type lives in its own generic table keyed by ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Reads and writes copy values; stored state never aliases caller state.
//   - Multi-table writes go through Backend.Atomic (snapshot + restore).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/robalobadob/hangman/internal/apperr"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/user"
)

// NewMemory builds a Backend whose repositories share nothing but the process.
// Atomic runs one unit of work at a time and restores every table if it fails.
// A write made outside Atomic while a unit is failing is rolled back with it.
func NewMemory() *Backend {
	users := newTable(cloneUser)
	games := newTable((*game.Game).Clone)
	scores := newTable(cloneScore)

	b := &Backend{
		Users:  &memUsers{t: users},
		Games:  &memGames{t: games},
		Scores: &memScores{t: scores},
		close:  func() error { return nil },
	}
	var mu sync.Mutex
	b.atomic = func(ctx context.Context, fn func(context.Context, *Backend) error) error {
		mu.Lock()
		defer mu.Unlock()
		restore := []func(){users.snapshot(), games.snapshot(), scores.snapshot()}
		if err := fn(ctx, b); err != nil {
			for _, r := range restore {
				r()
			}
			return err
		}
		return nil
	}
	return b
}

func cloneUser(u *user.User) *user.User        { c := *u; return &c }
func cloneScore(s *ledger.Score) *ledger.Score { c := *s; return &c }

// ------------------------------- games -------------------------------------

type memGames struct{ t *table[*game.Game] }

func (m *memGames) Save(_ context.Context, g *game.Game) error {
	m.t.put(g.ID, g)
	return nil
}

func (m *memGames) Get(_ context.Context, id string) (*game.Game, error) {
	if g, ok := m.t.get(id); ok {
		return g, nil
	}
	return nil, apperr.NotFound("game not found")
}

func (m *memGames) Delete(_ context.Context, id string) error {
	if !m.t.del(id) {
		return apperr.NotFound("game not found")
	}
	return nil
}

func (m *memGames) ListOpen(_ context.Context, userID string) ([]*game.Game, error) {
	return m.t.find(func(g *game.Game) bool {
		return !g.GameOver && (userID == "" || g.UserID == userID)
	}), nil
}

// ------------------------------- users -------------------------------------

type memUsers struct{ t *table[*user.User] }

func (m *memUsers) Insert(_ context.Context, u *user.User) error {
	m.t.mu.Lock()
	defer m.t.mu.Unlock()
	for _, existing := range m.t.rows {
		if strings.EqualFold(existing.Name, u.Name) {
			return apperr.Conflict("a user with that name already exists")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.t.rows[u.ID] = cloneUser(u)
	m.t.order = append(m.t.order, u.ID)
	return nil
}

func (m *memUsers) ByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := m.t.get(id); ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func (m *memUsers) ByName(_ context.Context, name string) (*user.User, error) {
	found := m.t.find(func(u *user.User) bool { return strings.EqualFold(u.Name, name) })
	if len(found) == 0 {
		return nil, apperr.NotFound("a user with that name does not exist")
	}
	return found[0], nil
}

func (m *memUsers) List(_ context.Context) ([]*user.User, error) {
	return m.t.find(nil), nil
}

func (m *memUsers) AddOutcome(_ context.Context, id string, won bool) error {
	ok := m.t.update(id, func(u *user.User) *user.User {
		c := cloneUser(u)
		c.GamesPlayed++
		if won {
			c.Victories++
		}
		return c
	})
	if !ok {
		return apperr.NotFound("user not found")
	}
	return nil
}

// ------------------------------- scores ------------------------------------

type memScores struct{ t *table[*ledger.Score] }

func (m *memScores) Append(_ context.Context, s *ledger.Score) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, exists := m.t.get(s.ID); exists {
		return apperr.Conflict("score already recorded")
	}
	m.t.put(s.ID, s)
	return nil
}

func (m *memScores) Query(_ context.Context, f ledger.Filter) ([]*ledger.Score, error) {
	out := m.t.find(func(s *ledger.Score) bool {
		if f.UserID != "" && s.UserID != f.UserID {
			return false
		}
		return f.Won == nil || s.Won == *f.Won
	})
	switch f.Order {
	case ledger.OrderGuessesAsc:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Guesses != out[j].Guesses {
				return out[i].Guesses < out[j].Guesses
			}
			return out[i].Date.Before(out[j].Date)
		})
	case ledger.OrderGuessesDesc:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Guesses != out[j].Guesses {
				return out[i].Guesses > out[j].Guesses
			}
			return out[i].Date.Before(out[j].Date)
		})
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
