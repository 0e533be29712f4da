// internal/ranking/ranking.go
//
// Ranking calculator: a read-only ordering over users, recomputed on every
// request.
// Responsibilities:
//   - Score users with one of two schemes (wins minus losses, victory %)
//   - Sort descending by score, ties broken by name ascending

package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/robalobadob/hangman/internal/user"
)

// Scheme selects how a user's score is computed.
type Scheme string

const (
	// VictoryPercentage reads the running counters on the user record and
	// skips users who have not finished a game.
	VictoryPercentage Scheme = "percentage"
	// WinsMinusLosses scans each user's full score history.
	WinsMinusLosses Scheme = "wins_minus_losses"
)

// ParseScheme accepts the config spelling of a scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", VictoryPercentage:
		return VictoryPercentage, nil
	case WinsMinusLosses:
		return WinsMinusLosses, nil
	}
	return "", fmt.Errorf("ranking: unknown scheme %q", s)
}

// Entry is one row of the ranking.
type Entry struct {
	UserName    string
	Score       float64
	GamesPlayed int
	Victories   int
}

// Users lists every registered user.
type Users interface {
	All(ctx context.Context) ([]*user.User, error)
}

// Tallier counts a user's recorded wins and losses.
type Tallier interface {
	Tally(ctx context.Context, userID string) (wins, losses int, err error)
}

// Calculator ranks users.
type Calculator struct {
	scheme Scheme
	users  Users
	scores Tallier
}

func NewCalculator(scheme Scheme, users Users, scores Tallier) *Calculator {
	if scheme == "" {
		scheme = VictoryPercentage
	}
	return &Calculator{scheme: scheme, users: users, scores: scores}
}

// Scheme reports the active scoring scheme.
func (c *Calculator) Scheme() Scheme { return c.scheme }

// Rank returns every eligible user ordered best first.
func (c *Calculator) Rank(ctx context.Context) ([]Entry, error) {
	users, err := c.users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]Entry, 0, len(users))
	for _, u := range users {
		e := Entry{UserName: u.Name, GamesPlayed: u.GamesPlayed, Victories: u.Victories}
		switch c.scheme {
		case WinsMinusLosses:
			wins, losses, err := c.scores.Tally(ctx, u.ID)
			if err != nil {
				return nil, fmt.Errorf("tally %s: %w", u.Name, err)
			}
			e.Score = float64(wins - losses)
		default:
			if u.GamesPlayed == 0 {
				continue
			}
			e.Score = u.VictoryPercentage()
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserName < out[j].UserName
	})
	return out, nil
}
