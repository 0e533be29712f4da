// internal/stats/recompute.go
//
// Background recomputation of the average attempts remaining across all
// open games. Failures are logged and swallowed; callers never wait.

package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/hangman/internal/game"
)

const defaultTimeout = 5 * time.Second

// OpenGames lists unfinished games; an empty userID means every user.
type OpenGames interface {
	ListOpen(ctx context.Context, userID string) ([]*game.Game, error)
}

// Recomputer refreshes the cached statistic.
type Recomputer struct {
	games   OpenGames
	cache   Cache
	timeout time.Duration

	sf singleflight.Group
	wg sync.WaitGroup
}

func NewRecomputer(games OpenGames, cache Cache) *Recomputer {
	return &Recomputer{games: games, cache: cache, timeout: defaultTimeout}
}

// Message formats an average the way it is cached.
func Message(avg float64) string {
	return fmt.Sprintf("Average moves remaining is %.2f", avg)
}

// Recompute averages attempts remaining over open games and caches the
// message. With no open games the cache is left as it was.
func (r *Recomputer) Recompute(ctx context.Context) error {
	open, err := r.games.ListOpen(ctx, "")
	if err != nil {
		return fmt.Errorf("list open games: %w", err)
	}
	if len(open) == 0 {
		return nil
	}
	total := 0
	for _, g := range open {
		total += g.AttemptsRemaining
	}
	return r.cache.Set(ctx, Message(float64(total)/float64(len(open))))
}

// Trigger starts a recompute in the background and returns immediately.
// Overlapping triggers share one run.
func (r *Recomputer) Trigger() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				log.Warn().Interface("panic", p).Msg("average attempts recompute panicked")
			}
		}()
		_, err, _ := r.sf.Do("average", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			return nil, r.Recompute(ctx)
		})
		if err != nil {
			log.Warn().Err(err).Msg("average attempts recompute failed")
		}
	}()
}

// Wait blocks until every triggered recompute has returned.
func (r *Recomputer) Wait() { r.wg.Wait() }

// Current reads the cached message, "" when never computed.
func (r *Recomputer) Current(ctx context.Context) (string, error) {
	return r.cache.Get(ctx)
}
