// internal/store/finisher.go
//
// Game completion as a single unit of work.
// Responsibilities:
//   - Save the finished game, append its score and bump the owner's
//     counters inside one Backend.Atomic call
//   - Leave all three untouched when any write fails

package store

import (
	"context"
	"fmt"

	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/user"
)

// Finisher implements game.Finisher over a Backend.
type Finisher struct {
	b     *Backend
	users *user.Registry
}

// NewFinisher binds completion writes to b. users supplies the counter rules;
// its repository is swapped for the one inside each unit of work.
func NewFinisher(b *Backend, users *user.Registry) *Finisher {
	return &Finisher{b: b, users: users}
}

func (f *Finisher) Finish(ctx context.Context, g *game.Game, c game.Completion) error {
	return f.b.Atomic(ctx, func(ctx context.Context, tx *Backend) error {
		if err := tx.Games.Save(ctx, g); err != nil {
			return fmt.Errorf("save game: %w", err)
		}
		if err := ledger.New(tx.Scores).RecordCompletion(ctx, c); err != nil {
			return fmt.Errorf("record score: %w", err)
		}
		users := f.users.WithRepository(tx.Users)
		record := users.RecordLoss
		if c.Won {
			record = users.RecordVictory
		}
		if err := record(ctx, c.UserID); err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
		return nil
	})
}
