// internal/game/engine.go
//
// Core game engine for hangman.
// Responsibilities:
//   - Create new games with a random secret word from the injected word list.
//   - Validate and apply guesses (game over → letters only → repeated letter).
//   - Track state transitions: open → won/lost, open → cancelled (deleted).
//   - Close out finished games: persist, record the score and bump user
//     counters as one unit of work.
//
// Whole-word guesses: a guess longer than one letter must match the secret
// word's length; an exact match wins, anything else is rejected without
// consuming an attempt. After each accepted guess the win condition is checked
// before the loss condition.

package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/internal/apperr"
)

// Outcome describes the effect of one accepted guess.
type Outcome struct {
	Hit      bool
	Finished bool
	Won      bool
	Message  string
}

const (
	msgHit  = "Your letter is in the word. Keep going."
	msgMiss = "Your letter is NOT in the word."
	msgWin  = "You guessed the word! You win!"
)

// Apply validates guess and mutates the game. On error the game is unchanged.
func (g *Game) Apply(guess string, now time.Time) (Outcome, error) {
	if g.GameOver {
		return Outcome{}, apperr.IllegalState("game already over")
	}
	guess = strings.ToLower(strings.TrimSpace(guess))
	if guess == "" || !isAlpha(guess) {
		return Outcome{}, apperr.InvalidInput("you can only type alphabetic characters")
	}
	if len(guess) == 1 && strings.Contains(g.LetterAttempts, guess) {
		return Outcome{}, apperr.IllegalState("letter already guessed")
	}

	if len(guess) > 1 {
		if len(guess) != len(g.Word) {
			return Outcome{}, apperr.InvalidInput("guess must be a single letter or the whole word")
		}
		if guess != g.Word {
			return Outcome{}, apperr.InvalidInput("that was not the word")
		}
		g.History = append(g.History, Move{Guess: guess, Kind: MoveHit, AttemptsRemaining: g.AttemptsRemaining})
		g.finish(true, now)
		return Outcome{Hit: true, Finished: true, Won: true, Message: msgWin}, nil
	}

	g.LetterAttempts += guess
	out := Outcome{}
	if strings.Contains(g.Word, guess) {
		g.Correct += guess
		out.Hit, out.Message = true, msgHit
		g.History = append(g.History, Move{Guess: guess, Kind: MoveHit, AttemptsRemaining: g.AttemptsRemaining})
	} else {
		g.Wrong += guess
		g.AttemptsRemaining--
		out.Message = msgMiss
		g.History = append(g.History, Move{Guess: guess, Kind: MoveMiss, AttemptsRemaining: g.AttemptsRemaining})
	}
	g.UpdatedAt = now

	switch {
	case g.allFound():
		g.finish(true, now)
		out.Finished, out.Won, out.Message = true, true, msgWin
	case g.AttemptsRemaining <= 0:
		g.finish(false, now)
		out.Finished, out.Message = true, out.Message+" Game over!"
	}
	return out, nil
}

// finish moves the game into a terminal state and appends the closing entry.
func (g *Game) finish(won bool, now time.Time) {
	if g.AttemptsRemaining < 0 {
		g.AttemptsRemaining = 0
	}
	g.GameOver, g.Won = true, won
	kind := MoveLost
	if won {
		kind = MoveWon
	}
	g.History = append(g.History, Move{Kind: kind, AttemptsRemaining: g.AttemptsRemaining})
	g.UpdatedAt = now
}

// allFound reports whether every distinct letter of the word has been guessed.
func (g *Game) allFound() bool {
	for _, r := range g.Word {
		if !strings.ContainsRune(g.Correct, r) {
			return false
		}
	}
	return true
}

// ------------------------------- Engine ------------------------------------

// Repository persists games. Implementations live in internal/store.
type Repository interface {
	Save(ctx context.Context, g *Game) error
	Get(ctx context.Context, id string) (*Game, error)
	Delete(ctx context.Context, id string) error
	// ListOpen returns unfinished games; an empty userID means all users.
	ListOpen(ctx context.Context, userID string) ([]*Game, error)
}

// WordPicker supplies secret words (words.List satisfies it).
type WordPicker interface {
	Random() string
}

// Finisher persists a finished game together with its score and the
// owner's win/loss counters. All three writes land or none do, so a failed
// Finish leaves the stored game open and the guess can be retried.
type Finisher interface {
	Finish(ctx context.Context, g *Game, c Completion) error
}

// Engine owns the game state machine plus its persistence side effects.
type Engine struct {
	words    WordPicker
	games    Repository
	finisher Finisher
	attempts int
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithAttempts sets the default attempts allowed for new games.
func WithAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the engine to its collaborators.
func NewEngine(words WordPicker, games Repository, finisher Finisher, opts ...Option) *Engine {
	e := &Engine{
		words:    words,
		games:    games,
		finisher: finisher,
		attempts: DefaultAttempts,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Create starts a new game for userID. attempts <= 0 uses the engine default.
func (e *Engine) Create(ctx context.Context, userID string, attempts int) (*Game, error) {
	if userID == "" {
		return nil, apperr.InvalidInput("user is required")
	}
	if attempts < 0 {
		return nil, apperr.InvalidInput("attempts must be at least 1")
	}
	if attempts == 0 {
		attempts = e.attempts
	}
	now := e.now()
	g := &Game{
		ID:                uuid.NewString(),
		UserID:            userID,
		Word:              strings.ToLower(e.words.Random()),
		AttemptsAllowed:   attempts,
		AttemptsRemaining: attempts,
		History:           []Move{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := e.games.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}
	log.Debug().Str("gameId", g.ID).Str("userId", userID).Int("attempts", attempts).Msg("game created")
	return g, nil
}

// Guess applies guess to g and persists the result.
// A guess that finishes the game also records the score and user counters.
func (e *Engine) Guess(ctx context.Context, g *Game, guess string) (Outcome, error) {
	out, err := g.Apply(guess, e.now())
	if err != nil {
		return Outcome{}, err
	}
	if out.Finished {
		if _, err := e.complete(ctx, g); err != nil {
			return Outcome{}, err
		}
		return out, nil
	}
	if err := e.games.Save(ctx, g); err != nil {
		return Outcome{}, fmt.Errorf("save game: %w", err)
	}
	return out, nil
}

// End force-finishes an open game with the given result.
func (e *Engine) End(ctx context.Context, g *Game, won bool) (Completion, error) {
	if g.GameOver {
		return Completion{}, apperr.IllegalState("game already over")
	}
	g.finish(won, e.now())
	return e.complete(ctx, g)
}

// Cancel deletes an open game. No score is recorded and counters are untouched.
func (e *Engine) Cancel(ctx context.Context, g *Game) error {
	if g.GameOver {
		return apperr.IllegalState("cannot delete a completed game")
	}
	if err := e.games.Delete(ctx, g.ID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	log.Debug().Str("gameId", g.ID).Msg("game cancelled")
	return nil
}

// complete hands a finished game and its completion record to the finisher.
func (e *Engine) complete(ctx context.Context, g *Game) (Completion, error) {
	c := Completion{
		GameID:  g.ID,
		UserID:  g.UserID,
		Date:    g.UpdatedAt,
		Won:     g.Won,
		Guesses: g.GuessesUsed(),
	}
	if err := e.finisher.Finish(ctx, g, c); err != nil {
		return Completion{}, fmt.Errorf("finish game: %w", err)
	}
	log.Info().Str("gameId", g.ID).Str("state", string(g.State())).Int("guesses", c.Guesses).Msg("game finished")
	return c, nil
}

// isAlpha checks that a string consists only of lowercase a–z.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
