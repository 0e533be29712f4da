// internal/game/types.go
//
// Core type definitions for the hangman game engine.
// Defines:
//   - Game: state for a single open or finished game.
//   - Move: one human-readable history entry.
//   - State: coarse lifecycle view (open/won/lost).
//   - Completion: the event emitted when a game ends.

package game

import (
	"strings"
	"time"
)

// DefaultAttempts is the number of wrong guesses allowed when none is configured.
const DefaultAttempts = 9

// State is the coarse lifecycle state of a game.
type State string

const (
	StateOpen State = "open"
	StateWon  State = "won"
	StateLost State = "lost"
)

// MoveKind tags a history entry.
type MoveKind string

const (
	MoveHit  MoveKind = "correct"
	MoveMiss MoveKind = "wrong"
	MoveWon  MoveKind = "won"
	MoveLost MoveKind = "lost"
)

// Move is one entry of a game's history log.
type Move struct {
	Guess             string   `json:"guess,omitempty"`
	Kind              MoveKind `json:"kind"`
	AttemptsRemaining int      `json:"attemptsRemaining"`
}

// String renders the move the way the history endpoint shows it.
func (m Move) String() string {
	switch m.Kind {
	case MoveWon:
		return "word guessed: game won"
	case MoveLost:
		return "no attempts left: game over"
	default:
		return "guess " + m.Guess + ": " + string(m.Kind)
	}
}

// Game holds the state of a single hangman game.
type Game struct {
	ID                string
	UserID            string
	Word              string // secret word, lowercase
	AttemptsAllowed   int
	AttemptsRemaining int
	LetterAttempts    string // every distinct letter guessed, in guess order
	Correct           string // subset of LetterAttempts found in Word
	Wrong             string // subset of LetterAttempts not in Word
	GameOver          bool
	Won               bool
	History           []Move
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// State reports open/won/lost.
func (g *Game) State() State {
	if !g.GameOver {
		return StateOpen
	}
	if g.Won {
		return StateWon
	}
	return StateLost
}

// GuessesUsed is the score value: attempts consumed so far.
func (g *Game) GuessesUsed() int { return g.AttemptsAllowed - g.AttemptsRemaining }

// MaskedWord shows found letters and hides the rest, e.g. "c _ t".
func (g *Game) MaskedWord() string {
	parts := make([]string, 0, len(g.Word))
	for _, r := range g.Word {
		if g.GameOver && g.Won || strings.ContainsRune(g.Correct, r) {
			parts = append(parts, string(r))
		} else {
			parts = append(parts, "_")
		}
	}
	return strings.Join(parts, " ")
}

// HistoryText renders the history log, one move per line.
func (g *Game) HistoryText() string {
	lines := make([]string, 0, len(g.History))
	for _, m := range g.History {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy, so stores never share History slices with callers.
func (g *Game) Clone() *Game {
	c := *g
	c.History = append([]Move(nil), g.History...)
	return &c
}

// Completion is emitted once when a game reaches WON or LOST.
type Completion struct {
	GameID  string
	UserID  string
	Date    time.Time
	Won     bool
	Guesses int // AttemptsAllowed - AttemptsRemaining at completion
}
