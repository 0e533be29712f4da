package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/hangman/internal/apperr"
)

// ---- fakes ----

type fixedWord string

func (f fixedWord) Random() string { return string(f) }

type fakeGames struct {
	saved   map[string]*Game
	deleted []string
	saves   int
	err     error // returned by Save when set
}

func newFakeGames() *fakeGames { return &fakeGames{saved: map[string]*Game{}} }

func (f *fakeGames) Save(_ context.Context, g *Game) error {
	if f.err != nil {
		return f.err
	}
	f.saves++
	f.saved[g.ID] = g.Clone()
	return nil
}
func (f *fakeGames) Get(_ context.Context, id string) (*Game, error) {
	g, ok := f.saved[id]
	if !ok {
		return nil, apperr.NotFound("game not found")
	}
	return g.Clone(), nil
}
func (f *fakeGames) Delete(_ context.Context, id string) error {
	delete(f.saved, id)
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeGames) ListOpen(_ context.Context, _ string) ([]*Game, error) { return nil, nil }

// fakeFinisher mimics an atomic completion: it either fails before writing
// anything or saves the game, records the completion and bumps counters.
type fakeFinisher struct {
	games        *fakeGames
	got          []Completion
	wins, losses int
	err          error // returned once, before any write
}

func (f *fakeFinisher) Finish(ctx context.Context, g *Game, c Completion) error {
	if f.err != nil {
		err := f.err
		f.err = nil
		return err
	}
	if err := f.games.Save(ctx, g); err != nil {
		return err
	}
	f.got = append(f.got, c)
	if c.Won {
		f.wins++
	} else {
		f.losses++
	}
	return nil
}

type fixture struct {
	engine *Engine
	games  *fakeGames
	done   *fakeFinisher
}

func newFixture(word string) fixture {
	games := newFakeGames()
	f := fixture{games: games, done: &fakeFinisher{games: games}}
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	f.engine = NewEngine(fixedWord(word), f.games, f.done, WithClock(clock))
	return f
}

func (f fixture) create(t *testing.T, attempts int) *Game {
	t.Helper()
	g, err := f.engine.Create(context.Background(), "u1", attempts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return g
}

func (f fixture) guess(t *testing.T, g *Game, s string) Outcome {
	t.Helper()
	out, err := f.engine.Guess(context.Background(), g, s)
	if err != nil {
		t.Fatalf("Guess(%q): %v", s, err)
	}
	return out
}

// ---- tests ----

func TestCreateDefaults(t *testing.T) {
	f := newFixture("cat")
	g := f.create(t, 0)
	if g.AttemptsAllowed != DefaultAttempts || g.AttemptsRemaining != DefaultAttempts {
		t.Errorf("attempts = %d/%d, want %d", g.AttemptsRemaining, g.AttemptsAllowed, DefaultAttempts)
	}
	if g.Word != "cat" || g.GameOver || g.LetterAttempts != "" || len(g.History) != 0 {
		t.Errorf("unexpected fresh game %+v", g)
	}
	if _, ok := f.games.saved[g.ID]; !ok {
		t.Error("new game was not persisted")
	}
	if _, err := f.engine.Create(context.Background(), "u1", -1); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("negative attempts: got %v", err)
	}
}

func TestWinScenario(t *testing.T) {
	f := newFixture("cat")
	g := f.create(t, 3)

	for _, l := range []string{"c", "a"} {
		out := f.guess(t, g, l)
		if !out.Hit || out.Finished {
			t.Fatalf("guess %q: %+v", l, out)
		}
		if g.AttemptsRemaining != 3 {
			t.Fatalf("remaining = %d, want 3", g.AttemptsRemaining)
		}
	}
	out := f.guess(t, g, "t")
	if !out.Finished || !out.Won || g.State() != StateWon {
		t.Fatalf("expected win, got %+v state=%s", out, g.State())
	}
	if len(f.done.got) != 1 {
		t.Fatalf("scores recorded = %d, want 1", len(f.done.got))
	}
	if s := f.done.got[0]; !s.Won || s.Guesses != 0 || s.UserID != "u1" {
		t.Errorf("score = %+v", s)
	}
	if f.done.wins != 1 || f.done.losses != 0 {
		t.Errorf("user counters wins=%d losses=%d", f.done.wins, f.done.losses)
	}
	if last := g.History[len(g.History)-1]; last.Kind != MoveWon {
		t.Errorf("last history entry = %+v", last)
	}
}

func TestLossScenario(t *testing.T) {
	f := newFixture("cat")
	g := f.create(t, 2)

	if out := f.guess(t, g, "x"); out.Hit || out.Finished || g.AttemptsRemaining != 1 {
		t.Fatalf("after x: %+v remaining=%d", out, g.AttemptsRemaining)
	}
	out := f.guess(t, g, "y")
	if !out.Finished || out.Won || g.State() != StateLost {
		t.Fatalf("expected loss, got %+v", out)
	}
	if g.AttemptsRemaining != 0 {
		t.Errorf("remaining = %d", g.AttemptsRemaining)
	}
	if s := f.done.got[0]; s.Won || s.Guesses != 2 {
		t.Errorf("score = %+v", s)
	}
	if f.done.losses != 1 {
		t.Errorf("losses = %d", f.done.losses)
	}
	if g.Wrong != "xy" || g.Correct != "" {
		t.Errorf("wrong=%q correct=%q", g.Wrong, g.Correct)
	}
}

func TestWinCheckedBeforeLoss(t *testing.T) {
	// "t" is both the last missing letter and guessed with one attempt left
	// after earlier misses; a hit never consumes, so word completion wins.
	f := newFixture("cat")
	g := f.create(t, 1)
	f.guess(t, g, "c")
	f.guess(t, g, "a")
	out := f.guess(t, g, "t")
	if !out.Won {
		t.Fatalf("expected win with one attempt left, got %+v", out)
	}
}

func TestWinRegardlessOfOrder(t *testing.T) {
	orders := [][]string{{"c", "a", "t"}, {"t", "c", "a"}, {"a", "x", "t", "c"}}
	for _, order := range orders {
		f := newFixture("cat")
		g := f.create(t, 5)
		var wins int
		for _, l := range order {
			if f.guess(t, g, l).Won {
				wins++
			}
		}
		if wins != 1 || g.State() != StateWon || len(f.done.got) != 1 {
			t.Errorf("order %v: wins=%d state=%s scores=%d", order, wins, g.State(), len(f.done.got))
		}
	}
}

func TestRepeatedLetterWordWins(t *testing.T) {
	f := newFixture("buzzing")
	g := f.create(t, 9)
	for _, l := range []string{"b", "u", "z", "i", "n"} {
		f.guess(t, g, l)
	}
	if out := f.guess(t, g, "g"); !out.Won {
		t.Fatalf("expected win, got %+v", out)
	}
}

func TestRejections(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		guess string
		kind  apperr.Kind
	}{
		{"non alphabetic", nil, "1", apperr.KindInvalidInput},
		{"empty", nil, "  ", apperr.KindInvalidInput},
		{"mixed", nil, "c4t", apperr.KindInvalidInput},
		{"repeated hit", []string{"c"}, "c", apperr.KindIllegalState},
		{"repeated miss", []string{"x"}, "X", apperr.KindIllegalState},
		{"wrong length word", nil, "cats", apperr.KindInvalidInput},
		{"wrong word", nil, "dog", apperr.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("cat")
			g := f.create(t, 5)
			for _, s := range tt.setup {
				f.guess(t, g, s)
			}
			before := g.Clone()
			saves := f.games.saves
			_, err := f.engine.Guess(context.Background(), g, tt.guess)
			if apperr.KindOf(err) != tt.kind {
				t.Fatalf("err = %v, want kind %s", err, tt.kind)
			}
			if g.AttemptsRemaining != before.AttemptsRemaining || g.LetterAttempts != before.LetterAttempts ||
				len(g.History) != len(before.History) {
				t.Errorf("game changed on rejection: before=%+v after=%+v", before, g)
			}
			if f.games.saves != saves {
				t.Error("rejected guess should not be persisted")
			}
		})
	}
}

func TestPersistenceFailures(t *testing.T) {
	unavailable := errors.New("store unavailable")

	t.Run("save fails on open game", func(t *testing.T) {
		f := newFixture("cat")
		g := f.create(t, 5)
		f.games.err = unavailable
		if _, err := f.engine.Guess(context.Background(), g, "x"); !errors.Is(err, unavailable) {
			t.Fatalf("err = %v", err)
		}
		stored := f.games.saved[g.ID]
		if stored.LetterAttempts != "" || stored.AttemptsRemaining != 5 || len(stored.History) != 0 {
			t.Errorf("stored game changed: %+v", stored)
		}
	})

	t.Run("finish fails then retry", func(t *testing.T) {
		f := newFixture("a")
		g := f.create(t, 3)
		f.done.err = unavailable
		if _, err := f.engine.Guess(context.Background(), g, "a"); !errors.Is(err, unavailable) {
			t.Fatalf("err = %v", err)
		}
		stored, _ := f.games.Get(context.Background(), g.ID)
		if stored.GameOver || len(f.done.got) != 0 || f.done.wins != 0 {
			t.Fatalf("partial completion: gameOver=%v scores=%d wins=%d", stored.GameOver, len(f.done.got), f.done.wins)
		}

		out, err := f.engine.Guess(context.Background(), stored, "a")
		if err != nil || !out.Won {
			t.Fatalf("retry: %+v, %v", out, err)
		}
		if len(f.done.got) != 1 || f.done.wins != 1 || !f.games.saved[g.ID].GameOver {
			t.Errorf("after retry: scores=%d wins=%d", len(f.done.got), f.done.wins)
		}
	})

	t.Run("end fails", func(t *testing.T) {
		f := newFixture("cat")
		g := f.create(t, 3)
		f.done.err = unavailable
		if _, err := f.engine.End(context.Background(), g, false); !errors.Is(err, unavailable) {
			t.Fatalf("err = %v", err)
		}
		if f.games.saved[g.ID].GameOver || f.done.losses != 0 {
			t.Error("failed End left a finished game behind")
		}
	})
}

func TestPreconditionOrder(t *testing.T) {
	f := newFixture("cat")
	g := f.create(t, 1)
	f.guess(t, g, "x") // lost
	// game over is reported before the letters-only check
	_, err := f.engine.Guess(context.Background(), g, "1")
	if !errors.Is(err, apperr.ErrIllegalState) || apperr.Message(err) != "game already over" {
		t.Fatalf("err = %v", err)
	}
}

func TestWholeWordGuess(t *testing.T) {
	f := newFixture("cat")
	g := f.create(t, 3)
	out := f.guess(t, g, "CAT")
	if !out.Won || g.AttemptsRemaining != 3 {
		t.Fatalf("whole word: %+v remaining=%d", out, g.AttemptsRemaining)
	}
	if g.MaskedWord() != "c a t" {
		t.Errorf("masked = %q", g.MaskedWord())
	}
	if f.done.got[0].Guesses != 0 {
		t.Errorf("guesses = %d", f.done.got[0].Guesses)
	}
}

func TestAttemptsMonotonic(t *testing.T) {
	f := newFixture("zigzagging")
	g := f.create(t, 4)
	prev := g.AttemptsRemaining
	for _, l := range []string{"q", "z", "w", "i", "e", "r", "t"} {
		_, _ = f.engine.Guess(context.Background(), g, l)
		if g.AttemptsRemaining > prev || g.AttemptsRemaining < 0 {
			t.Fatalf("remaining went %d -> %d", prev, g.AttemptsRemaining)
		}
		prev = g.AttemptsRemaining
	}
	if g.State() != StateLost {
		t.Errorf("state = %s", g.State())
	}
}

func TestEnd(t *testing.T) {
	f := newFixture("cat")
	g := f.create(t, 5)
	f.guess(t, g, "x")
	c, err := f.engine.End(context.Background(), g, false)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if c.Guesses != 1 || c.Won || !g.GameOver {
		t.Errorf("completion = %+v", c)
	}
	if _, err := f.engine.End(context.Background(), g, true); apperr.KindOf(err) != apperr.KindIllegalState {
		t.Errorf("second End: %v", err)
	}
	if len(f.done.got) != 1 {
		t.Errorf("scores = %d", len(f.done.got))
	}
}

func TestCancel(t *testing.T) {
	f := newFixture("cat")
	open := f.create(t, 3)
	if err := f.engine.Cancel(context.Background(), open); err != nil {
		t.Fatalf("Cancel open: %v", err)
	}
	if _, ok := f.games.saved[open.ID]; ok {
		t.Error("cancelled game still stored")
	}
	if len(f.done.got) != 0 || f.done.wins+f.done.losses != 0 {
		t.Error("cancel must not record scores or counters")
	}

	won := f.create(t, 3)
	f.guess(t, won, "cat")
	if err := f.engine.Cancel(context.Background(), won); apperr.KindOf(err) != apperr.KindIllegalState {
		t.Fatalf("Cancel won: %v", err)
	}
}

func TestHistoryText(t *testing.T) {
	f := newFixture("cat")
	g := f.create(t, 1)
	f.guess(t, g, "c")
	f.guess(t, g, "z")
	want := "guess c: correct\nguess z: wrong\nno attempts left: game over"
	if got := g.HistoryText(); got != want {
		t.Errorf("HistoryText() =\n%s\nwant\n%s", got, want)
	}
}
