package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/robalobadob/hangman/internal/apperr"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/user"
)

func TestCreateConflict(t *testing.T) {
	r := user.NewRegistry(store.NewMemory().Users, true)
	ctx := context.Background()
	if _, err := r.Create(ctx, "alice", "a@b.com"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := r.Create(ctx, "alice", "c@d.com")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second create: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		user   string
		email  string
		kind   apperr.Kind
	}{
		{"blank name", true, "   ", "", apperr.KindInvalidInput},
		{"bad email strict", true, "bob", "not-an-email", apperr.KindInvalidInput},
		{"bad email lenient", false, "bob", "not-an-email", ""},
		{"no email", true, "carol", "", ""},
		{"valid", true, "dave", "dave@example.org", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := user.NewRegistry(store.NewMemory().Users, tt.strict)
			u, err := r.Create(context.Background(), tt.user, tt.email)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if u.GamesPlayed != 0 || u.Victories != 0 {
					t.Errorf("fresh counters = %+v", u)
				}
				return
			}
			if apperr.KindOf(err) != tt.kind {
				t.Fatalf("err = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestCounters(t *testing.T) {
	r := user.NewRegistry(store.NewMemory().Users, true)
	ctx := context.Background()
	u, _ := r.Create(ctx, "erin", "")
	for _, won := range []bool{true, false, true, true} {
		var err error
		if won {
			err = r.RecordVictory(ctx, u.ID)
		} else {
			err = r.RecordLoss(ctx, u.ID)
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	got, err := r.ByName(ctx, " erin ")
	if err != nil {
		t.Fatal(err)
	}
	if got.GamesPlayed != 4 || got.Victories != 3 || got.Losses() != 1 {
		t.Errorf("counters = %+v", got)
	}
	if got.GamesPlayed != got.Victories+got.Losses() {
		t.Error("games_played must equal victories + losses")
	}
	if p := got.VictoryPercentage(); p != 0.75 {
		t.Errorf("VictoryPercentage = %v", p)
	}
}

func TestVictoryPercentageZero(t *testing.T) {
	u := &user.User{}
	if u.VictoryPercentage() != 0 {
		t.Error("expected 0 for a user with no games")
	}
}
