// internal/user/user.go
//
// User record: identity plus aggregate win/loss counters.
// Counters only move through RecordVictory/RecordLoss, which the game
// engine calls when a game finishes.

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/robalobadob/hangman/internal/apperr"
)

// User is the long-lived aggregate root.
type User struct {
	ID          string
	Name        string
	Email       string
	GamesPlayed int
	Victories   int
	CreatedAt   time.Time
}

// Losses is derived: every played game is either a victory or a loss.
func (u *User) Losses() int { return u.GamesPlayed - u.Victories }

// VictoryPercentage is victories/games_played, 0 when nothing was played.
func (u *User) VictoryPercentage() float64 {
	if u.GamesPlayed == 0 {
		return 0
	}
	return float64(u.Victories) / float64(u.GamesPlayed)
}

// Repository persists users. Insert must fail with a Conflict on a duplicate
// (case-insensitive) name; AddOutcome must bump counters atomically.
type Repository interface {
	Insert(ctx context.Context, u *User) error
	ByID(ctx context.Context, id string) (*User, error)
	ByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	AddOutcome(ctx context.Context, id string, won bool) error
}

type registration struct {
	Name  string `validate:"required,max=64"`
	Email string `validate:"omitempty,email"`
}

// Registry creates users and updates their counters.
type Registry struct {
	repo        Repository
	validate    *validator.Validate
	strictEmail bool
	now         func() time.Time
}

// NewRegistry builds a Registry. strictEmail enables address syntax checks.
func NewRegistry(repo Repository, strictEmail bool) *Registry {
	return &Registry{
		repo:        repo,
		validate:    validator.New(),
		strictEmail: strictEmail,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithRepository returns a copy of r that reads and writes through repo.
func (r *Registry) WithRepository(repo Repository) *Registry {
	c := *r
	c.repo = repo
	return &c
}

// Create registers a new user. Names are unique; email is optional.
func (r *Registry) Create(ctx context.Context, name, email string) (*User, error) {
	reg := registration{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if reg.Name == "" {
		return nil, apperr.InvalidInput("user name is required")
	}
	if !r.strictEmail {
		if err := r.validate.Var(reg.Name, "max=64"); err != nil {
			return nil, apperr.InvalidInput("user name must be at most 64 characters")
		}
	} else if err := r.validate.Struct(reg); err != nil {
		return nil, validationError(err)
	}
	if existing, err := r.repo.ByName(ctx, reg.Name); err == nil && existing != nil {
		return nil, apperr.Conflict("a user with that name already exists")
	} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	u := &User{Name: reg.Name, Email: reg.Email, CreatedAt: r.now()}
	if err := r.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ByName looks a user up by name.
func (r *Registry) ByName(ctx context.Context, name string) (*User, error) {
	return r.repo.ByName(ctx, strings.TrimSpace(name))
}

// ByID looks a user up by id.
func (r *Registry) ByID(ctx context.Context, id string) (*User, error) {
	return r.repo.ByID(ctx, id)
}

// All lists every user in registration order.
func (r *Registry) All(ctx context.Context) ([]*User, error) {
	return r.repo.List(ctx)
}

// RecordVictory bumps games played and victories.
func (r *Registry) RecordVictory(ctx context.Context, userID string) error {
	return r.repo.AddOutcome(ctx, userID, true)
}

// RecordLoss bumps games played only.
func (r *Registry) RecordLoss(ctx context.Context, userID string) error {
	return r.repo.AddOutcome(ctx, userID, false)
}

func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Email":
			return apperr.Wrap(apperr.KindInvalidInput, "invalid email address", err)
		case "Name":
			return apperr.Wrap(apperr.KindInvalidInput, "user name must be at most 64 characters", err)
		}
	}
	return apperr.Wrap(apperr.KindInvalidInput, "invalid user", err)
}
