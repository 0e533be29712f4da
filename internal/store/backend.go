// internal/store/backend.go
//
// Persistence entry point. A Backend bundles the three repositories the
// domain packages consume; implementations may be backed by memory or SQLite.

package store

import (
	"context"
	"fmt"

	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/user"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Backend groups the repositories of one storage engine.
type Backend struct {
	Users  user.Repository
	Games  game.Repository
	Scores ledger.Repository
	close  func() error
	atomic func(ctx context.Context, fn func(context.Context, *Backend) error) error
}

// Atomic runs fn as one unit of work. fn receives a Backend whose
// repositories take part in the unit; if fn returns an error none of its
// writes are kept.
func (b *Backend) Atomic(ctx context.Context, fn func(context.Context, *Backend) error) error {
	if b.atomic == nil {
		return fn(ctx, b)
	}
	return b.atomic(ctx, fn)
}

// Close releases the underlying storage.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open selects a backend by driver name. dsn is ignored for memory.
func Open(driver, dsn string) (*Backend, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}
