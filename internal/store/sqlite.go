// internal/store/sqlite.go
//
// SQLite-backed repositories for users, games and scores.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Mapping rows to domain types; history is stored as a JSON column.
//
// Note: a single open connection serializes writers, which is what SQLite wants.

package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/internal/apperr"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/user"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

// OpenSQLite opens (and creates if missing) the database at path,
// applies migrations and returns a Backend over it.
func OpenSQLite(path string) (*Backend, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	b := sqlBackend(db)
	b.close = db.Close
	b.atomic = func(ctx context.Context, fn func(context.Context, *Backend) error) error {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(ctx, sqlBackend(tx)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	}
	return b, nil
}

// dbtx is the part of *sqlx.DB and *sqlx.Tx the repositories use.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

func sqlBackend(db dbtx) *Backend {
	return &Backend{
		Users:  &sqlUsers{db: db},
		Games:  &sqlGames{db: db},
		Scores: &sqlScores{db: db},
	}
}

// openDB ensures the parent directory exists, then opens with busy timeout,
// WAL journaling and enforced foreign keys.
func openDB(path string) (*sqlx.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// migrate applies embedded migrations in lexical order inside one tx each,
// skipping files already listed in _migrations.
func migrate(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var done int
		err := db.Get(&done, `SELECT 1 FROM _migrations WHERE name=?`, name)
		if err == nil {
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}
		body, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		tx, err := db.Beginx()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		log.Info().Str("migration", name).Msg("applied")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// ------------------------------- games -------------------------------------

type gameRow struct {
	ID                string `db:"id"`
	UserID            string `db:"user_id"`
	Word              string `db:"word"`
	AttemptsAllowed   int    `db:"attempts_allowed"`
	AttemptsRemaining int    `db:"attempts_remaining"`
	LetterAttempts    string `db:"letter_attempts"`
	Correct           string `db:"correct"`
	Wrong             string `db:"wrong"`
	GameOver          bool   `db:"game_over"`
	Won               bool   `db:"won"`
	History           string `db:"history"`
	CreatedAt         string `db:"created_at"`
	UpdatedAt         string `db:"updated_at"`
}

func (r gameRow) toGame() (*game.Game, error) {
	g := &game.Game{
		ID:                r.ID,
		UserID:            r.UserID,
		Word:              r.Word,
		AttemptsAllowed:   r.AttemptsAllowed,
		AttemptsRemaining: r.AttemptsRemaining,
		LetterAttempts:    r.LetterAttempts,
		Correct:           r.Correct,
		Wrong:             r.Wrong,
		GameOver:          r.GameOver,
		Won:               r.Won,
		CreatedAt:         parseTime(r.CreatedAt),
		UpdatedAt:         parseTime(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.History), &g.History); err != nil {
		return nil, fmt.Errorf("decode history of game %s: %w", r.ID, err)
	}
	return g, nil
}

type sqlGames struct{ db dbtx }

const gameColumns = `id, user_id, word, attempts_allowed, attempts_remaining, letter_attempts,
	correct, wrong, game_over, won, history, created_at, updated_at`

func (s *sqlGames) Save(ctx context.Context, g *game.Game) error {
	hist, err := json.Marshal(g.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	row := gameRow{
		ID: g.ID, UserID: g.UserID, Word: g.Word,
		AttemptsAllowed: g.AttemptsAllowed, AttemptsRemaining: g.AttemptsRemaining,
		LetterAttempts: g.LetterAttempts, Correct: g.Correct, Wrong: g.Wrong,
		GameOver: g.GameOver, Won: g.Won, History: string(hist),
		CreatedAt: g.CreatedAt.Format(timeLayout), UpdatedAt: g.UpdatedAt.Format(timeLayout),
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO games (`+gameColumns+`)
		VALUES (:id, :user_id, :word, :attempts_allowed, :attempts_remaining, :letter_attempts,
		        :correct, :wrong, :game_over, :won, :history, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			attempts_remaining = excluded.attempts_remaining,
			letter_attempts    = excluded.letter_attempts,
			correct            = excluded.correct,
			wrong              = excluded.wrong,
			game_over          = excluded.game_over,
			won                = excluded.won,
			history            = excluded.history,
			updated_at         = excluded.updated_at`, row)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

func (s *sqlGames) Get(ctx context.Context, id string) (*game.Game, error) {
	var row gameRow
	err := s.db.GetContext(ctx, &row, `SELECT `+gameColumns+` FROM games WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select game: %w", err)
	}
	return row.toGame()
}

func (s *sqlGames) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("game not found")
	}
	return nil
}

func (s *sqlGames) ListOpen(ctx context.Context, userID string) ([]*game.Game, error) {
	q := `SELECT ` + gameColumns + ` FROM games WHERE game_over = 0`
	var args []any
	if userID != "" {
		q += ` AND user_id = ?`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at, rowid`
	var rows []gameRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select open games: %w", err)
	}
	out := make([]*game.Game, 0, len(rows))
	for _, r := range rows {
		g, err := r.toGame()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// ------------------------------- users -------------------------------------

type userRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Email       string `db:"email"`
	GamesPlayed int    `db:"games_played"`
	Victories   int    `db:"victories"`
	CreatedAt   string `db:"created_at"`
}

func (r userRow) toUser() *user.User {
	return &user.User{
		ID: r.ID, Name: r.Name, Email: r.Email,
		GamesPlayed: r.GamesPlayed, Victories: r.Victories,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

type sqlUsers struct{ db dbtx }

const userColumns = `id, name, email, games_played, victories, created_at`

func (s *sqlUsers) Insert(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, games_played, victories, created_at) VALUES (?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.GamesPlayed, u.Victories, u.CreatedAt.Format(timeLayout))
	if isUniqueViolation(err) {
		return apperr.Conflict("a user with that name already exists")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *sqlUsers) one(ctx context.Context, where string, arg any, missing string) (*user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(missing)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return row.toUser(), nil
}

func (s *sqlUsers) ByID(ctx context.Context, id string) (*user.User, error) {
	return s.one(ctx, `id = ?`, id, "user not found")
}

func (s *sqlUsers) ByName(ctx context.Context, name string) (*user.User, error) {
	return s.one(ctx, `name = ?`, name, "a user with that name does not exist")
}

func (s *sqlUsers) List(ctx context.Context) ([]*user.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	out := make([]*user.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toUser())
	}
	return out, nil
}

func (s *sqlUsers) AddOutcome(ctx context.Context, id string, won bool) error {
	win := 0
	if won {
		win = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET games_played = games_played + 1, victories = victories + ? WHERE id = ?`, win, id)
	if err != nil {
		return fmt.Errorf("update user counters: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// ------------------------------- scores ------------------------------------

type scoreRow struct {
	ID      string `db:"id"`
	UserID  string `db:"user_id"`
	Date    string `db:"date"`
	Won     bool   `db:"won"`
	Guesses int    `db:"guesses"`
}

type sqlScores struct{ db dbtx }

func (s *sqlScores) Append(ctx context.Context, sc *ledger.Score) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (id, user_id, date, won, guesses) VALUES (?,?,?,?,?)`,
		sc.ID, sc.UserID, sc.Date.Format(dateLayout), sc.Won, sc.Guesses)
	if isUniqueViolation(err) {
		return apperr.Conflict("score already recorded")
	}
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *sqlScores) Query(ctx context.Context, f ledger.Filter) ([]*ledger.Score, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, `user_id = ?`)
		args = append(args, f.UserID)
	}
	if f.Won != nil {
		where = append(where, `won = ?`)
		args = append(args, *f.Won)
	}
	q := `SELECT id, user_id, date, won, guesses FROM scores`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	switch f.Order {
	case ledger.OrderGuessesAsc:
		q += ` ORDER BY guesses ASC, date ASC, rowid ASC`
	case ledger.OrderGuessesDesc:
		q += ` ORDER BY guesses DESC, date ASC, rowid ASC`
	default:
		q += ` ORDER BY rowid ASC`
	}
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	var rows []scoreRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	out := make([]*ledger.Score, 0, len(rows))
	for _, r := range rows {
		d, _ := time.Parse(dateLayout, r.Date)
		out = append(out, &ledger.Score{ID: r.ID, UserID: r.UserID, Date: d, Won: r.Won, Guesses: r.Guesses})
	}
	return out, nil
}
