// internal/service/service.go
//
// Service facade: one method per client operation.
// Responsibilities:
//   - Resolve user names and opaque game keys to entities
//   - Drive the game engine, ledger, registry and ranking calculator
//   - Shape results into view structs for the transport layer
//   - Kick off the average-attempts recompute after a game is created

package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/internal/apperr"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/ranking"
	"github.com/robalobadob/hangman/internal/stats"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/user"
)

const (
	msgNewGame  = "Good luck playing Hangman!"
	msgOpenGame = "Guess another letter to move on."
	msgGameOn   = "game on"
)

// Deps are the collaborators a Service needs.
type Deps struct {
	Engine  *game.Engine
	Games   game.Repository
	Users   *user.Registry
	Ledger  *ledger.Ledger
	Ranking *ranking.Calculator
	Stats   *stats.Recomputer

	// HighScoresWindow is the number_of_results used when a caller passes none.
	HighScoresWindow int
}

// Service implements the client-facing operations.
type Service struct {
	d Deps
}

func New(d Deps) *Service { return &Service{d: d} }

// CreateUser registers a new player.
func (s *Service) CreateUser(ctx context.Context, name, email string) (UserView, error) {
	u, err := s.d.Users.Create(ctx, name, email)
	if err != nil {
		return UserView{}, err
	}
	log.Info().Str("user", u.Name).Msg("user created")
	return userView(u), nil
}

// NewGame starts a game for userName. attempts == 0 uses the default.
func (s *Service) NewGame(ctx context.Context, userName string, attempts int) (GameView, error) {
	u, err := s.userByName(ctx, userName)
	if err != nil {
		return GameView{}, err
	}
	g, err := s.d.Engine.Create(ctx, u.ID, attempts)
	if err != nil {
		return GameView{}, err
	}
	if s.d.Stats != nil {
		s.d.Stats.Trigger()
	}
	return gameView(g, u.Name, msgNewGame), nil
}

// MakeMove applies a letter or whole-word guess.
func (s *Service) MakeMove(ctx context.Context, key, guess string) (GameView, error) {
	g, err := s.game(ctx, key)
	if err != nil {
		return GameView{}, err
	}
	out, err := s.d.Engine.Guess(ctx, g, guess)
	if err != nil {
		return GameView{}, err
	}
	return gameView(g, s.userName(ctx, g.UserID), out.Message), nil
}

// GetGame returns the current state of a game.
func (s *Service) GetGame(ctx context.Context, key string) (GameView, error) {
	g, err := s.game(ctx, key)
	if err != nil {
		return GameView{}, err
	}
	msg := msgOpenGame
	switch g.State() {
	case game.StateWon:
		msg = "You guessed the word! You win!"
	case game.StateLost:
		msg = "Game over!"
	}
	return gameView(g, s.userName(ctx, g.UserID), msg), nil
}

// GetGameHistory returns the ordered move log.
func (s *Service) GetGameHistory(ctx context.Context, key string) (HistoryView, error) {
	g, err := s.game(ctx, key)
	if err != nil {
		return HistoryView{}, err
	}
	moves := make([]string, len(g.History))
	for i, m := range g.History {
		moves[i] = m.String()
	}
	return HistoryView{Key: key, Moves: moves, Text: g.HistoryText()}, nil
}

// CancelGame deletes an open game.
func (s *Service) CancelGame(ctx context.Context, key string) (string, error) {
	g, err := s.game(ctx, key)
	if err != nil {
		return "", err
	}
	if err := s.d.Engine.Cancel(ctx, g); err != nil {
		return "", err
	}
	return fmt.Sprintf("Game %s removed", key), nil
}

// GetUserGames lists a user's open games.
func (s *Service) GetUserGames(ctx context.Context, userName string) ([]GameView, error) {
	u, err := s.userByName(ctx, userName)
	if err != nil {
		return nil, err
	}
	games, err := s.d.Games.ListOpen(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]GameView, len(games))
	for i, g := range games {
		out[i] = gameView(g, u.Name, msgGameOn)
	}
	return out, nil
}

// GetScores lists every score.
func (s *Service) GetScores(ctx context.Context) ([]ScoreView, error) {
	return s.scores(ctx, ledger.Filter{})
}

// GetUserScores lists one user's scores.
func (s *Service) GetUserScores(ctx context.Context, userName string) ([]ScoreView, error) {
	u, err := s.userByName(ctx, userName)
	if err != nil {
		return nil, err
	}
	return s.scores(ctx, ledger.Filter{UserID: u.ID})
}

// GetHighScores lists won games, fewest guesses first. results limits the
// query (0 = all); window trims the limited list, nil uses the default.
func (s *Service) GetHighScores(ctx context.Context, results int, window *int) ([]ScoreView, error) {
	if results < 0 || (window != nil && *window < 0) {
		return nil, apperr.InvalidInput("result counts cannot be negative")
	}
	w := s.d.HighScoresWindow
	if window != nil {
		w = *window
	}
	list, err := s.d.Ledger.HighScores(ctx, results, w)
	if err != nil {
		return nil, err
	}
	return s.scoreViews(ctx, list), nil
}

// GetUserRankings ranks every eligible user.
func (s *Service) GetUserRankings(ctx context.Context) ([]RankingView, error) {
	entries, err := s.d.Ranking.Rank(ctx)
	if err != nil {
		return nil, err
	}
	return rankingViews(entries), nil
}

// GetAverageAttemptsRemaining returns the cached statistic, "" if never computed.
func (s *Service) GetAverageAttemptsRemaining(ctx context.Context) (string, error) {
	if s.d.Stats == nil {
		return "", nil
	}
	return s.d.Stats.Current(ctx)
}

// --------------------------------------------------------------------------

func (s *Service) userByName(ctx context.Context, name string) (*user.User, error) {
	u, err := s.d.Users.ByName(ctx, name)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, apperr.NotFound("a user with that name does not exist")
	}
	return u, err
}

// userName resolves an id for display; a missing user renders as "".
func (s *Service) userName(ctx context.Context, id string) string {
	u, err := s.d.Users.ByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("userId", id).Msg("resolve user name")
		return ""
	}
	return u.Name
}

func (s *Service) game(ctx context.Context, key string) (*game.Game, error) {
	k, err := store.Decode(key, store.KindGame)
	if err != nil {
		return nil, err
	}
	g, err := s.d.Games.Get(ctx, k.ID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, apperr.NotFound("game not found")
	}
	return g, err
}

func (s *Service) scores(ctx context.Context, f ledger.Filter) ([]ScoreView, error) {
	list, err := s.d.Ledger.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.scoreViews(ctx, list), nil
}

func (s *Service) scoreViews(ctx context.Context, list []*ledger.Score) []ScoreView {
	names := map[string]string{}
	out := make([]ScoreView, len(list))
	for i, sc := range list {
		name, ok := names[sc.UserID]
		if !ok {
			name = s.userName(ctx, sc.UserID)
			names[sc.UserID] = name
		}
		out[i] = scoreView(sc, name)
	}
	return out
}
