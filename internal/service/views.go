package service

import (
	"time"

	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/ranking"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/user"
)

// UserView is returned when a user is created.
type UserView struct {
	Name    string `json:"userName"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

// GameView is the public summary of a game. The secret word is never
// exposed; WordLength and MaskedWord give the player what they need.
type GameView struct {
	Key               string `json:"urlsafeGameKey"`
	UserName          string `json:"userName"`
	LetterAttempts    string `json:"letterAttempts"`
	Correct           string `json:"letterAttemptsCorrect"`
	Wrong             string `json:"letterAttemptsWrong"`
	WordLength        int    `json:"wordLength"`
	MaskedWord        string `json:"maskedWord"`
	AttemptsAllowed   int    `json:"attemptsAllowed"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
	GameOver          bool   `json:"gameOver"`
	State             string `json:"state"`
	Message           string `json:"message"`
}

// HistoryView is the ordered move log of a game.
type HistoryView struct {
	Key   string   `json:"urlsafeGameKey"`
	Moves []string `json:"moves"`
	Text  string   `json:"message"`
}

// ScoreView is one ledger entry.
type ScoreView struct {
	UserName string `json:"userName"`
	Date     string `json:"date"`
	Won      bool   `json:"won"`
	Guesses  int    `json:"guesses"`
}

// RankingView is one row of the user ranking.
type RankingView struct {
	Rank        int     `json:"rank"`
	UserName    string  `json:"userName"`
	Score       float64 `json:"score"`
	GamesPlayed int     `json:"gamesPlayed"`
	Victories   int     `json:"victories"`
}

func gameView(g *game.Game, userName, msg string) GameView {
	return GameView{
		Key:               store.GameKey(g.ID),
		UserName:          userName,
		LetterAttempts:    g.LetterAttempts,
		Correct:           g.Correct,
		Wrong:             g.Wrong,
		WordLength:        len(g.Word),
		MaskedWord:        g.MaskedWord(),
		AttemptsAllowed:   g.AttemptsAllowed,
		AttemptsRemaining: g.AttemptsRemaining,
		GameOver:          g.GameOver,
		State:             string(g.State()),
		Message:           msg,
	}
}

func scoreView(s *ledger.Score, userName string) ScoreView {
	return ScoreView{
		UserName: userName,
		Date:     s.Date.Format(time.DateOnly),
		Won:      s.Won,
		Guesses:  s.Guesses,
	}
}

func rankingViews(es []ranking.Entry) []RankingView {
	out := make([]RankingView, len(es))
	for i, e := range es {
		out[i] = RankingView{
			Rank:        i + 1,
			UserName:    e.UserName,
			Score:       e.Score,
			GamesPlayed: e.GamesPlayed,
			Victories:   e.Victories,
		}
	}
	return out
}

func userView(u *user.User) UserView {
	return UserView{Name: u.Name, Email: u.Email, Message: "User " + u.Name + " created!"}
}
