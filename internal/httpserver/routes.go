// internal/httpserver/routes.go
//
// Game API routes:
//   - POST   /user                  → create a user
//   - POST   /game                  → start a game for a user
//   - GET    /game/{key}            → current game state
//   - PUT    /game/{key}            → make a move
//   - DELETE /game/{key}            → cancel an open game
//   - GET    /game/{key}/history    → ordered move log
//   - GET    /user/games            → a user's open games (?user_name=)
//   - GET    /user/rankings         → ranked users
//   - GET    /scores                → every score
//   - GET    /scores/user/{name}    → one user's scores
//   - GET    /high_scores           → best wins (?results=&number_of_results=)
//   - GET    /games/average_attempts → cached statistic

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/hangman/internal/apperr"
	"github.com/robalobadob/hangman/internal/service"
)

type createUserReq struct {
	UserName string `json:"user_name" validate:"required,max=64"`
	Email    string `json:"email"`
}

type newGameReq struct {
	UserName string `json:"user_name" validate:"required"`
	Attempts int    `json:"attempts" validate:"omitempty,min=1,max=26"`
}

type moveReq struct {
	Guess string `json:"guess" validate:"required"`
}

type gamesRes struct {
	Games []service.GameView `json:"games"`
}

type scoresRes struct {
	Items []service.ScoreView `json:"items"`
}

type rankingsRes struct {
	Rankings []service.RankingView `json:"rankings"`
}

func (s *Server) mountRoutes() {
	s.r.Post("/user", s.handleCreateUser)
	s.r.Get("/user/games", s.handleUserGames)
	s.r.Get("/user/rankings", s.handleRankings)

	s.r.Post("/game", s.handleNewGame)
	s.r.Route("/game/{key}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.Put("/", s.handleMove)
		r.Delete("/", s.handleCancel)
		r.Get("/history", s.handleHistory)
	})
	s.r.Get("/games/average_attempts", s.handleAverage)

	s.r.Get("/scores", s.handleScores)
	s.r.Get("/scores/user/{user_name}", s.handleUserScores)
	s.r.Get("/high_scores", s.handleHighScores)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.svc.CreateUser(r.Context(), req.UserName, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.svc.NewGame(r.Context(), req.UserName, req.Attempts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.GetGame(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.svc.MakeMove(r.Context(), chi.URLParam(r, "key"), req.Guess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	msg, err := s.svc.CancelGame(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.GetGameHistory(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUserGames(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("user_name")
	if name == "" {
		writeError(w, r, apperr.InvalidInput("user_name is required"))
		return
	}
	games, err := s.svc.GetUserGames(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gamesRes{Games: games})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.GetScores(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresRes{Items: items})
}

func (s *Server) handleUserScores(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.GetUserScores(r.Context(), chi.URLParam(r, "user_name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresRes{Items: items})
}

func (s *Server) handleHighScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := queryInt(q.Get("results"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var window *int
	if raw := q.Get("number_of_results"); raw != "" {
		n, err := queryInt(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		window = &n
	}
	items, err := s.svc.GetHighScores(r.Context(), results, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresRes{Items: items})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.svc.GetUserRankings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingsRes{Rankings: rankings})
}

func (s *Server) handleAverage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.svc.GetAverageAttemptsRemaining(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidInput("query parameters must be integers")
	}
	return n, nil
}
