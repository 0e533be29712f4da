package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/ranking"
	"github.com/robalobadob/hangman/internal/service"
	"github.com/robalobadob/hangman/internal/stats"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/user"
	"github.com/robalobadob/hangman/internal/words"
)

func newTestServer(t *testing.T) (http.Handler, *stats.Recomputer) {
	t.Helper()
	b := store.NewMemory()
	list, err := words.New([]string{"cat"})
	if err != nil {
		t.Fatal(err)
	}
	reg := user.NewRegistry(b.Users, true)
	led := ledger.New(b.Scores)
	rc := stats.NewRecomputer(b.Games, stats.NewMemoryCache())
	svc := service.New(service.Deps{
		Engine:           game.NewEngine(list, b.Games, store.NewFinisher(b, reg)),
		Games:            b.Games,
		Users:            reg,
		Ledger:           led,
		Ranking:          ranking.NewCalculator(ranking.VictoryPercentage, reg, led),
		Stats:            rc,
		HighScoresWindow: 8,
	})
	return New(svc, Options{}).Router(), rc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}
	if rec := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodOptions, "/user", ""); rec.Code != http.StatusNoContent {
		t.Errorf("preflight = %d", rec.Code)
	}
}

func TestGameLifecycle(t *testing.T) {
	h, rc := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/user", `{"user_name":"alice","email":"alice@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user = %d %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodPost, "/user", `{"user_name":"alice"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate user = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/game", `{"user_name":"alice","attempts":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("new game = %d %s", rec.Code, rec.Body)
	}
	var g service.GameView
	decodeInto(t, rec, &g)
	if g.Key == "" || g.AttemptsRemaining != 3 || g.MaskedWord != "_ _ _" {
		t.Fatalf("game = %+v", g)
	}
	rc.Wait()

	rec = do(t, h, http.MethodGet, "/games/average_attempts", "")
	if !strings.Contains(rec.Body.String(), "Average moves remaining is 3.00") {
		t.Errorf("average = %s", rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/user/games?user_name=alice", "")
	var open struct{ Games []service.GameView }
	decodeInto(t, rec, &open)
	if len(open.Games) != 1 {
		t.Errorf("open games = %+v", open)
	}

	for _, guess := range []string{"c", "x", "a"} {
		if rec := do(t, h, http.MethodPut, "/game/"+g.Key, `{"guess":"`+guess+`"}`); rec.Code != http.StatusOK {
			t.Fatalf("guess %s = %d %s", guess, rec.Code, rec.Body)
		}
	}
	rec = do(t, h, http.MethodPut, "/game/"+g.Key, `{"guess":"t"}`)
	decodeInto(t, rec, &g)
	if !g.GameOver || g.State != "won" {
		t.Fatalf("final = %+v", g)
	}

	rec = do(t, h, http.MethodGet, "/game/"+g.Key+"/history", "")
	var hist service.HistoryView
	decodeInto(t, rec, &hist)
	if len(hist.Moves) != 5 || hist.Moves[4] != "word guessed: game won" {
		t.Errorf("history = %+v", hist)
	}

	rec = do(t, h, http.MethodGet, "/scores/user/alice", "")
	var scores struct{ Items []service.ScoreView }
	decodeInto(t, rec, &scores)
	if len(scores.Items) != 1 || scores.Items[0].Guesses != 1 {
		t.Errorf("scores = %+v", scores)
	}

	rec = do(t, h, http.MethodGet, "/user/rankings", "")
	var ranks struct{ Rankings []service.RankingView }
	decodeInto(t, rec, &ranks)
	if len(ranks.Rankings) != 1 || ranks.Rankings[0].Score != 1 {
		t.Errorf("rankings = %+v", ranks)
	}

	if rec := do(t, h, http.MethodDelete, "/game/"+g.Key, ""); rec.Code != http.StatusForbidden {
		t.Errorf("cancel won game = %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	h, _ := newTestServer(t)
	do(t, h, http.MethodPost, "/user", `{"user_name":"bob"}`)
	rec := do(t, h, http.MethodPost, "/game", `{"user_name":"bob"}`)
	var g service.GameView
	decodeInto(t, rec, &g)
	do(t, h, http.MethodPut, "/game/"+g.Key, `{"guess":"c"}`)

	tests := []struct {
		name, method, path, body string
		status                   int
		kind                     string
	}{
		{"missing name", http.MethodPost, "/user", `{}`, 400, "invalid_input"},
		{"bad email", http.MethodPost, "/user", `{"user_name":"x","email":"nope"}`, 400, "invalid_input"},
		{"bad json", http.MethodPost, "/user", `{`, 400, "invalid_input"},
		{"unknown user", http.MethodPost, "/game", `{"user_name":"ghost"}`, 404, "not_found"},
		{"negative attempts", http.MethodPost, "/game", `{"user_name":"bob","attempts":-2}`, 400, "invalid_input"},
		{"bad key", http.MethodGet, "/game/%25%25", "", 400, "invalid_input"},
		{"missing game", http.MethodGet, "/game/" + store.GameKey("nope"), "", 404, "not_found"},
		{"non alpha", http.MethodPut, "/game/" + g.Key, `{"guess":"1"}`, 400, "invalid_input"},
		{"repeat letter", http.MethodPut, "/game/" + g.Key, `{"guess":"c"}`, 403, "illegal_state"},
		{"wrong length word", http.MethodPut, "/game/" + g.Key, `{"guess":"horse"}`, 400, "invalid_input"},
		{"no user_name", http.MethodGet, "/user/games", "", 400, "invalid_input"},
		{"bad results", http.MethodGet, "/high_scores?results=many", "", 400, "invalid_input"},
		{"unknown user scores", http.MethodGet, "/scores/user/ghost", "", 404, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			var body errorBody
			decodeInto(t, rec, &body)
			if body.Error != tt.kind || body.Message == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestHighScoresQuery(t *testing.T) {
	h, _ := newTestServer(t)
	do(t, h, http.MethodPost, "/user", `{"user_name":"cy"}`)
	for i := 0; i < 3; i++ {
		rec := do(t, h, http.MethodPost, "/game", `{"user_name":"cy"}`)
		var g service.GameView
		decodeInto(t, rec, &g)
		do(t, h, http.MethodPut, "/game/"+g.Key, `{"guess":"cat"}`)
	}
	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?results=2", 2},
		{"?number_of_results=1", 1},
		{"?results=2&number_of_results=5", 2},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, "/high_scores"+tt.query, "")
		var res struct{ Items []service.ScoreView }
		decodeInto(t, rec, &res)
		if len(res.Items) != tt.want {
			t.Errorf("%q: %d items, want %d", tt.query, len(res.Items), tt.want)
		}
	}
}
