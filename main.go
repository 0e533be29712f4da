// main.go
//
// Process entry point for the hangman service.
// Responsibilities:
//   - Load .env and configuration, set up the global zerolog logger
//   - Open the store, word list and statistic cache
//   - Wire the engine, service and HTTP server
//   - Run the server and the statistic scheduler until SIGINT/SIGTERM

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/hangman/internal/config"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/httpserver"
	"github.com/robalobadob/hangman/internal/ledger"
	"github.com/robalobadob/hangman/internal/ranking"
	"github.com/robalobadob/hangman/internal/service"
	"github.com/robalobadob/hangman/internal/stats"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/user"
	"github.com/robalobadob/hangman/internal/words"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	list, err := words.Load(cfg.WordsFile)
	if err != nil {
		return err
	}
	log.Info().Int("words", list.Len()).Msg("word list loaded")

	dsn := ""
	if cfg.StoreDriver == store.DriverSQLite {
		dsn = cfg.DatabasePath
	}
	backend, err := store.Open(cfg.StoreDriver, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()
	log.Info().Str("driver", cfg.StoreDriver).Msg("store opened")

	cache := stats.NewMemoryCache()
	if cfg.RedisURL != "" {
		rdb, err := stats.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = stats.NewRedisCache(rdb, "")
		log.Info().Msg("statistic cache: redis")
	}

	scheme, err := ranking.ParseScheme(cfg.RankingScheme)
	if err != nil {
		return err
	}

	users := user.NewRegistry(backend.Users, cfg.StrictEmail)
	scores := ledger.New(backend.Scores)
	recompute := stats.NewRecomputer(backend.Games, cache)
	engine := game.NewEngine(list, backend.Games, store.NewFinisher(backend, users),
		game.WithAttempts(cfg.AttemptsAllowed))
	ranks := ranking.NewCalculator(scheme, users, scores)
	log.Info().Str("scheme", string(ranks.Scheme())).Msg("ranking scheme")

	svc := service.New(service.Deps{
		Engine:           engine,
		Games:            backend.Games,
		Users:            users,
		Ledger:           scores,
		Ranking:          ranks,
		Stats:            recompute,
		HighScoresWindow: cfg.HighScoresDefault,
	})
	srv := httpserver.New(svc, httpserver.Options{ClientOrigin: cfg.ClientOrigin})

	sched := stats.NewScheduler(recompute, cfg.StatsRefresh)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Addr())
	})
	g.Go(func() error {
		if err := sched.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	err = g.Wait()
	recompute.Wait()
	return err
}
