// internal/config/config.go
//
// Process configuration read from the environment (.env is loaded by main).
// Responsibilities:
//   - Typed accessors with defaults for every setting
//   - Reject malformed values up front instead of at first use

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Port              string
	LogLevel          string
	StoreDriver       string
	DatabasePath      string
	RedisURL          string
	AttemptsAllowed   int
	WordsFile         string
	RankingScheme     string
	StrictEmail       bool
	StatsRefresh      time.Duration
	ClientOrigin      string
	HighScoresDefault int
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// Load reads the environment. All problems are reported together.
func Load() (Config, error) {
	var errs []error
	c := Config{
		Port:          getEnv("PORT", "5175"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/hangman.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		WordsFile:     os.Getenv("WORDS_FILE"),
		RankingScheme: strings.ToLower(getEnv("RANKING_SCHEME", "percentage")),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
	}

	var err error
	if c.AttemptsAllowed, err = envInt("ATTEMPTS_ALLOWED", 9); err != nil {
		errs = append(errs, err)
	} else if c.AttemptsAllowed < 1 {
		errs = append(errs, errors.New("ATTEMPTS_ALLOWED must be at least 1"))
	}
	if c.HighScoresDefault, err = envInt("HIGH_SCORES_DEFAULT", 8); err != nil {
		errs = append(errs, err)
	} else if c.HighScoresDefault < 0 {
		errs = append(errs, errors.New("HIGH_SCORES_DEFAULT cannot be negative"))
	}
	if c.StrictEmail, err = envBool("STRICT_EMAIL", true); err != nil {
		errs = append(errs, err)
	}
	if c.StatsRefresh, err = envDuration("STATS_REFRESH_INTERVAL", 0); err != nil {
		errs = append(errs, err)
	}

	switch c.StoreDriver {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q: want memory or sqlite", c.StoreDriver))
	}
	switch c.RankingScheme {
	case "percentage", "wins_minus_losses":
	default:
		errs = append(errs, fmt.Errorf("RANKING_SCHEME %q: want percentage or wins_minus_losses", c.RankingScheme))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return c, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", k, v)
	}
	return n, nil
}

func envBool(k string, def bool) (bool, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", k, v)
	}
	return b, nil
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: %q is not a duration", k, v)
	}
	return d, nil
}
