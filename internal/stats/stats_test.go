package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/hangman/internal/game"
)

type fakeGames struct {
	games []*game.Game
	err   error
	panic bool
}

func (f *fakeGames) ListOpen(context.Context, string) ([]*game.Game, error) {
	if f.panic {
		panic("boom")
	}
	return f.games, f.err
}

func open(remaining ...int) []*game.Game {
	out := make([]*game.Game, len(remaining))
	for i, r := range remaining {
		out[i] = &game.Game{ID: string(rune('a' + i)), AttemptsAllowed: 9, AttemptsRemaining: r}
	}
	return out
}

func newRedisCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, ""), mini
}

func TestCaches(t *testing.T) {
	redisCache, mini := newRedisCache(t)
	caches := map[string]Cache{"memory": NewMemoryCache(), "redis": redisCache}
	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			v, err := c.Get(ctx)
			if err != nil || v != "" {
				t.Fatalf("empty Get = %q, %v", v, err)
			}
			if err := c.Set(ctx, "hello"); err != nil {
				t.Fatal(err)
			}
			if v, _ := c.Get(ctx); v != "hello" {
				t.Errorf("Get = %q", v)
			}
		})
	}
	if got, _ := mini.Get(DefaultRedisKey); got != "hello" {
		t.Errorf("redis key = %q", got)
	}
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name  string
		games []*game.Game
		prior string
		want  string
	}{
		{"average", open(9, 4, 2), "", "Average moves remaining is 5.00"},
		{"fraction", open(1, 2), "", "Average moves remaining is 1.50"},
		{"no open games keeps prior", nil, "Average moves remaining is 3.00", "Average moves remaining is 3.00"},
		{"no open games never computed", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMemoryCache()
			_ = c.Set(context.Background(), tt.prior)
			rc := NewRecomputer(&fakeGames{games: tt.games}, c)
			if err := rc.Recompute(context.Background()); err != nil {
				t.Fatal(err)
			}
			if got, _ := rc.Current(context.Background()); got != tt.want {
				t.Errorf("Current = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTriggerRedis(t *testing.T) {
	c, mini := newRedisCache(t)
	rc := NewRecomputer(&fakeGames{games: open(6)}, c)
	rc.Trigger()
	rc.Trigger()
	rc.Wait()
	if got, _ := mini.Get(DefaultRedisKey); got != "Average moves remaining is 6.00" {
		t.Errorf("redis value = %q", got)
	}
}

func TestTriggerSwallowsFailures(t *testing.T) {
	for name, g := range map[string]*fakeGames{
		"error": {err: errors.New("store down")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewMemoryCache()
			rc := NewRecomputer(g, c)
			rc.Trigger()
			rc.Wait()
			if v, _ := c.Get(context.Background()); v != "" {
				t.Errorf("cache = %q", v)
			}
		})
	}
}

func TestTriggerRedisDown(t *testing.T) {
	c, mini := newRedisCache(t)
	mini.Close()
	rc := NewRecomputer(&fakeGames{games: open(1)}, c)
	rc.timeout = 200 * time.Millisecond
	rc.Trigger()
	rc.Wait()
}

func TestScheduler(t *testing.T) {
	if s := NewScheduler(nil, 0); s != nil {
		t.Fatal("zero interval should disable the scheduler")
	}
	var disabled *Scheduler
	if err := disabled.Start(); err != nil {
		t.Fatal(err)
	}
	disabled.Stop()

	c := NewMemoryCache()
	rc := NewRecomputer(&fakeGames{games: open(3)}, c)
	s := NewScheduler(rc, 20*time.Millisecond)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := c.Get(context.Background()); v != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()
	rc.Wait()
	if v, _ := c.Get(context.Background()); v != "Average moves remaining is 3.00" {
		t.Errorf("scheduled value = %q", v)
	}
}
