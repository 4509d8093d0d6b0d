package chessbuilder

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/cheese-chess/internal/config"
	svcchess "github.com/park285/cheese-chess/internal/service/chess"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		HTTPAddr:               ":0",
		ChessDefaultDifficulty: "medium",
		ChessAIColor:           "black",
		ChessSessionTTL:        time.Hour,
		ChessHistoryLimit:      10,
		ChessMoveTimeout:       5 * time.Second,
	}
}

func TestNewInMemory(t *testing.T) {
	seed := int64(42)
	cfg := baseConfig()
	cfg.ChessSeed = &seed

	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	if _, ok := deps.Cache.(*svcchess.MemoryCache); !ok {
		t.Fatalf("expected memory cache, got %T", deps.Cache)
	}
	if deps.Formatter == nil || deps.Service == nil {
		t.Fatalf("incomplete deps: %+v", deps)
	}

	meta := svcchess.SessionMeta{Player: "alice"}
	state, err := deps.Service.Start(context.Background(), meta, "easy", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state.Difficulty != "easy" {
		t.Fatalf("unexpected difficulty %s", state.Difficulty)
	}
}

func TestNewWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	cfg := baseConfig()
	cfg.RedisURL = fmt.Sprintf("redis://%s/0", mr.Addr())

	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	if _, ok := deps.Cache.(*svcchess.RedisCache); !ok {
		t.Fatalf("expected redis cache, got %T", deps.Cache)
	}
	if _, err := deps.Service.Start(context.Background(), svcchess.SessionMeta{Player: "bob"}, "", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(mr.Keys()) == 0 {
		t.Fatalf("expected the session in redis")
	}
}

func TestNewRejectsBadRedis(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisURL = "http://not-redis"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for bad redis url")
	}
}
