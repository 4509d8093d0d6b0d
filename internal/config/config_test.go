package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/cheese-chess/internal/chess"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHESS_CONFIG_FILE", "HTTP_ADDR", "REDIS_URL", "DATABASE_URL",
		"CHESS_DEFAULT_DIFFICULTY", "CHESS_AI_COLOR", "CHESS_SESSION_TTL",
		"CHESS_MOVE_TIMEOUT", "CHESS_HISTORY_LIMIT", "CHESS_SEED", "MESSAGES_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.ChessDefaultDifficulty != chess.DifficultyMedium || cfg.ChessSessionTTL != time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ChessSeed != nil {
		t.Fatalf("seed should be unset, got %d", *cfg.ChessSeed)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "chess.yaml")
	body := `http_addr: ":9000"
default_difficulty: hard
session_ttl: 30m
seed: 7
presets:
  easy:
    depth: 1
    random_move_rate: 0.5
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHESS_CONFIG_FILE", path)
	t.Setenv("CHESS_SESSION_TTL", "120")
	t.Setenv("CHESS_AI_COLOR", "white")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" || cfg.ChessDefaultDifficulty != "hard" || cfg.ChessAIColor != "white" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ChessSessionTTL != 2*time.Minute {
		t.Fatalf("env should override file TTL, got %s", cfg.ChessSessionTTL)
	}
	if cfg.ChessSeed == nil || *cfg.ChessSeed != 7 {
		t.Fatalf("seed not loaded: %v", cfg.ChessSeed)
	}
	easy, ok := cfg.Presets["easy"]
	if !ok || easy.Depth == nil || *easy.Depth != 1 || easy.RandomMoveRate == nil || *easy.RandomMoveRate != 0.5 {
		t.Fatalf("preset override not loaded: %+v", cfg.Presets)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"difficulty": {"CHESS_DEFAULT_DIFFICULTY", "impossible"},
		"color":      {"CHESS_AI_COLOR", "purple"},
		"ttl":        {"CHESS_SESSION_TTL", "soon"},
		"seed":       {"CHESS_SEED", "abc"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}
