package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/engine"
)

type AppConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	ChessDefaultDifficulty string        `yaml:"default_difficulty"`
	ChessAIColor           string        `yaml:"ai_color"`
	ChessSessionTTL        time.Duration `yaml:"session_ttl"`
	ChessHistoryLimit      int           `yaml:"history_limit"`
	ChessMoveTimeout       time.Duration `yaml:"move_timeout"`
	// ChessSeed makes the computer's choices reproducible when set.
	ChessSeed *int64 `yaml:"seed"`

	MessagesDir string `yaml:"messages_dir"`

	Presets map[string]chess.PresetOverride `yaml:"presets"`
}

func defaults() *AppConfig {
	return &AppConfig{
		HTTPAddr:               ":8080",
		ChessDefaultDifficulty: chess.DefaultDifficulty,
		ChessAIColor:           "black",
		ChessSessionTTL:        time.Hour,
		ChessHistoryLimit:      10,
		ChessMoveTimeout:       10 * time.Second,
	}
}

// Load reads the optional YAML file named by CHESS_CONFIG_FILE and then
// applies environment overrides.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CHESS_CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		c.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_DEFAULT_DIFFICULTY")); v != "" {
		c.ChessDefaultDifficulty = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_AI_COLOR")); v != "" {
		c.ChessAIColor = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_SESSION_TTL")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESS_SESSION_TTL: %w", err)
		}
		c.ChessSessionTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_MOVE_TIMEOUT")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESS_MOVE_TIMEOUT: %w", err)
		}
		c.ChessMoveTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ChessHistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CHESS_SEED: %w", err)
		}
		c.ChessSeed = &n
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGES_DIR")); v != "" {
		c.MessagesDir = v
	}
	return nil
}

// parseDuration accepts Go durations ("90s", "1h") or a bare number of
// seconds.
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if _, err := chess.ParseDifficulty(c.ChessDefaultDifficulty); err != nil {
		return fmt.Errorf("default difficulty: %w", err)
	}
	if _, err := engine.ParseColor(c.ChessAIColor); err != nil {
		return fmt.Errorf("ai color: %w", err)
	}
	if c.ChessSessionTTL <= 0 {
		return errors.New("session TTL must be greater than 0")
	}
	if c.ChessMoveTimeout <= 0 {
		return errors.New("move timeout must be greater than 0")
	}
	return nil
}
