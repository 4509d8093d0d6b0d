package chessbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/adapter/chesspresenter"
	corechess "github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/msgcat"
	svcchess "github.com/park285/cheese-chess/internal/service/chess"
)

const (
	redisKeyPrefix = "cheese:"
	connectTimeout = 5 * time.Second
)

type Deps struct {
	Service   *svcchess.Service
	Engine    *corechess.Engine
	Cache     svcchess.Cache
	Repo      svcchess.Repository
	Formatter *chesspresenter.Formatter

	closers []func() error
}

// New wires the chess service from configuration. Redis and Postgres are
// optional; without them sessions and the archive live in process memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{}

	if len(cfg.Presets) > 0 {
		if err := corechess.SetPresetOverrides(cfg.Presets); err != nil {
			return nil, fmt.Errorf("preset overrides: %w", err)
		}
		logger.Info("chess preset overrides applied", zap.Strings("presets", corechess.PresetNames()))
	}

	if cfg.ChessSeed != nil {
		deps.Engine = corechess.NewSeededEngine(*cfg.ChessSeed)
		logger.Info("chess engine seeded", zap.Int64("seed", *cfg.ChessSeed))
	} else {
		deps.Engine = corechess.NewEngine()
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		rc, err := svcchess.NewRedisCacheFromURL(cctx, cfg.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		deps.Cache = rc
		deps.closers = append(deps.closers, rc.Close)
	} else {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		deps.Cache = svcchess.NewMemoryCache()
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, db.Close)
		deps.Repo = svcchess.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, game archive is kept in memory")
		deps.Repo = svcchess.NewMemoryRepository()
	}

	aiColor, err := engine.ParseColor(cfg.ChessAIColor)
	if err != nil {
		deps.Close()
		return nil, err
	}
	svcCfg := svcchess.Config{
		DefaultDifficulty: cfg.ChessDefaultDifficulty,
		DefaultAIColor:    aiColor,
		SessionTTL:        cfg.ChessSessionTTL,
		HistoryLimit:      cfg.ChessHistoryLimit,
		MoveTimeout:       cfg.ChessMoveTimeout,
	}
	service, err := svcchess.NewService(deps.Engine, deps.Cache, deps.Repo, svcchess.NewPNGBoardRenderer(), svcCfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Service = service

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}
	deps.Formatter = chesspresenter.NewFormatter(cat)
	return deps, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := svcchess.EnsureSchema(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// Close releases external connections in reverse order of creation.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
