package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/chessbuilder"
	appcfg "github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/httpapi"
	"github.com/park285/cheese-chess/internal/obslog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := obslog.InitFromEnv()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("chess init error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("closing dependencies", zap.Error(err))
		}
	}()

	srv := httpapi.NewServer(deps.Service, deps.Formatter, logger).HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("chess server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("default_difficulty", cfg.ChessDefaultDifficulty),
			zap.String("ai_color", cfg.ChessAIColor),
		)
		errCh <- srv.ListenAndServe(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("http server stopped", zap.Error(err))
		}
		return
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.ShutdownWithContext(sctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
