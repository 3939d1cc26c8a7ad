package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/app"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/config"
	"github.com/jaminalder/tic-tac-toe-minimax/internal/web"
)

func main() {
	cfg, err := config.Setup(".env")
	if err != nil {
		NewLogger("info").Fatalw("failed to setup configuration", "error", err)
	}
	logger := NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	mode, err := app.ParseMode(cfg.DefaultMode)
	if err != nil {
		logger.Fatalw("bad default mode", "error", err)
	}

	svc := app.NewService(logger.Named("app"), cfg.ComputerDelay)
	handler := web.NewServer(svc, logger.Named("web"), web.Options{
		DefaultMode: mode,
		Heartbeat:   cfg.HeartbeatInterval,
		AccessLog:   true,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infow("starting server", "addr", cfg.Addr, "default_mode", mode, "computer_delay", cfg.ComputerDelay)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown", "error", err)
	}
}

// NewLogger builds a production logger at level, falling back to info.
func NewLogger(level string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}
