package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"deltaban/internal/banlist"
	"deltaban/internal/config"
	"deltaban/internal/engine"
	"deltaban/internal/httpapi"
	"deltaban/internal/store"
	"deltaban/internal/util"
)

func main() {
	// Optional .env for local development; a missing file is fine.
	_ = godotenv.Load()

	cfgPath := "config/deltaban.yaml"
	if p := os.Getenv("DELTABAN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Ban list is optional: without one, assessments still run but no stock
	// is flagged.
	var banned *banlist.List
	if cfg.BanList.Path != "" {
		banned, err = banlist.Load(cfg.BanList.Path)
		if err != nil {
			logger.Warn("ban list unavailable", "path", cfg.BanList.Path, "error", err)
		}
	}

	sessions, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening session store: %v", err)
	}
	defer sessions.Close()
	journal := store.NewParquetJournal(cfg.Storage.DataDir)

	eng := engine.New(cfg.Penalty.Params())
	srv := httpapi.NewServer(eng, sessions, journal, banned, logger)

	cal := util.NewTradingCalendar()
	logger.Info("deltaban-server starting",
		"marketOpen", cal.IsMarketOpen(time.Now()),
		"sessionDate", cal.SessionDate(time.Now()))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
