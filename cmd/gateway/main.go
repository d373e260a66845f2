package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/httpapi"
	"github.com/orderdesk/message-gateway/internal/metrics"
	"github.com/orderdesk/message-gateway/internal/provider"
	"github.com/orderdesk/message-gateway/internal/store"
	"github.com/orderdesk/message-gateway/internal/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if !cfg.Valid() {
		logger.Warn("no provider fully configured; dispatch requests will be rejected")
	}

	rootCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ---- DB ----
	pool, err := pgxpool.New(rootCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(rootCtx); err != nil {
		logger.Error("db ping", "err", err)
		os.Exit(1)
	}

	st := store.New(pool)
	if err := st.Migrate(rootCtx); err != nil {
		logger.Error("migrate", "err", err)
		os.Exit(1)
	}

	// ---- Realtime listener ----
	listener := store.NewListener(pool, logger)
	go func() {
		if err := listener.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("listener exited", "err", err)
		}
	}()

	// ---- Pool metrics ----
	stop := make(chan struct{})
	defer close(stop)
	go metrics.NewPGXPoolStats(pool).Start(15*time.Second, stop)

	// ---- Provider collaborators ----
	deps := provider.Deps{
		Logger:  logger,
		Tokens:  token.NewManager(),
		Client:  provider.SharedHTTPClient(cfg.SendTimeout),
		Limiters: provider.NewLimiters(rate.Limit(cfg.ProviderQPS), cfg.ProviderBurst),
		Timeout: cfg.SendTimeout,
	}

	// ---- HTTP server ----
	srv := httpapi.NewServer(cfg, st, deps, logger)
	server := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "err", err)
			os.Exit(1)
		}
	}()

	// ---- Graceful shutdown ----
	<-rootCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
