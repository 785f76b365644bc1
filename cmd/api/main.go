package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iam-hussain/peacock-app-sub002/internal/cache"
	"github.com/iam-hussain/peacock-app-sub002/internal/config"
	"github.com/iam-hussain/peacock-app-sub002/internal/handler"
	"github.com/iam-hussain/peacock-app-sub002/internal/logging"
	"github.com/iam-hussain/peacock-app-sub002/internal/middleware"
	"github.com/iam-hussain/peacock-app-sub002/internal/recalc"
	"github.com/iam-hussain/peacock-app-sub002/internal/repository"
	"github.com/iam-hussain/peacock-app-sub002/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("peacock-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store := repository.NewStore(db)
	lock := cache.NewRecalcLock(rdb, time.Duration(cfg.RecalcLockTTLS)*time.Second)
	invalidator := cache.NewInvalidator(rdb)
	orchestrator := recalc.New(store, lock, invalidator, cfg)

	txService := service.NewTransactionService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		orchestrator,
	)

	healthHandler := handler.NewHealthHandler(db, rdb)
	txHandler := handler.NewTransactionHandler(txService)
	recalcHandler := handler.NewRecalcHandler(orchestrator)

	authn := middleware.Auth(cfg.JWTSecret)
	admin := func(h http.HandlerFunc) http.Handler {
		return authn(middleware.RequireAdmin(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("POST /api/v1/transactions", admin(txHandler.Create))
	mux.Handle("DELETE /api/v1/transactions/{id}", admin(txHandler.Delete))
	mux.Handle("POST /api/v1/recalculate", admin(recalcHandler.Recalculate))
	mux.Handle("POST /api/v1/recalculate/summary", admin(recalcHandler.RebuildSummaries))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
