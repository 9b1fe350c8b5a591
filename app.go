// app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"kitchenops/internal/api"
	"kitchenops/internal/auth"
	"kitchenops/internal/cleanup"
	"kitchenops/internal/config"
	"kitchenops/internal/data"
	"kitchenops/internal/logger"
	"kitchenops/internal/prep"
	"kitchenops/internal/realtime"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg           config.Config
	store         *data.Store
	broker        *realtime.Broker
	server        *http.Server
	connections   sync.WaitGroup
	totalRequests int64
}

// NewApp wires the store into every component and builds the HTTP server.
func NewApp(cfg config.Config, store *data.Store) *App {
	broker := realtime.NewBroker()

	a := &App{cfg: cfg, store: store, broker: broker}
	router := api.NewRouter(api.Deps{
		Store:     store,
		Broker:    broker,
		Generator: prep.NewGenerator(store, broker),
		Tasks:     prep.NewTaskService(store, broker),
		Guard:     auth.NewGuard(cfg.JWTSecret, store),
	}, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	// No WriteTimeout: SSE streams stay open. Other routes are bounded by the
	// router's timeout handler.
	a.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.trackConnections(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a
}

// Run serves until SIGINT/SIGTERM or ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.LogInfo("Starting server on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.LogInfo("Shutdown signal received")

		// Ends open event streams so Shutdown does not wait on them.
		a.broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		logger.LogInfo("Waiting for active connections to finish...")
		a.connections.Wait()
		logger.LogInfo("All connections closed. Total requests handled: %d", atomic.LoadInt64(&a.totalRequests))
		return nil
	})

	cleanup.StartCleanupRoutine(gctx, a.store, a.broker, a.cfg.RetentionDays)

	if err := g.Wait(); err != nil {
		logger.LogError("Server stopped with error: %v", err)
		return err
	}
	logger.LogInfo("Server shut down gracefully")
	return nil
}

// Middleware: track active connections and total requests
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		atomic.AddInt64(&a.totalRequests, 1)
		defer a.connections.Done()

		h.ServeHTTP(w, r)
	})
}
