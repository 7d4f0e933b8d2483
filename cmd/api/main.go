package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage", cfg.StorageBackend,
		"sessions", cfg.SessionBackend(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.BuildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := newServer(cfg, app.Handler)

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newServer sizes write timeouts for chat turns, which wait on the model.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	writeTimeout := 15 * time.Second
	if turn := 2*cfg.LLMTimeout*time.Duration(cfg.LLMMaxRetries+1) + 5*time.Second; turn > writeTimeout {
		writeTimeout = turn
	}
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
