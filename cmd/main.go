/*
Package main is the entry point for the Parlor chat server.

It is responsible for loading configuration, initializing the global logging system,
connecting to PostgreSQL and applying migrations, bootstrapping the chat engine and
its DM-room sweeper, setting up the HTTP server, and gracefully handling operating
system interrupt signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parlor/internal/app/chat"
	"parlor/internal/app/moderation"
	"parlor/internal/app/store"
	"parlor/internal/configs"
	"parlor/internal/handler"
	"parlor/internal/pkg/logx"
	"parlor/internal/pkg/pow"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("dm_idle_timeout", cfg.DMIdleTimeout).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL and apply migrations
	pool, err := store.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	repo := store.New(pool)

	censor, err := moderation.NewCensor(cfg.CensoredWords)
	if err != nil {
		logx.Fatal(err, "Failed to build moderation censor")
	}

	// Initialize chat engine and seed public rooms with recent history
	svc := chat.NewService(repo, repo, censor)
	svc.BootstrapRooms(ctx)

	sweeper := chat.NewSweeper(svc, cfg.SweepInterval, cfg.DMIdleTimeout)
	go sweeper.Run(ctx)

	powManager := pow.NewPoWManager(cfg.PowDifficulty)

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Chat:   svc,
		Config: cfg,
		Store:  repo,
		Pow:    powManager,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Parlor Chat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	svc.Close()

	logx.Info("Server gracefully stopped.")
}
