package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/hlscheck/internal/api"
	"github.com/iconidentify/hlscheck/internal/api/handler"
	"github.com/iconidentify/hlscheck/internal/config"
	"github.com/iconidentify/hlscheck/internal/history"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("hlscheck-server %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting hlscheck-server",
		"version", Version,
		"build_time", BuildTime,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Error("failed to open history store", "path", cfg.History.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	router := api.NewRouter(
		handler.NewHealthHandler(store),
		handler.NewRunsHandler(store),
		logger,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: hlscheck-server [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Serves recorded validation runs from the history store over HTTP.\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}
