package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iconidentify/hlscheck/internal/config"
	"github.com/iconidentify/hlscheck/internal/domain"
	"github.com/iconidentify/hlscheck/internal/downloader"
	"github.com/iconidentify/hlscheck/internal/history"
	"github.com/iconidentify/hlscheck/internal/inspector"
	"github.com/iconidentify/hlscheck/internal/report"
	"github.com/iconidentify/hlscheck/internal/validator"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("hlscheck %s (built %s)\n", Version, BuildTime)
		return 0
	}

	// Reporter output owns stdout; diagnostics go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one playlist URL is required")
		flag.Usage()
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()

	dl := downloader.NewHTTPDownloader(cfg.Download)
	insp := inspector.NewFFProbe(cfg.Inspector)
	rep := report.New(os.Stdout)

	result, err := validator.NewValidationRun(dl, insp, rep, cfg.Storage).Run(ctx, urls)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.History.Enabled {
		saveHistory(ctx, cfg.History.Path, result, logger)
	}

	if result.OK {
		fmt.Println("validation passed")
		return 0
	}

	invalid := 0
	for _, res := range result.Resources {
		if !res.Valid() {
			invalid++
		}
	}
	fmt.Printf("validation failed (%d of %d resources invalid)\n", invalid, len(result.Resources))
	return 1
}

// saveHistory records the run verdicts. History trouble is logged but never
// changes the validation exit code.
func saveHistory(ctx context.Context, path string, result domain.Run, logger *slog.Logger) {
	store, err := history.Open(path)
	if err != nil {
		logger.Error("open history store", "error", err)
		return
	}
	defer store.Close()

	if err := store.SaveRun(ctx, result); err != nil {
		logger.Error("save run history", "run_id", result.ID, "error", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: hlscheck [flags] URL [URL...]\n\n")
	fmt.Fprintf(os.Stderr, "Recursively validates HLS playlists: every referenced playlist and\n")
	fmt.Fprintf(os.Stderr, "segment must be reachable and every segment must start with a keyframe.\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}
