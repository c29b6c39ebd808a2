package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/iconidentify/hlscheck/internal/config"
)

// HTTPDownloader implements Downloader using HTTP requests.
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPDownloader creates a new HTTP-based resource downloader.
func NewHTTPDownloader(cfg config.DownloadConfig) *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for download diagnostics.
func (d *HTTPDownloader) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Fetch downloads url into the file at dest.
func (d *HTTPDownloader) Fetch(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(dest)
		return 0, fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}

	d.logger.Debug("fetched resource",
		"url", url,
		"bytes", n,
	)

	return n, nil
}

// Check verifies the downloader is usable. The HTTP client lives
// in-process, so a misconfigured client is the only failure mode.
func (d *HTTPDownloader) Check(ctx context.Context) error {
	if d.client == nil {
		return fmt.Errorf("http client not configured")
	}
	return nil
}
