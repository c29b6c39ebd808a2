package downloader

import (
	"context"
)

// Downloader fetches remote resources to local files.
type Downloader interface {
	// Fetch downloads url into the file at dest, creating or truncating it.
	// Returns the number of bytes written.
	Fetch(ctx context.Context, url, dest string) (int64, error)

	// Check verifies the downloader is usable at all. It is called once
	// before any URL is touched and must not hit the network.
	Check(ctx context.Context) error
}
