package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/hlscheck/internal/config"
	"github.com/iconidentify/hlscheck/internal/domain"
	"github.com/iconidentify/hlscheck/internal/downloader"
	"github.com/iconidentify/hlscheck/internal/inspector"
	"github.com/iconidentify/hlscheck/internal/report"
)

// ValidationRun validates a set of top-level playlist URLs, each as an
// independent subtree, and combines their verdicts.
type ValidationRun struct {
	downloader downloader.Downloader
	inspector  inspector.FrameInspector
	reporter   *report.Reporter
	tempRoot   string
}

// NewValidationRun creates a run over the given collaborators.
func NewValidationRun(dl downloader.Downloader, insp inspector.FrameInspector, rep *report.Reporter, storage config.StorageConfig) *ValidationRun {
	return &ValidationRun{
		downloader: dl,
		inspector:  insp,
		reporter:   rep,
		tempRoot:   storage.TempPath,
	}
}

// Run validates every URL in order. It fails fast on an empty URL list and
// on a missing external tool, before any URL is touched. One failing
// top-level playlist does not stop validation of the rest; the returned
// Run is OK iff no failure was reported anywhere in the traversal.
func (v *ValidationRun) Run(ctx context.Context, urls []string) (domain.Run, error) {
	if len(urls) == 0 {
		return domain.Run{}, domain.ErrUsage
	}

	if err := v.downloader.Check(ctx); err != nil {
		return domain.Run{}, fmt.Errorf("%w: %v", domain.ErrMissingDependency, err)
	}
	if err := v.inspector.Check(ctx); err != nil {
		return domain.Run{}, fmt.Errorf("%w: %v", domain.ErrMissingDependency, err)
	}

	env := &environment{
		downloader: v.downloader,
		inspector:  v.inspector,
		reporter:   v.reporter,
		tempRoot:   v.tempRoot,
	}

	run := domain.Run{
		ID:        domain.RunID(uuid.NewString()),
		URLs:      urls,
		StartedAt: time.Now().UTC(),
	}

	for _, url := range urls {
		// Verdict already recorded and reported by the subtree itself.
		_ = newManifest(url, env).Validate(ctx)
	}

	run.FinishedAt = time.Now().UTC()
	run.OK = !v.reporter.HasFailures()
	run.Resources = env.results

	return run, nil
}
