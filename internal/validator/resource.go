// Package validator implements the recursive HLS validation engine: a
// manifest is a tree of child manifests and media segments, every node is
// validated depth-first, and a failing child never stops its siblings.
package validator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iconidentify/hlscheck/internal/domain"
	"github.com/iconidentify/hlscheck/internal/downloader"
	"github.com/iconidentify/hlscheck/internal/inspector"
	"github.com/iconidentify/hlscheck/internal/report"
)

// environment bundles the collaborators shared by every node of one
// validation run, plus the verdict trail collected along the way. It is
// threaded explicitly through the traversal; nothing here is global.
type environment struct {
	downloader downloader.Downloader
	inspector  inspector.FrameInspector
	reporter   *report.Reporter
	tempRoot   string

	depth   int
	results []domain.ResourceResult
}

// enter announces a node and descends one level.
func (e *environment) enter(url string) {
	e.reporter.Start(url)
	e.depth++
}

// leave ascends, announces the node's verdict and records it.
func (e *environment) leave(url string, kind domain.ResourceKind, err error) {
	e.depth--
	if err == nil {
		e.reporter.Success()
		e.record(url, kind, domain.VerdictValid, "")
		return
	}
	e.reporter.Failure()
	e.record(url, kind, domain.VerdictInvalid, failureReason(err))
}

// failureReason strips the URL/op context a ResourceError carries; the
// trail already records both as columns.
func failureReason(err error) string {
	var rerr *domain.ResourceError
	if errors.As(err, &rerr) {
		return rerr.Err.Error()
	}
	return err.Error()
}

func (e *environment) record(url string, kind domain.ResourceKind, verdict domain.Verdict, reason string) {
	e.results = append(e.results, domain.ResourceResult{
		Sequence: len(e.results),
		URL:      url,
		Kind:     kind,
		Depth:    e.depth,
		Verdict:  verdict,
		Reason:   reason,
	})
}

// resource is the identity and workspace shared by manifest and segment
// nodes. Each node owns a private scratch directory that exists only for
// the duration of its validation.
type resource struct {
	url     string
	env     *environment
	workdir string
}

// resolveChildURL resolves a playlist line against this resource's URL.
// References that already carry a scheme are returned unchanged; everything
// else is joined onto the parent directory of this resource's URL. This is
// a string-level join, not a filesystem path operation.
func (r *resource) resolveChildURL(ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	idx := strings.LastIndex(r.url, "/")
	if idx < 0 {
		return ref
	}
	return r.url[:idx+1] + ref
}

// download stages this resource's URL into its private workspace and
// returns the local path. Calling twice re-fetches. On failure it emits
// the negative report message before returning.
func (r *resource) download(ctx context.Context) (string, error) {
	if r.workdir == "" {
		dir := filepath.Join(r.env.tempRoot, "hlscheck-"+uuid.NewString())
		if err := os.MkdirAll(dir, 0755); err != nil {
			r.env.reporter.Negative(domain.ErrDownloadFailed.Error())
			return "", domain.NewResourceError(r.url, "workspace", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err))
		}
		r.workdir = dir
	}

	dest := filepath.Join(r.workdir, localName(r.url))
	if _, err := r.env.downloader.Fetch(ctx, r.url, dest); err != nil {
		r.env.reporter.Negative(domain.ErrDownloadFailed.Error())
		return "", domain.NewResourceError(r.url, "fetch", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err))
	}
	return dest, nil
}

// cleanup disposes the scratch workspace, best effort.
func (r *resource) cleanup() {
	if r.workdir != "" {
		os.RemoveAll(r.workdir)
		r.workdir = ""
	}
}

// localName picks a workspace filename for a URL.
func localName(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	name := path.Base(trimmed)
	if name == "" || name == "." || name == "/" || strings.Contains(name, "://") {
		return "resource"
	}
	return name
}
