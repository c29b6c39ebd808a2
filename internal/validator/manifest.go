package validator

import (
	"context"
	"os"
	"strings"

	"github.com/iconidentify/hlscheck/internal/domain"
)

const (
	segmentSuffix  = ".ts"
	manifestSuffix = ".m3u8"
)

// Manifest is a playlist node of the validation tree. Children are
// discovered by parsing the downloaded playlist text and are validated
// as fresh value objects per call; the same URL reached twice is
// re-downloaded and re-validated.
type Manifest struct {
	resource
	manifestURLs []string
	segmentURLs  []string
}

func newManifest(url string, env *environment) *Manifest {
	return &Manifest{resource: resource{url: url, env: env}}
}

// Validate downloads and parses the playlist, then validates every child.
// A failing child is recorded but never stops iteration over its siblings;
// the manifest itself then fails with a generic child-failure marker, since
// the child already reported its own reason.
func (m *Manifest) Validate(ctx context.Context) (err error) {
	m.env.enter(m.url)
	defer func() {
		m.cleanup()
		m.env.leave(m.url, domain.KindManifest, err)
	}()

	local, derr := m.download(ctx)
	if derr != nil {
		return domain.ErrDownloadFailed
	}

	data, rerr := os.ReadFile(local)
	if rerr != nil {
		m.env.reporter.Negative(domain.ErrDownloadFailed.Error())
		return domain.ErrDownloadFailed
	}

	m.parse(string(data))

	if len(m.manifestURLs) == 0 && len(m.segmentURLs) == 0 {
		m.env.reporter.Negative(domain.ErrNoURLs.Error())
		return domain.ErrNoURLs
	}

	childFailed := false
	for _, u := range m.manifestURLs {
		if cerr := newManifest(u, m.env).Validate(ctx); cerr != nil {
			childFailed = true
		}
	}
	for _, u := range m.segmentURLs {
		if cerr := newSegment(u, m.env).Validate(ctx); cerr != nil {
			childFailed = true
		}
	}

	if childFailed {
		return domain.ErrChildInvalid
	}
	return nil
}

// parse classifies playlist lines by suffix. Lines ending in .ts are
// segment references, lines ending in .m3u8 are manifest references,
// everything else (tags, comments) is ignored. Source order is preserved
// per list.
func (m *Manifest) parse(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasSuffix(line, segmentSuffix):
			m.segmentURLs = append(m.segmentURLs, m.resolveChildURL(line))
		case strings.HasSuffix(line, manifestSuffix):
			m.manifestURLs = append(m.manifestURLs, m.resolveChildURL(line))
		}
	}
}
