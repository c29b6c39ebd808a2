package validator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/iconidentify/hlscheck/internal/domain"
	"github.com/iconidentify/hlscheck/internal/report"
)

// fakeDownloader serves canned bodies keyed by URL and records every fetch.
type fakeDownloader struct {
	content  map[string]string
	fail     map[string]bool
	checkErr error
	fetches  []string
}

func (f *fakeDownloader) Fetch(ctx context.Context, url, dest string) (int64, error) {
	f.fetches = append(f.fetches, url)
	if f.fail[url] {
		return 0, errors.New("connection refused")
	}
	body, ok := f.content[url]
	if !ok {
		return 0, errors.New("not found")
	}
	if err := os.WriteFile(dest, []byte(body), 0644); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

func (f *fakeDownloader) Check(ctx context.Context) error {
	return f.checkErr
}

// fakeInspector returns canned keyframe flags keyed by file content, which
// the fake downloader stages verbatim.
type fakeInspector struct {
	flags    map[string][]bool
	err      error
	checkErr error
	calls    int
}

func (f *fakeInspector) KeyframeFlags(ctx context.Context, path string) ([]bool, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return f.flags[string(data)], nil
}

func (f *fakeInspector) Check(ctx context.Context) error {
	return f.checkErr
}

func newTestEnv(t *testing.T, dl *fakeDownloader, insp *fakeInspector, buf *bytes.Buffer) *environment {
	t.Helper()
	return &environment{
		downloader: dl,
		inspector:  insp,
		reporter:   report.New(buf),
		tempRoot:   t.TempDir(),
	}
}

func TestResource_ResolveChildURL(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		ref    string
		want   string
	}{
		{
			"relative against parent directory",
			"http://host/a/b/playlist.m3u8",
			"variant.m3u8",
			"http://host/a/b/variant.m3u8",
		},
		{
			"absolute passes through",
			"http://host/a/b/playlist.m3u8",
			"http://other/x.ts",
			"http://other/x.ts",
		},
		{
			"relative segment",
			"http://host/stream/index.m3u8",
			"seg001.ts",
			"http://host/stream/seg001.ts",
		},
		{
			"nested relative path",
			"http://host/live/master.m3u8",
			"720p/index.m3u8",
			"http://host/live/720p/index.m3u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &resource{url: tt.parent}
			if got := r.resolveChildURL(tt.ref); got != tt.want {
				t.Errorf("resolveChildURL(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResource_Download_WrapsResourceError(t *testing.T) {
	var buf bytes.Buffer
	dl := &fakeDownloader{fail: map[string]bool{"http://host/gone.ts": true}}
	env := newTestEnv(t, dl, &fakeInspector{}, &buf)
	r := &resource{url: "http://host/gone.ts", env: env}
	defer r.cleanup()

	_, err := r.download(context.Background())

	var rerr *domain.ResourceError
	if !errors.As(err, &rerr) {
		t.Fatalf("download() = %v, want a ResourceError", err)
	}
	if rerr.URL != "http://host/gone.ts" {
		t.Errorf("ResourceError.URL = %q, want the resource URL", rerr.URL)
	}
	if rerr.Op != "fetch" {
		t.Errorf("ResourceError.Op = %q, want %q", rerr.Op, "fetch")
	}
	if !errors.Is(err, domain.ErrDownloadFailed) {
		t.Error("wrapped error should still match ErrDownloadFailed")
	}
}

func TestManifest_Parse(t *testing.T) {
	m := newManifest("http://host/stream/master.m3u8", &environment{})

	m.parse("#EXTM3U\n#EXT-X-VERSION:3\n  low/index.m3u8  \nhigh/index.m3u8\n#EXTINF:4,\nseg1.ts\nseg2.ts\n# a comment\n")

	wantManifests := []string{
		"http://host/stream/low/index.m3u8",
		"http://host/stream/high/index.m3u8",
	}
	wantSegments := []string{
		"http://host/stream/seg1.ts",
		"http://host/stream/seg2.ts",
	}

	if len(m.manifestURLs) != len(wantManifests) {
		t.Fatalf("got %d manifest URLs, want %d", len(m.manifestURLs), len(wantManifests))
	}
	for i, w := range wantManifests {
		if m.manifestURLs[i] != w {
			t.Errorf("manifestURLs[%d] = %q, want %q", i, m.manifestURLs[i], w)
		}
	}
	if len(m.segmentURLs) != len(wantSegments) {
		t.Fatalf("got %d segment URLs, want %d", len(m.segmentURLs), len(wantSegments))
	}
	for i, w := range wantSegments {
		if m.segmentURLs[i] != w {
			t.Errorf("segmentURLs[%d] = %q, want %q", i, m.segmentURLs[i], w)
		}
	}
}

func TestManifest_Validate_NoURLs(t *testing.T) {
	var buf bytes.Buffer
	dl := &fakeDownloader{content: map[string]string{
		"http://host/empty.m3u8": "#EXTM3U\n#EXT-X-ENDLIST\n",
	}}
	env := newTestEnv(t, dl, &fakeInspector{}, &buf)

	err := newManifest("http://host/empty.m3u8", env).Validate(context.Background())

	if !errors.Is(err, domain.ErrNoURLs) {
		t.Errorf("Validate() = %v, want ErrNoURLs", err)
	}
	if !env.reporter.HasFailures() {
		t.Error("failure flag should be set")
	}
	if !strings.Contains(buf.String(), "no URLs found in playlist") {
		t.Errorf("output should name the empty-playlist reason, got %q", buf.String())
	}
}

func TestManifest_Validate_DownloadFailed(t *testing.T) {
	var buf bytes.Buffer
	dl := &fakeDownloader{fail: map[string]bool{"http://host/gone.m3u8": true}}
	env := newTestEnv(t, dl, &fakeInspector{}, &buf)

	err := newManifest("http://host/gone.m3u8", env).Validate(context.Background())

	if !errors.Is(err, domain.ErrDownloadFailed) {
		t.Errorf("Validate() = %v, want ErrDownloadFailed", err)
	}
	if !strings.Contains(buf.String(), "download failed") {
		t.Errorf("output should report the download failure, got %q", buf.String())
	}
}

func TestManifest_Validate_SiblingContainment(t *testing.T) {
	var buf bytes.Buffer
	dl := &fakeDownloader{
		content: map[string]string{
			"http://host/media.m3u8": "#EXTM3U\nseg1.ts\nseg2.ts\nseg3.ts\n",
			"http://host/seg1.ts":    "seg1",
			"http://host/seg3.ts":    "seg3",
		},
		fail: map[string]bool{"http://host/seg2.ts": true},
	}
	insp := &fakeInspector{flags: map[string][]bool{
		"seg1": {true, false},
		"seg3": {true, false},
	}}
	env := newTestEnv(t, dl, insp, &buf)

	err := newManifest("http://host/media.m3u8", env).Validate(context.Background())

	if !errors.Is(err, domain.ErrChildInvalid) {
		t.Errorf("Validate() = %v, want ErrChildInvalid", err)
	}

	// seg3 must still be visited after seg2 failed.
	if insp.calls != 2 {
		t.Errorf("inspector calls = %d, want 2 (failing sibling must not stop iteration)", insp.calls)
	}
	wantFetches := []string{
		"http://host/media.m3u8",
		"http://host/seg1.ts",
		"http://host/seg2.ts",
		"http://host/seg3.ts",
	}
	if len(dl.fetches) != len(wantFetches) {
		t.Fatalf("fetches = %v, want %v", dl.fetches, wantFetches)
	}
	for i, w := range wantFetches {
		if dl.fetches[i] != w {
			t.Errorf("fetches[%d] = %q, want %q", i, dl.fetches[i], w)
		}
	}
	if !env.reporter.HasFailures() {
		t.Error("cumulative failure flag should be set")
	}
}

func TestManifest_Validate_ChildReasonNotRepeated(t *testing.T) {
	var buf bytes.Buffer
	dl := &fakeDownloader{
		content: map[string]string{
			"http://host/media.m3u8": "#EXTM3U\nseg1.ts\n",
		},
		fail: map[string]bool{"http://host/seg1.ts": true},
	}
	env := newTestEnv(t, dl, &fakeInspector{}, &buf)

	_ = newManifest("http://host/media.m3u8", env).Validate(context.Background())

	if got := strings.Count(buf.String(), "download failed"); got != 1 {
		t.Errorf("child reason printed %d times, want exactly 1\noutput:\n%s", got, buf.String())
	}
}

func TestSegment_Verdict(t *testing.T) {
	tests := []struct {
		name    string
		flags   []bool
		wantErr error
	}{
		{"no frames", []bool{}, domain.ErrNoFrames},
		{"no keyframes", []bool{false, false}, domain.ErrNoKeyframes},
		{"keyframe not first", []bool{false, true}, domain.ErrKeyframeNotFirst},
		{"keyframe first", []bool{true, false}, nil},
		{"single keyframe", []bool{true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			env := newTestEnv(t, &fakeDownloader{}, &fakeInspector{}, &buf)
			s := newSegment("http://host/seg.ts", env)

			err := s.verdict(tt.flags)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("verdict() = %v, want nil", err)
				}
				if !strings.Contains(buf.String(), "keyframe is first frame") {
					t.Errorf("valid segment should report the positive message, got %q", buf.String())
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("verdict() = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(buf.String(), tt.wantErr.Error()) {
				t.Errorf("output should contain %q, got %q", tt.wantErr.Error(), buf.String())
			}
		})
	}
}

func TestSegment_Validate_InspectionFailure(t *testing.T) {
	var buf bytes.Buffer
	dl := &fakeDownloader{content: map[string]string{"http://host/seg.ts": "bytes"}}
	insp := &fakeInspector{err: errors.New("exit status 1")}
	env := newTestEnv(t, dl, insp, &buf)

	err := newSegment("http://host/seg.ts", env).Validate(context.Background())

	if !errors.Is(err, domain.ErrInspectionFailed) {
		t.Errorf("Validate() = %v, want ErrInspectionFailed", err)
	}
	var rerr *domain.ResourceError
	if !errors.As(err, &rerr) {
		t.Fatalf("Validate() = %v, want a ResourceError", err)
	}
	if rerr.URL != "http://host/seg.ts" || rerr.Op != "inspect" {
		t.Errorf("ResourceError = %+v, want inspect on the segment URL", rerr)
	}
	if !strings.Contains(buf.String(), "keyframe analysis failed: exit status 1") {
		t.Errorf("output should carry the tool failure cause, got %q", buf.String())
	}

	// The verdict trail keeps the plain reason; URL and op are columns
	// of their own.
	if len(env.results) != 1 {
		t.Fatalf("recorded %d resources, want 1", len(env.results))
	}
	if got := env.results[0].Reason; got != "keyframe analysis failed: exit status 1" {
		t.Errorf("recorded reason = %q, want the plain inspection failure", got)
	}
}

func TestSegment_Validate_CleansWorkspace(t *testing.T) {
	var buf bytes.Buffer
	dl := &fakeDownloader{content: map[string]string{"http://host/seg.ts": "seg"}}
	insp := &fakeInspector{flags: map[string][]bool{"seg": {true}}}
	env := newTestEnv(t, dl, insp, &buf)

	if err := newSegment("http://host/seg.ts", env).Validate(context.Background()); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	entries, err := os.ReadDir(env.tempRoot)
	if err != nil {
		t.Fatalf("read temp root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("workspace not disposed, %d entries left", len(entries))
	}
}
