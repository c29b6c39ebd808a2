// Package inspector answers the one question the validator asks of media
// content: which decoded frames are keyframes, in native frame order.
package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/iconidentify/hlscheck/internal/config"
)

// FrameInspector reports per-frame keyframe flags for a local media file.
type FrameInspector interface {
	// KeyframeFlags returns one flag per decoded video frame, in the
	// file's native frame order.
	KeyframeFlags(ctx context.Context, path string) ([]bool, error)

	// Check verifies the inspection tool is invocable at all. It is
	// called once before any URL is touched.
	Check(ctx context.Context) error
}

// FFProbe implements FrameInspector by invoking ffprobe.
type FFProbe struct {
	path    string
	timeout time.Duration
}

// NewFFProbe creates an ffprobe-backed inspector. The binary is resolved
// lazily so that Check can report a missing tool instead of construction
// failing.
func NewFFProbe(cfg config.InspectorConfig) *FFProbe {
	path := cfg.FFProbePath
	if path == "" {
		path = "ffprobe"
	}
	return &FFProbe{
		path:    path,
		timeout: cfg.Timeout,
	}
}

// Check resolves the ffprobe binary and runs a trivial invocation.
func (p *FFProbe) Check(ctx context.Context) error {
	resolved, err := exec.LookPath(p.path)
	if err != nil {
		return fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, resolved, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffprobe not invocable: %w", err)
	}

	p.path = resolved
	return nil
}

// KeyframeFlags runs ffprobe over the file's video stream and parses the
// per-frame key_frame field.
func (p *FFProbe) KeyframeFlags(ctx context.Context, path string) ([]bool, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.path,
		"-v", "quiet",
		"-select_streams", "v",
		"-show_frames",
		"-show_entries", "frame=key_frame",
		"-print_format", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	return parseKeyframeFlags(output)
}

// parseKeyframeFlags extracts the ordered key_frame flags from ffprobe
// JSON output.
func parseKeyframeFlags(output []byte) ([]bool, error) {
	type ffprobeFrame struct {
		KeyFrame int `json:"key_frame"`
	}
	type ffprobeOutput struct {
		Frames []ffprobeFrame `json:"frames"`
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	flags := make([]bool, 0, len(parsed.Frames))
	for _, f := range parsed.Frames {
		flags = append(flags, f.KeyFrame == 1)
	}
	return flags, nil
}
