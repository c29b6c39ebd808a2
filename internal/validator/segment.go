package validator

import (
	"context"
	"fmt"

	"github.com/iconidentify/hlscheck/internal/domain"
)

// Segment is a media node of the validation tree. It is valid when its
// bytes decode to at least one frame and the first frame is a keyframe.
type Segment struct {
	resource
}

func newSegment(url string, env *environment) *Segment {
	return &Segment{resource: resource{url: url, env: env}}
}

// Validate downloads the segment and checks its keyframe flags.
func (s *Segment) Validate(ctx context.Context) (err error) {
	s.env.enter(s.url)
	defer func() {
		s.cleanup()
		s.env.leave(s.url, domain.KindSegment, err)
	}()

	local, derr := s.download(ctx)
	if derr != nil {
		return domain.ErrDownloadFailed
	}

	flags, ierr := s.env.inspector.KeyframeFlags(ctx, local)
	if ierr != nil {
		// Tool failure, not a content verdict.
		reason := fmt.Errorf("%w: %v", domain.ErrInspectionFailed, ierr)
		s.env.reporter.Negative(reason.Error())
		return domain.NewResourceError(s.url, "inspect", reason)
	}

	return s.verdict(flags)
}

// verdict applies the keyframe policy, in this exact order: no frames,
// no keyframes at all, keyframe present but not first, valid.
func (s *Segment) verdict(flags []bool) error {
	switch {
	case len(flags) == 0:
		s.env.reporter.Negative(domain.ErrNoFrames.Error())
		return domain.ErrNoFrames
	case !anyKeyframe(flags):
		s.env.reporter.Negative(domain.ErrNoKeyframes.Error())
		return domain.ErrNoKeyframes
	case !flags[0]:
		s.env.reporter.Negative(domain.ErrKeyframeNotFirst.Error())
		return domain.ErrKeyframeNotFirst
	}

	s.env.reporter.Positive("keyframe is first frame")
	return nil
}

func anyKeyframe(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
