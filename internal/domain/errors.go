package domain

import "errors"

// Domain errors.
var (
	// ErrDownloadFailed is returned when a resource cannot be fetched.
	ErrDownloadFailed = errors.New("download failed")

	// ErrNoURLs is returned when a playlist contains no child references.
	ErrNoURLs = errors.New("no URLs found in playlist")

	// ErrNoFrames is returned when a segment decodes to zero frames.
	ErrNoFrames = errors.New("no frames found")

	// ErrNoKeyframes is returned when no decoded frame is a keyframe.
	ErrNoKeyframes = errors.New("no keyframes found in any frame")

	// ErrKeyframeNotFirst is returned when a keyframe exists but is not the first frame.
	ErrKeyframeNotFirst = errors.New("keyframe is not the first frame")

	// ErrChildInvalid is returned by a manifest when one or more children
	// failed. The child already reported its own reason; ancestors carry
	// only this marker and never repeat the reason.
	ErrChildInvalid = errors.New("error in child resource")

	// ErrInspectionFailed is returned when the frame-inspection tool itself
	// fails, as opposed to the content being bad.
	ErrInspectionFailed = errors.New("keyframe analysis failed")

	// ErrMissingDependency is returned when a required external tool cannot
	// be invoked. Fatal to the whole run; no URL is touched.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrUsage is returned for a bad invocation (no URLs given).
	ErrUsage = errors.New("no playlist URLs given")

	// ErrRunNotFound is returned when a recorded run cannot be found.
	ErrRunNotFound = errors.New("run not found")
)

// ResourceError wraps an error with the URL and operation it occurred on.
type ResourceError struct {
	URL string
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError.
func NewResourceError(url, op string, err error) *ResourceError {
	return &ResourceError{
		URL: url,
		Op:  op,
		Err: err,
	}
}
