package domain

import (
	"time"
)

// RunID is a unique identifier for one validation run.
type RunID string

// String returns the string representation of the RunID.
func (id RunID) String() string {
	return string(id)
}

// ResourceKind distinguishes the two node types of the validation tree.
type ResourceKind string

const (
	KindManifest ResourceKind = "manifest"
	KindSegment  ResourceKind = "segment"
)

// Verdict is the outcome of validating a single resource.
type Verdict string

const (
	VerdictValid   Verdict = "valid"
	VerdictInvalid Verdict = "invalid"
)

// ResourceResult records the verdict for one visited resource.
// Sequence preserves depth-first visit order within the run.
type ResourceResult struct {
	Sequence int          `json:"sequence"`
	URL      string       `json:"url"`
	Kind     ResourceKind `json:"kind"`
	Depth    int          `json:"depth"`
	Verdict  Verdict      `json:"verdict"`
	Reason   string       `json:"reason,omitempty"`
}

// Valid reports whether the resource passed validation.
func (r ResourceResult) Valid() bool {
	return r.Verdict == VerdictValid
}

// Run represents one completed validation run over a set of playlist URLs.
type Run struct {
	ID         RunID            `json:"id"`
	URLs       []string         `json:"urls"`
	OK         bool             `json:"ok"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Resources  []ResourceResult `json:"resources,omitempty"`
}

// Duration returns the wall-clock time the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
