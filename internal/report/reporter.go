// Package report renders hierarchical validation progress and tracks
// whether anything failed across a whole run.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Reporter writes indented progress lines for the validation tree and
// carries the run's cumulative failure flag. One Reporter is shared by
// reference across the whole traversal; the mutex keeps the depth counter
// and flag consistent if callers ever validate nodes concurrently.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	depth  int
	failed bool
}

// New creates a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Start announces that validation of a resource began and increases nesting.
func (r *Reporter) Start(description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("validating %s", description)
	r.depth++
}

// Success decreases nesting and prints the node's passing summary line.
func (r *Reporter) Success() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.depth > 0 {
		r.depth--
	}
	r.printf("ok")
}

// Failure decreases nesting, prints the node's failing summary line and
// sets the cumulative failure flag.
func (r *Reporter) Failure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.depth > 0 {
		r.depth--
	}
	r.failed = true
	r.printf("failed")
}

// Positive prints an informational passing message at the current nesting.
func (r *Reporter) Positive(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("%s", message)
}

// Negative prints a failure message at the current nesting and sets the
// cumulative failure flag.
func (r *Reporter) Negative(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
	r.printf("error: %s", message)
}

// HasFailures reports whether any negative message or node failure was
// recorded since the Reporter was created.
func (r *Reporter) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// printf writes one line at the current indentation. Callers hold r.mu.
func (r *Reporter) printf(format string, args ...any) {
	indent := strings.Repeat("  ", r.depth)
	fmt.Fprintf(r.w, indent+format+"\n", args...)
}
