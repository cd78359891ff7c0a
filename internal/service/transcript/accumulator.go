// Package transcript accumulates streaming hypotheses into a stable
// running transcript without loss or duplication.
package transcript

import (
	"strings"

	"dictation-turn-service/internal/service/source"
)

// Accumulator merges incremental hypotheses into committed and pending
// text. Committed text only grows; pending text is replaced wholesale by
// each interim hypothesis. State survives engine restarts untouched - only
// Reset (a new activation) clears committed text.
type Accumulator struct {
	committed string
	pending   string
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Apply folds a batch of hypotheses into the transcript, in event order.
// Final hypotheses are appended to committed text and supersede the current
// pending text; interim hypotheses replace pending text. Empty or
// whitespace-only hypotheses are ignored.
func (a *Accumulator) Apply(hyps []source.Hypothesis) {
	for _, h := range hyps {
		text := strings.TrimSpace(h.Text)
		if text == "" {
			continue
		}
		if h.IsFinal {
			a.committed = join(a.committed, text)
			a.pending = ""
		} else {
			a.pending = text
		}
	}
}

// Committed returns the immutable committed transcript.
func (a *Accumulator) Committed() string {
	return a.committed
}

// Pending returns the latest interim hypothesis.
func (a *Accumulator) Pending() string {
	return a.pending
}

// Text returns the externally visible transcript: committed text with
// pending text appended using the same separator rule as commits.
func (a *Accumulator) Text() string {
	return join(a.committed, a.pending)
}

// ClearPending drops the current interim hypothesis. Used when a session
// restarts: the new session restates its own interims from scratch.
func (a *Accumulator) ClearPending() {
	a.pending = ""
}

// Reset clears all state for a new activation.
func (a *Accumulator) Reset() {
	a.committed = ""
	a.pending = ""
}

// join appends segment to base, inserting a single space only when base is
// non-empty, does not already end in whitespace, and does not already end
// in terminal punctuation.
func join(base, segment string) string {
	if segment == "" {
		return base
	}
	if base == "" {
		return segment
	}
	if needsSeparator(base) {
		return base + " " + segment
	}
	return base + segment
}

func needsSeparator(base string) bool {
	last := base[len(base)-1]
	switch last {
	case ' ', '\t', '\n', '.', '!', '?':
		return false
	}
	return true
}
