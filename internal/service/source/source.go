// Package source defines the interface for streaming transcription sources.
package source

import "context"

// Hypothesis is one chunk of recognized text from the streaming engine.
// Interim hypotheses are cumulative restatements of the current recognition
// window; a final hypothesis will not be revised further.
type Hypothesis struct {
	Text       string
	Confidence float64
	IsFinal    bool
}

// Config holds the recognition settings for one session. Immutable for the
// lifetime of a recording activation.
type Config struct {
	Language        string
	Continuous      bool
	InterimResults  bool
	MaxAlternatives int
	SampleRateHz    int
}

// Events carries the four callback slots a source invokes during a session.
// Any slot may be nil; use the Emit helpers to dispatch safely.
type Events struct {
	// OnSessionStart is called once the underlying session is live.
	OnSessionStart func()

	// OnResult delivers an ordered batch of hypotheses for the current
	// recognition window.
	OnResult func(hyps []Hypothesis)

	// OnError is called when the session fails. Recoverable codes may be
	// followed by OnSessionEnd.
	OnError func(err *Error)

	// OnSessionEnd is called exactly once when the underlying session ends,
	// whether engine-initiated or via Stop.
	OnSessionEnd func()
}

// EmitSessionStart dispatches OnSessionStart if set.
func (e Events) EmitSessionStart() {
	if e.OnSessionStart != nil {
		e.OnSessionStart()
	}
}

// EmitResult dispatches OnResult if set.
func (e Events) EmitResult(hyps []Hypothesis) {
	if e.OnResult != nil {
		e.OnResult(hyps)
	}
}

// EmitError dispatches OnError if set.
func (e Events) EmitError(err *Error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}

// EmitSessionEnd dispatches OnSessionEnd if set.
func (e Events) EmitSessionEnd() {
	if e.OnSessionEnd != nil {
		e.OnSessionEnd()
	}
}

// Source is the interface for streaming transcription providers
// (Google, on-device, mock). One Start corresponds to one run of the
// underlying engine; an ended session is never restarted in place, the
// caller starts a fresh one.
type Source interface {
	// Start begins a streaming recognition session and returns once the
	// session is being established. Events are delivered asynchronously.
	Start(ctx context.Context, cfg Config, ev Events) error

	// Stop ends the current session. The source still delivers a trailing
	// OnSessionEnd for the stopped session.
	Stop() error
}

// AudioProvider supplies raw PCM chunks to sources that need to feed an
// engine themselves (cloud streaming, on-device recognition).
type AudioProvider interface {
	Start(ctx context.Context) error
	Stop() error

	// Chunks yields 16-bit little-endian PCM. The channel is closed when
	// capture stops.
	Chunks() <-chan []byte

	Errors() <-chan error
}
