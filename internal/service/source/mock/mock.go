// Package mock provides a scripted transcription source for running the
// service without credentials or a microphone. Each engine session plays
// one utterance as progressive interims followed by a single final, then
// ends itself the way browser engines end sessions mid-dictation.
package mock

import (
	"context"
	"sync"
	"time"

	"dictation-turn-service/internal/service/source"
)

// SimulatedUtterance is one scripted utterance with progressive interims.
type SimulatedUtterance struct {
	Interims   []string
	Final      string
	Confidence float64
}

// DefaultUtterances plays a short dictation: the fragments accumulate into
// one turn across the session boundaries between them.
var DefaultUtterances = []SimulatedUtterance{
	{
		Interims:   []string{"I have", "I have a headache"},
		Final:      "I have a",
		Confidence: 0.88,
	},
	{
		Interims:   []string{"headache that", "headache that won't go"},
		Final:      "headache that won't go away.",
		Confidence: 0.93,
	},
	{
		Interims:   []string{"it started", "it started two days"},
		Final:      "it started two days ago.",
		Confidence: 0.95,
	},
	{
		Interims:   []string{"Thanks", "Thanks that's all"},
		Final:      "Thanks, that's all I needed.",
		Confidence: 0.97,
	},
}

// utteranceCounter cycles through the script across sessions.
var (
	utteranceCounter int
	counterMu        sync.Mutex
)

// Source implements source.Source with scripted utterances.
type Source struct {
	mu      sync.Mutex
	script  []SimulatedUtterance
	tick    time.Duration
	cancel  context.CancelFunc
	running bool
}

// New creates a mock source playing the default script with a 150ms
// cadence between hypotheses.
func New() *Source {
	return &Source{script: DefaultUtterances, tick: 150 * time.Millisecond}
}

// NewWithScript creates a mock source playing the given utterances at the
// given cadence.
func NewWithScript(script []SimulatedUtterance, tick time.Duration) *Source {
	return &Source{script: script, tick: tick}
}

// Start plays the next scripted utterance: session start, interims, one
// final, then session end. Delivery is asynchronous like a real engine.
func (s *Source) Start(ctx context.Context, cfg source.Config, ev source.Events) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	counterMu.Lock()
	utt := s.script[utteranceCounter%len(s.script)]
	utteranceCounter++
	counterMu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	go s.play(runCtx, cfg, utt, ev)
	return nil
}

// Stop cancels the current session. The trailing session-end event is
// still delivered by the playback goroutine.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	return nil
}

func (s *Source) play(ctx context.Context, cfg source.Config, utt SimulatedUtterance, ev source.Events) {
	defer ev.EmitSessionEnd()

	ev.EmitSessionStart()

	if cfg.InterimResults {
		for _, text := range utt.Interims {
			if !s.sleep(ctx) {
				return
			}
			ev.EmitResult([]source.Hypothesis{{Text: text, IsFinal: false}})
		}
	}

	if !s.sleep(ctx) {
		return
	}
	ev.EmitResult([]source.Hypothesis{{Text: utt.Final, IsFinal: true, Confidence: utt.Confidence}})

	// Linger briefly, then end the session like an engine-imposed timeout.
	s.sleep(ctx)
}

func (s *Source) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.tick):
		return true
	}
}
