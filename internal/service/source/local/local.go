// Package local provides a fully on-device transcription source: malgo
// microphone capture feeding a Vosk recognizer. No network, no
// credentials, no cloud.
package local

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"dictation-turn-service/internal/observability/logging"
	"dictation-turn-service/internal/service/source"
)

// Source implements source.Source over a shared Vosk engine and an audio
// provider. Each Start creates a fresh recognizer; the model stays loaded.
type Source struct {
	engine *Engine
	audio  source.AudioProvider
	log    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a local source over an already-loaded engine.
func New(engine *Engine, audio source.AudioProvider) *Source {
	return &Source{
		engine: engine,
		audio:  audio,
		log:    logging.WithComponent("local-source"),
	}
}

// Start begins capture and recognition. Events are delivered from the
// recognition goroutine until capture stops or the context is cancelled.
func (s *Source) Start(ctx context.Context, cfg source.Config, ev source.Events) error {
	// A superseded session must release the microphone before the new
	// one claims it.
	_ = s.Stop()

	rec, err := s.engine.NewRecognizer(cfg.SampleRateHz)
	if err != nil {
		return source.NewError(source.ErrServiceNotAllowed, err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	if err := s.audio.Start(runCtx); err != nil {
		rec.Close()
		cancel()
		return source.NewError(source.ErrAudioCapture, err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(runCtx, cfg, rec, ev)

	return nil
}

// Stop ends capture; the recognition goroutine flushes a trailing final
// and delivers the session-end event.
func (s *Source) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	err := s.audio.Stop()
	if cancel != nil {
		cancel()
	}
	return err
}

// Close frees the engine model.
func (s *Source) Close() error {
	return s.engine.Close()
}

func (s *Source) run(ctx context.Context, cfg source.Config, rec *Recognizer, ev source.Events) {
	defer ev.EmitSessionEnd()
	defer rec.Close()

	// Delivered from this goroutine, never from inside Start: the
	// caller's handlers may need locks it holds across Start.
	ev.EmitSessionStart()

	// Bind this session's channels now: the provider hands out fresh
	// ones on its next Start.
	chunks := s.audio.Chunks()
	errs := s.audio.Errors()

	// Vosk restates the same partial on every chunk of a pause; only
	// forward changes.
	lastPartial := ""

	for {
		select {
		case <-ctx.Done():
			s.flush(rec, ev)
			return
		case chunk, ok := <-chunks:
			if !ok {
				s.flush(rec, ev)
				return
			}

			res, err := rec.Process(chunk)
			if err != nil {
				ev.EmitError(source.NewError(source.ErrAborted, err))
				return
			}

			if res.Final {
				lastPartial = ""
				if strings.TrimSpace(res.Text) != "" {
					ev.EmitResult([]source.Hypothesis{{Text: res.Text, Confidence: res.Confidence, IsFinal: true}})
				}
				continue
			}

			if !cfg.InterimResults || res.Text == "" || res.Text == lastPartial {
				continue
			}
			lastPartial = res.Text
			ev.EmitResult([]source.Hypothesis{{Text: res.Text, IsFinal: false}})
		case err, ok := <-errs:
			if ok && err != nil {
				s.log.Warn().Err(err).Msg("audio capture fault")
			}
		}
	}
}

func (s *Source) flush(rec *Recognizer, ev source.Events) {
	res, err := rec.Flush()
	if err != nil {
		s.log.Debug().Err(err).Msg("flushing recognizer")
		return
	}
	if strings.TrimSpace(res.Text) != "" {
		ev.EmitResult([]source.Hypothesis{{Text: res.Text, Confidence: res.Confidence, IsFinal: true}})
	}
}
