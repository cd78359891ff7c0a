// Package app wires the service components together: source selection,
// turn detection, session supervision, and event publishing.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dictation-turn-service/internal/config"
	"dictation-turn-service/internal/events"
	"dictation-turn-service/internal/models"
	"dictation-turn-service/internal/observability/logging"
	"dictation-turn-service/internal/schema"
	"dictation-turn-service/internal/service/session"
	"dictation-turn-service/internal/service/source"
	"dictation-turn-service/internal/service/source/google"
	"dictation-turn-service/internal/service/source/local"
	"dictation-turn-service/internal/service/source/mic"
	"dictation-turn-service/internal/service/source/mock"
	"dictation-turn-service/internal/service/turn"
)

// Application holds process-wide state for the service.
type Application struct {
	Cfg        *config.Config
	Controller *session.Controller
	Detector   *turn.Detector
	Publisher  *events.Publisher

	StartupTime time.Time

	log       zerolog.Logger
	src       source.Source
	validator *schema.Validator
	broadcast func(event any)
	ctx       context.Context
}

// New constructs the application from configuration: cue set, analyzer,
// detector, source, controller, publisher, and the event plumbing
// between them.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	a := &Application{
		Cfg:       cfg,
		ctx:       ctx,
		log:       logging.WithComponent("application"),
		validator: schema.New(),
	}

	cues := turn.DefaultEnglishCues()
	if cfg.Turn.CuesFile != "" {
		loaded, err := turn.LoadCues(cfg.Turn.CuesFile)
		if err != nil {
			return nil, fmt.Errorf("loading cue set: %w", err)
		}
		cues = loaded
		a.log.Info().Str("file", cfg.Turn.CuesFile).Msg("loaded custom cue set")
	}

	a.Detector = turn.NewDetector(turn.Config{
		SilenceThreshold: cfg.Turn.SilenceThreshold,
		TurnTimeout:      cfg.Turn.TurnTimeout,
	}, turn.NewAnalyzer(cues))

	src, err := a.buildSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.src = src

	a.Controller = session.NewController(session.Config{
		Provider: cfg.Source.Provider,
		Source: source.Config{
			Language:        cfg.Source.Language,
			Continuous:      cfg.Source.Continuous,
			InterimResults:  cfg.Source.InterimResults,
			MaxAlternatives: cfg.Source.MaxAlternatives,
			SampleRateHz:    cfg.Source.SampleRateHz,
		},
		RestartDelay: cfg.Turn.RestartDelay,
	}, src, a.Detector)

	a.Publisher = events.New(&events.Config{
		Enabled:     cfg.Kafka.Enabled,
		Brokers:     cfg.Kafka.Brokers,
		TopicUpdate: cfg.Kafka.TopicUpdate,
		TopicFinal:  cfg.Kafka.TopicFinal,
		Principal:   cfg.Kafka.Principal,
	})

	a.wireCallbacks()

	a.log.Info().Str("provider", cfg.Source.Provider).Msg("application created")
	return a, nil
}

func (a *Application) buildSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Provider {
	case "mock":
		return mock.New(), nil
	case "google":
		return google.New(ctx, mic.New(captureConfig(cfg)))
	case "local":
		engine, err := local.NewEngine(cfg.Source.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("initializing local engine: %w", err)
		}
		return local.New(engine, mic.New(captureConfig(cfg))), nil
	default:
		return nil, fmt.Errorf("unknown source provider %q", cfg.Source.Provider)
	}
}

// captureConfig adapts the stock capture settings to the configured
// sample rate, keeping 100ms buffers.
func captureConfig(cfg *config.Config) mic.Config {
	mcfg := mic.DefaultConfig()
	mcfg.SampleRate = uint32(cfg.Source.SampleRateHz)
	mcfg.BufferFrames = uint32(cfg.Source.SampleRateHz / 10)
	return mcfg
}

// wireCallbacks connects detector and controller outputs to the bus and
// the live feed.
func (a *Application) wireCallbacks() {
	a.Detector.SetOnUpdate(func(res models.TurnResult) {
		event := models.TurnUpdate{
			EventType:    models.EventTypeTurnUpdate,
			ActivationID: a.Controller.ActivationID(),
			Timestamp:    time.Now().UnixMilli(),
			FinalText:    res.FinalText,
			IsComplete:   res.IsComplete,
			Confidence:   res.Confidence,
			TotalLength:  res.TotalLength,
		}
		if err := a.validator.Validate(event); err != nil {
			a.log.Error().Err(err).Msg("invalid turn update event")
			return
		}
		if err := a.Publisher.PublishUpdate(a.ctx, event.ActivationID, event); err != nil {
			a.log.Warn().Err(err).Msg("publishing turn update")
		}
		a.emit(event)
	})

	a.Controller.SetOnFinal(func(res models.TurnResult, meta session.TurnMeta) {
		event := models.TurnFinal{
			EventType:    models.EventTypeTurnFinal,
			ActivationID: meta.ActivationID,
			Timestamp:    time.Now().UnixMilli(),
			FinalText:    res.FinalText,
			IsComplete:   res.IsComplete,
			Confidence:   res.Confidence,
			TotalLength:  res.TotalLength,
			DurationMs:   meta.Duration.Milliseconds(),
			StopReason:   meta.StopReason,
		}
		if err := a.validator.Validate(event); err != nil {
			a.log.Error().Err(err).Msg("invalid turn final event")
			return
		}
		if err := a.Publisher.PublishFinal(a.ctx, meta.ActivationID, event); err != nil {
			a.log.Error().Err(err).Msg("publishing turn final")
		}
		a.emit(event)
	})

	a.Controller.SetOnStatus(func(st models.RecordingStatus) {
		a.emit(models.RecordingStatusEvent{
			EventType:   models.EventTypeRecordingStatus,
			Timestamp:   time.Now().UnixMilli(),
			IsRecording: st.IsRecording,
			IsSupported: st.IsSupported,
			Error:       st.Error,
		})
	})
}

// SetBroadcast registers the live-feed sink for turn and status events.
func (a *Application) SetBroadcast(fn func(event any)) {
	a.broadcast = fn
}

func (a *Application) emit(event any) {
	if a.broadcast != nil {
		a.broadcast(event)
	}
}

// StartRecording begins a new recording activation.
func (a *Application) StartRecording() error {
	return a.Controller.Start(a.ctx)
}

// StopRecording ends the current activation.
func (a *Application) StopRecording() {
	a.Controller.Stop()
}

// Status reports the externally visible recording state.
func (a *Application) Status() models.RecordingStatus {
	return models.RecordingStatus{
		IsRecording: a.Controller.IsRecording(),
		IsSupported: true,
	}
}

// CurrentTurn returns a snapshot of the in-progress turn.
func (a *Application) CurrentTurn() models.TurnResult {
	return a.Detector.Snapshot()
}

// Ready reports whether the service can accept traffic.
func (a *Application) Ready() bool {
	return a.Controller != nil && a.Publisher != nil
}

// Start performs startup work before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.log.Info().Time("startupTime", a.StartupTime).Msg("dictation turn service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Controller.Stop()
	if closer, ok := a.src.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing source")
		}
	}
	if err := a.Publisher.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing publisher")
	}
	a.log.Info().Msg("dictation turn service shut down")
}
