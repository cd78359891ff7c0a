package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dictation-turn-service/internal/models"
	"dictation-turn-service/internal/observability/logging"
	"dictation-turn-service/internal/observability/metrics"
	"dictation-turn-service/internal/service/source"
	"dictation-turn-service/internal/service/turn"
)

// DefaultRestartDelay is the pause before resuming a session after a
// transient failure or engine-imposed end.
const DefaultRestartDelay = 100 * time.Millisecond

// Config holds the controller settings for one activation. Provider is a
// label for logs only.
type Config struct {
	Provider     string
	Source       source.Config
	RestartDelay time.Duration
}

// TurnMeta carries activation-scoped context alongside a finalized result.
type TurnMeta struct {
	ActivationID string
	StopReason   string
	Duration     time.Duration
}

// Controller supervises the streaming source for the lifetime of one
// recording activation. Engine sessions come and go underneath it; the
// controller restarts them transparently so the caller only ever sees one
// uninterrupted turn. A session handle is identified by a fresh id per
// start and never reused; callbacks from a superseded session are dropped.
type Controller struct {
	mu  sync.Mutex
	cfg Config
	src source.Source
	det *turn.Detector
	log zerolog.Logger

	state          State
	shouldContinue bool
	newTurn        bool
	activationID   string
	sessionID      string
	lastStopReason string
	startedAt      time.Time

	restartTimer *time.Timer
	ctx          context.Context

	onStatus func(models.RecordingStatus)
	onFinal  func(models.TurnResult, TurnMeta)
}

// NewController creates a controller over the given source and detector
// and registers itself as the detector's stop requester.
func NewController(cfg Config, src source.Source, det *turn.Detector) *Controller {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = DefaultRestartDelay
	}
	c := &Controller{
		cfg:   cfg,
		src:   src,
		det:   det,
		log:   logging.WithComponent("session-controller"),
		state: StateIdle,
	}
	det.SetStopRequester(c.RequestStop)
	return c
}

// SetOnStatus registers the recording-status consumer.
func (c *Controller) SetOnStatus(fn func(models.RecordingStatus)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = fn
}

// SetOnFinal registers the consumer of the single finalized turn result.
func (c *Controller) SetOnFinal(fn func(models.TurnResult, TurnMeta)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinal = fn
}

// Start begins a new recording activation: fresh turn state, fresh
// activation id, first engine session. Returns an error if an activation
// is already in progress or the source fails to start.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()

	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("recording already active (state %s)", state)
	}

	c.ctx = ctx
	c.activationID = uuid.NewString()
	c.shouldContinue = true
	c.newTurn = true
	c.lastStopReason = ""
	c.startedAt = time.Now()

	if err := c.startSessionLocked(); err != nil {
		// Cancel the freshly armed turn timers; nothing will ever feed
		// this turn.
		c.det.Abandon()
		c.transitionLocked(StateEnding)
		c.transitionLocked(StateIdle)
		c.mu.Unlock()
		return fmt.Errorf("starting recognition session: %w", err)
	}

	aid := c.activationID
	onStatus := c.onStatus
	c.mu.Unlock()

	metrics.DefaultMetrics.RecordActivation()
	alog := logging.WithActivation(aid)
	alog.Info().Msg("recording activation started")
	if onStatus != nil {
		onStatus(models.RecordingStatus{IsRecording: true, IsSupported: true})
	}
	return nil
}

// Stop ends the activation on the caller's request.
func (c *Controller) Stop() {
	c.stop(turn.StopReasonManual)
}

// RequestStop ends the activation on behalf of a detector timer.
func (c *Controller) RequestStop(reason string) {
	c.stop(reason)
}

// IsRecording reports whether an activation is in progress. It stays true
// across transient restarts: the caller never observes the gap.
func (c *Controller) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateIdle
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActivationID returns the id of the current (or most recent) activation.
func (c *Controller) ActivationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activationID
}

// startSessionLocked launches one engine session. On a brand-new turn the
// detector is reset; on a resume only the interim transcript is cleared,
// committed text survives untouched.
func (c *Controller) startSessionLocked() error {
	c.transitionLocked(StateStarting)

	if c.newTurn {
		c.det.StartTurn()
		c.newTurn = false
	} else {
		c.det.ClearPending()
	}

	sid := uuid.NewString()
	c.sessionID = sid

	ev := source.Events{
		OnSessionStart: func() { c.onSessionStart(sid) },
		OnResult:       func(hyps []source.Hypothesis) { c.onResult(sid, hyps) },
		OnError:        func(err *source.Error) { c.onSourceError(sid, err) },
		OnSessionEnd:   func() { c.onSessionEnd(sid) },
	}

	// The source may deliver events before Start returns; their handlers
	// take c.mu, so it must not be held across the call.
	c.mu.Unlock()
	err := c.src.Start(c.ctx, c.cfg.Source, ev)
	c.mu.Lock()
	if err != nil {
		return err
	}

	if !c.shouldContinue {
		// A stop landed while the source was starting; the activation is
		// already over and the session must not outlive it.
		c.sessionID = ""
		c.mu.Unlock()
		_ = c.src.Stop()
		c.mu.Lock()
		return nil
	}

	metrics.DefaultMetrics.RecordSessionStarted()
	slog := logging.WithSession(c.activationID, sid, c.cfg.Provider)
	slog.Debug().Msg("engine session starting")
	return nil
}

func (c *Controller) onSessionStart(sid string) {
	c.mu.Lock()
	if sid != c.sessionID {
		c.mu.Unlock()
		return
	}
	c.transitionLocked(StateActive)
	c.mu.Unlock()
}

func (c *Controller) onResult(sid string, hyps []source.Hypothesis) {
	c.mu.Lock()
	if sid != c.sessionID {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Outside the controller lock: the detector may call back into
	// RequestStop from its own goroutines.
	c.det.HandleResult(hyps)
}

// onSourceError absorbs recoverable errors via restart and terminates the
// activation on fatal ones. A fatal error abandons the turn: no synthetic
// completion is flushed, only an error status.
func (c *Controller) onSourceError(sid string, err *source.Error) {
	c.mu.Lock()
	if sid != c.sessionID {
		c.mu.Unlock()
		return
	}

	metrics.DefaultMetrics.RecordSourceError(string(err.Code))

	if err.Code.Recoverable() && c.shouldContinue {
		c.log.Warn().Str("code", string(err.Code)).Msg("recoverable session error, restarting")
		c.transitionLocked(StateErroring)
		c.scheduleRestartLocked(string(err.Code))
		c.mu.Unlock()
		return
	}

	c.log.Error().Err(err).Str("code", string(err.Code)).Msg("fatal session error, abandoning turn")
	c.shouldContinue = false
	c.sessionID = ""
	c.cancelRestartLocked()
	c.transitionLocked(StateEnding)
	c.transitionLocked(StateIdle)
	c.det.Abandon()
	onStatus := c.onStatus
	c.mu.Unlock()

	metrics.DefaultMetrics.RecordTurnAbandoned()
	_ = c.src.Stop()
	if onStatus != nil {
		onStatus(models.RecordingStatus{IsRecording: false, IsSupported: true, Error: err.Error()})
	}
}

// onSessionEnd handles the engine closing a session. While shouldContinue
// holds the end is treated as transient and a restart is scheduled; once a
// stop was requested the end is terminal and the turn finalizes.
func (c *Controller) onSessionEnd(sid string) {
	c.mu.Lock()
	if sid != c.sessionID {
		c.mu.Unlock()
		return
	}
	c.sessionID = ""

	if c.shouldContinue {
		c.log.Debug().Msg("engine ended session mid-turn, scheduling resume")
		c.transitionLocked(StateEnding)
		c.scheduleRestartLocked("engine-end")
		c.mu.Unlock()
		return
	}

	c.mu.Unlock()
	c.finalizeTurn()
}

func (c *Controller) stop(reason string) {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}

	c.shouldContinue = false
	c.lastStopReason = reason
	c.cancelRestartLocked()
	if c.state != StateEnding {
		c.transitionLocked(StateEnding)
	}
	c.mu.Unlock()

	c.log.Info().Str("reason", reason).Msg("stopping recording activation")
	_ = c.src.Stop()
	c.finalizeTurn()
}

// finalizeTurn flushes the turn result exactly once per activation. Safe
// to call repeatedly: a manual stop followed by the trailing session-end
// event both land here, only the first flush emits.
func (c *Controller) finalizeTurn() {
	res, flushed := c.det.Finalize()

	c.mu.Lock()
	if c.state != StateIdle {
		c.transitionLocked(StateIdle)
	}
	reason := c.lastStopReason
	if reason == "" {
		reason = "engine-end"
	}
	meta := TurnMeta{
		ActivationID: c.activationID,
		StopReason:   reason,
		Duration:     time.Since(c.startedAt),
	}
	onFinal := c.onFinal
	onStatus := c.onStatus
	c.mu.Unlock()

	if !flushed {
		return
	}

	metrics.DefaultMetrics.RecordTurnFinalized(reason)
	metrics.DefaultMetrics.RecordTurnDuration(meta.Duration)
	c.log.Info().
		Str("activation_id", meta.ActivationID).
		Str("reason", reason).
		Int("chars", res.TotalLength).
		Msg("turn finalized")

	if onFinal != nil {
		onFinal(res, meta)
	}
	if onStatus != nil {
		onStatus(models.RecordingStatus{IsRecording: false, IsSupported: true})
	}
}

func (c *Controller) scheduleRestartLocked(cause string) {
	c.cancelRestartLocked()
	metrics.DefaultMetrics.RecordSessionRestart(cause)
	c.restartTimer = time.AfterFunc(c.cfg.RestartDelay, c.resume)
}

func (c *Controller) cancelRestartLocked() {
	if c.restartTimer != nil {
		c.restartTimer.Stop()
		c.restartTimer = nil
	}
}

// resume fires after the restart delay. State is re-checked at fire time:
// a manual stop issued while the timer was pending wins.
func (c *Controller) resume() {
	c.mu.Lock()

	if !c.shouldContinue || (c.state != StateEnding && c.state != StateErroring) {
		c.mu.Unlock()
		return
	}

	err := c.startSessionLocked()
	if err == nil {
		c.mu.Unlock()
		return
	}

	// A session that cannot come back is a fatal end to the activation.
	c.log.Error().Err(err).Msg("session resume failed, abandoning turn")
	c.shouldContinue = false
	c.sessionID = ""
	c.transitionLocked(StateEnding)
	c.transitionLocked(StateIdle)
	c.det.Abandon()
	onStatus := c.onStatus
	c.mu.Unlock()

	metrics.DefaultMetrics.RecordTurnAbandoned()
	if onStatus != nil {
		onStatus(models.RecordingStatus{IsRecording: false, IsSupported: true, Error: err.Error()})
	}
}

// transitionLocked applies a validated state change. An invalid move is a
// bug; it is logged and forced so the controller cannot wedge.
func (c *Controller) transitionLocked(next State) {
	s, err := c.state.Transition(next)
	if err != nil {
		c.log.Warn().Err(err).Msg("forcing session state transition")
		s = next
	}
	if s != c.state {
		c.log.Debug().Str("from", c.state.String()).Str("to", s.String()).Msg("session state change")
	}
	c.state = s
}
