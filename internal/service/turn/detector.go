package turn

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dictation-turn-service/internal/models"
	"dictation-turn-service/internal/observability/logging"
	"dictation-turn-service/internal/observability/metrics"
	"dictation-turn-service/internal/service/source"
	"dictation-turn-service/internal/service/transcript"
)

// Stop reasons reported when a timer or caller ends the turn.
const (
	StopReasonSilence      = "silence"
	StopReasonTurnComplete = "turn-complete"
	StopReasonManual       = "manual"
)

// Config holds the timing knobs for one recording activation.
type Config struct {
	// SilenceThreshold is the maximum tolerated gap with no detected
	// speech before the turn is assumed over.
	SilenceThreshold time.Duration

	// TurnTimeout is the debounce delay after apparent completion,
	// allowing brief continuations before finalizing.
	TurnTimeout time.Duration
}

// Detector owns the state of one dictation turn: the accumulated
// transcript, the completeness verdict, and the two timers that may request
// a stop. Events arrive from engine callbacks and timer fires on separate
// goroutines; a single mutex serializes them. Timer fires re-check current
// state before acting, since a result may have landed while they waited.
type Detector struct {
	mu       sync.Mutex
	cfg      Config
	analyzer *Analyzer
	acc      *transcript.Accumulator
	log      zerolog.Logger

	lastActivity time.Time
	turnComplete bool
	finalized    bool
	flushed      bool
	frozen       models.TurnResult

	confSum float64
	confN   int

	silenceTimer *time.Timer
	turnTimer    *time.Timer

	lastNotified string
	notifiedOnce bool

	onUpdate    func(models.TurnResult)
	requestStop func(reason string)
}

// NewDetector creates a detector with fresh turn state. StartTurn must be
// called before the first result is handled.
func NewDetector(cfg Config, analyzer *Analyzer) *Detector {
	return &Detector{
		cfg:      cfg,
		analyzer: analyzer,
		acc:      transcript.New(),
		log:      logging.WithComponent("turn-detector"),
	}
}

// SetOnUpdate registers the live-result consumer. Updates are debounced:
// the consumer is only notified when the visible transcript changes.
func (d *Detector) SetOnUpdate(fn func(models.TurnResult)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onUpdate = fn
}

// SetStopRequester registers the callback invoked when a timer decides the
// turn is over. The callback runs outside the detector lock.
func (d *Detector) SetStopRequester(fn func(reason string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requestStop = fn
}

// StartTurn resets all turn state for a new activation and arms the
// silence timer.
func (d *Detector) StartTurn() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.acc.Reset()
	d.turnComplete = false
	d.finalized = false
	d.flushed = false
	d.frozen = models.TurnResult{}
	d.confSum = 0
	d.confN = 0
	d.lastNotified = ""
	d.notifiedOnce = false
	d.lastActivity = time.Now()

	d.cancelTurnTimerLocked()
	d.armSilenceTimerLocked(d.cfg.SilenceThreshold)
}

// ClearPending drops the interim transcript. Called on session restarts:
// the resumed session restates its own interims.
func (d *Detector) ClearPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acc.ClearPending()
}

// HandleResult folds a batch of hypotheses into the turn state, re-arms
// the timers, and notifies the update consumer if the transcript changed.
// Results arriving after finalization are dropped.
func (d *Detector) HandleResult(hyps []source.Hypothesis) {
	d.mu.Lock()

	if d.finalized {
		d.mu.Unlock()
		return
	}

	activity := false
	hadFinal := false
	for _, h := range hyps {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		activity = true
		if h.IsFinal {
			hadFinal = true
			d.confSum += h.Confidence
			d.confN++
			metrics.DefaultMetrics.RecordHypothesis("final")
		} else {
			metrics.DefaultMetrics.RecordHypothesis("interim")
		}
	}

	d.acc.Apply(hyps)

	if activity {
		d.lastActivity = time.Now()
		d.armSilenceTimerLocked(d.cfg.SilenceThreshold)
	}

	d.turnComplete = d.analyzer.IsComplete(d.acc.Text())

	if hadFinal {
		// A fresh final invalidates any pending confirmation window.
		d.cancelTurnTimerLocked()
		if d.turnComplete {
			d.armTurnTimerLocked()
		}
	}

	res := d.snapshotLocked()
	notify := d.onUpdate
	changed := !d.notifiedOnce || res.FinalText != d.lastNotified
	if changed {
		d.lastNotified = res.FinalText
		d.notifiedOnce = true
	}
	d.mu.Unlock()

	if changed && notify != nil {
		notify(res)
	}
}

// Snapshot returns the current turn result without mutating state.
func (d *Detector) Snapshot() models.TurnResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return d.frozen
	}
	return d.snapshotLocked()
}

// Finalize freezes the turn result exactly once, marking it complete. The
// second return reports whether this call performed the flush; repeated
// calls return the frozen result with false.
func (d *Detector) Finalize() (models.TurnResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.finalized {
		return d.frozen, false
	}

	d.finalized = true
	d.flushed = true
	d.cancelTimersLocked()

	res := d.snapshotLocked()
	res.IsComplete = true
	d.frozen = res

	metrics.DefaultMetrics.RecordTranscriptChars(len(res.FinalText))
	return res, true
}

// Abandon terminates the turn without flushing a result. Used on fatal
// errors where a synthetic completion would be a lie. A later Finalize
// returns false.
func (d *Detector) Abandon() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.finalized {
		return
	}
	d.finalized = true
	d.frozen = d.snapshotLocked()
	d.cancelTimersLocked()
}

func (d *Detector) snapshotLocked() models.TurnResult {
	text := d.acc.Text()
	conf := 0.0
	if d.confN > 0 {
		conf = d.confSum / float64(d.confN)
	}
	return models.TurnResult{
		FinalText:   text,
		IsComplete:  d.turnComplete,
		Confidence:  conf,
		TotalLength: len(text),
	}
}

func (d *Detector) armSilenceTimerLocked(delay time.Duration) {
	if d.silenceTimer != nil {
		d.silenceTimer.Stop()
	}
	d.silenceTimer = time.AfterFunc(delay, d.onSilenceTimer)
}

func (d *Detector) armTurnTimerLocked() {
	if d.turnTimer != nil {
		d.turnTimer.Stop()
	}
	d.turnTimer = time.AfterFunc(d.cfg.TurnTimeout, d.onTurnTimer)
}

func (d *Detector) cancelTurnTimerLocked() {
	if d.turnTimer != nil {
		d.turnTimer.Stop()
		d.turnTimer = nil
	}
}

func (d *Detector) cancelTimersLocked() {
	if d.silenceTimer != nil {
		d.silenceTimer.Stop()
		d.silenceTimer = nil
	}
	d.cancelTurnTimerLocked()
}

// onSilenceTimer fires after SilenceThreshold of inactivity. It is a
// safety net against abandoned input, not the primary end-of-turn signal:
// it only requests a stop once some text has been committed, otherwise it
// re-arms and keeps waiting.
func (d *Detector) onSilenceTimer() {
	d.mu.Lock()

	if d.finalized {
		d.mu.Unlock()
		return
	}

	// A result may have landed between the fire and acquiring the lock.
	if elapsed := time.Since(d.lastActivity); elapsed < d.cfg.SilenceThreshold {
		d.armSilenceTimerLocked(d.cfg.SilenceThreshold - elapsed)
		d.mu.Unlock()
		return
	}

	if d.acc.Committed() == "" {
		d.armSilenceTimerLocked(d.cfg.SilenceThreshold)
		d.mu.Unlock()
		return
	}

	stop := d.requestStop
	d.mu.Unlock()

	metrics.DefaultMetrics.RecordTimerFire("silence")
	d.log.Info().Dur("threshold", d.cfg.SilenceThreshold).Msg("silence threshold reached, requesting stop")
	if stop != nil {
		stop(StopReasonSilence)
	}
}

// onTurnTimer fires TurnTimeout after a final hypothesis left the
// transcript looking complete. Completeness is re-evaluated against the
// latest transcript: text that arrived during the wait may have reopened
// the thought, in which case the fire is a no-op.
func (d *Detector) onTurnTimer() {
	d.mu.Lock()

	if d.finalized {
		d.mu.Unlock()
		return
	}

	complete := d.analyzer.IsComplete(d.acc.Text())
	d.turnComplete = complete
	if !complete {
		d.mu.Unlock()
		return
	}

	stop := d.requestStop
	d.mu.Unlock()

	metrics.DefaultMetrics.RecordTimerFire("turn")
	d.log.Info().Msg("turn confirmed complete, requesting stop")
	if stop != nil {
		stop(StopReasonTurnComplete)
	}
}
