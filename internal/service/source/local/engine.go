package local

import (
	"encoding/json"
	"fmt"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// Engine wraps a loaded Vosk model. The model is expensive to load and is
// shared across sessions; each session gets its own recognizer.
type Engine struct {
	mu    sync.Mutex
	model *vosk.VoskModel
}

// Result is one recognition outcome from the engine.
type Result struct {
	Text       string
	Confidence float64
	Final      bool
}

// voskResult mirrors the JSON the recognizer returns.
type voskResult struct {
	Text   string `json:"text"`
	Result []struct {
		Conf  float64 `json:"conf"`
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"result,omitempty"`
	Partial string `json:"partial,omitempty"`
}

// NewEngine loads the model at modelPath.
func NewEngine(modelPath string) (*Engine, error) {
	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("loading model from %s: %w", modelPath, err)
	}
	if model == nil {
		return nil, fmt.Errorf("loading model from %s: model is nil", modelPath)
	}
	return &Engine{model: model}, nil
}

// NewRecognizer creates a per-session recognizer over the shared model.
// Alternatives are not requested: with alternatives enabled Vosk switches
// to a different result format without word-level confidences.
func (e *Engine) NewRecognizer(sampleRateHz int) (*Recognizer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return nil, fmt.Errorf("engine is closed")
	}

	rec, err := vosk.NewRecognizer(e.model, float64(sampleRateHz))
	if err != nil {
		return nil, fmt.Errorf("creating recognizer: %w", err)
	}
	// Word-level results carry the confidence scores.
	rec.SetWords(1)

	return &Recognizer{rec: rec}, nil
}

// Close frees the model.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}

// Recognizer is one session's recognition state.
type Recognizer struct {
	mu     sync.Mutex
	rec    *vosk.VoskRecognizer
	closed bool
}

// Process feeds one PCM chunk and returns the resulting hypothesis, if
// any. A non-final result restates the current recognition window.
func (r *Recognizer) Process(chunk []byte) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Result{}, fmt.Errorf("recognizer is closed")
	}

	if r.rec.AcceptWaveform(chunk) > 0 {
		return parseFinal(r.rec.Result())
	}

	var vr voskResult
	if err := json.Unmarshal([]byte(r.rec.PartialResult()), &vr); err != nil {
		return Result{}, fmt.Errorf("parsing partial result: %w", err)
	}
	return Result{Text: vr.Partial}, nil
}

// Flush drains the recognizer into a trailing final result.
func (r *Recognizer) Flush() (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Result{}, fmt.Errorf("recognizer is closed")
	}
	return parseFinal(r.rec.FinalResult())
}

// Close frees the recognizer. Idempotent.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.rec.Free()
		r.closed = true
	}
}

func parseFinal(resultJSON string) (Result, error) {
	var vr voskResult
	if err := json.Unmarshal([]byte(resultJSON), &vr); err != nil {
		return Result{}, fmt.Errorf("parsing result: %w", err)
	}
	return Result{
		Text:       vr.Text,
		Confidence: averageConfidence(vr),
		Final:      true,
	}, nil
}

// averageConfidence averages the word-level confidences; 1.0 when the
// engine produced text without word scores.
func averageConfidence(vr voskResult) float64 {
	if len(vr.Result) == 0 {
		if vr.Text == "" {
			return 0
		}
		return 1.0
	}
	sum := 0.0
	for _, w := range vr.Result {
		sum += w.Conf
	}
	return sum / float64(len(vr.Result))
}
