// Package models defines the data structures for turn events.
package models

// Event types carried on the bus and the live feed.
const (
	EventTypeTurnUpdate      = "dictation.turn.update"
	EventTypeTurnFinal       = "dictation.turn.final"
	EventTypeRecordingStatus = "dictation.recording.status"
)

// TurnResult is the externally observable output of the turn detector,
// emitted on every transcript change and once on finalization.
type TurnResult struct {
	FinalText   string  `json:"finalText"`
	IsComplete  bool    `json:"isComplete"`
	Confidence  float64 `json:"confidence"`
	TotalLength int     `json:"totalLength"`
}

// RecordingStatus describes the recording state surfaced to consumers.
// Error carries a human-readable message for fatal failures only.
type RecordingStatus struct {
	IsRecording bool   `json:"isRecording"`
	IsSupported bool   `json:"isSupported"`
	Error       string `json:"error,omitempty"`
}

// RecordingStatusEvent wraps RecordingStatus for the bus and live feed.
type RecordingStatusEvent struct {
	EventType   string `json:"eventType"`
	Timestamp   int64  `json:"timestamp"`
	IsRecording bool   `json:"isRecording"`
	IsSupported bool   `json:"isSupported"`
	Error       string `json:"error,omitempty"`
}

// TurnUpdate represents a live transcript update for an active turn.
type TurnUpdate struct {
	EventType    string  `json:"eventType"`
	ActivationID string  `json:"activationId"`
	Timestamp    int64   `json:"timestamp"`
	FinalText    string  `json:"finalText"`
	IsComplete   bool    `json:"isComplete"`
	Confidence   float64 `json:"confidence"`
	TotalLength  int     `json:"totalLength"`
}

// TurnFinal represents the single finalized result of a turn.
type TurnFinal struct {
	EventType    string  `json:"eventType"`
	ActivationID string  `json:"activationId"`
	Timestamp    int64   `json:"timestamp"`
	FinalText    string  `json:"finalText"`
	IsComplete   bool    `json:"isComplete"`
	Confidence   float64 `json:"confidence"`
	TotalLength  int     `json:"totalLength"`
	DurationMs   int64   `json:"durationMs"`
	StopReason   string  `json:"stopReason"`
}
