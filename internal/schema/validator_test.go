package schema

import (
	"errors"
	"testing"

	"dictation-turn-service/internal/models"
)

func validUpdate() models.TurnUpdate {
	return models.TurnUpdate{
		EventType:    models.EventTypeTurnUpdate,
		ActivationID: "act-1",
		Timestamp:    1724580000000,
		FinalText:    "I have a headache",
		Confidence:   0.9,
	}
}

func TestValidate_TurnUpdate(t *testing.T) {
	v := New()

	if err := v.Validate(validUpdate()); err != nil {
		t.Errorf("valid update rejected: %v", err)
	}

	e := validUpdate()
	e.EventType = ""
	if err := v.Validate(e); !errors.Is(err, ErrMissingEventType) {
		t.Errorf("expected ErrMissingEventType, got %v", err)
	}

	e = validUpdate()
	e.ActivationID = ""
	if err := v.Validate(e); !errors.Is(err, ErrMissingActivationID) {
		t.Errorf("expected ErrMissingActivationID, got %v", err)
	}

	e = validUpdate()
	e.Timestamp = 0
	if err := v.Validate(e); !errors.Is(err, ErrMissingTimestamp) {
		t.Errorf("expected ErrMissingTimestamp, got %v", err)
	}

	e = validUpdate()
	e.Confidence = 1.5
	if err := v.Validate(e); !errors.Is(err, ErrConfidenceRange) {
		t.Errorf("expected ErrConfidenceRange, got %v", err)
	}
}

func TestValidate_TurnFinal(t *testing.T) {
	v := New()

	final := models.TurnFinal{
		EventType:    models.EventTypeTurnFinal,
		ActivationID: "act-1",
		Timestamp:    1724580000000,
		FinalText:    "I have a headache that won't go away.",
		IsComplete:   true,
		Confidence:   0.92,
		DurationMs:   5400,
		StopReason:   "turn-complete",
	}
	if err := v.Validate(final); err != nil {
		t.Errorf("valid final rejected: %v", err)
	}

	final.DurationMs = -1
	if err := v.Validate(final); err == nil {
		t.Error("negative duration accepted")
	}
}

func TestValidate_StatusEvent(t *testing.T) {
	v := New()

	st := models.RecordingStatusEvent{
		EventType:   models.EventTypeRecordingStatus,
		Timestamp:   1724580000000,
		IsRecording: true,
		IsSupported: true,
	}
	if err := v.Validate(st); err != nil {
		t.Errorf("valid status rejected: %v", err)
	}

	st.Timestamp = 0
	if err := v.Validate(st); !errors.Is(err, ErrMissingTimestamp) {
		t.Errorf("expected ErrMissingTimestamp, got %v", err)
	}
}

func TestValidate_UnknownEvent(t *testing.T) {
	v := New()

	if err := v.Validate(struct{ X int }{1}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}
