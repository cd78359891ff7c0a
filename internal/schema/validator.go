// Package schema validates event envelopes before they reach the bus.
package schema

import (
	"errors"
	"fmt"

	"dictation-turn-service/internal/models"
)

// Validation errors.
var (
	ErrMissingEventType    = errors.New("event is missing eventType")
	ErrMissingActivationID = errors.New("event is missing activationId")
	ErrMissingTimestamp    = errors.New("event is missing timestamp")
	ErrConfidenceRange     = errors.New("confidence out of range [0,1]")
	ErrUnknownEvent        = errors.New("unknown event type")
)

// Validator checks outbound events against the envelope contract.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// Validate checks the envelope fields of a bus event.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case models.TurnUpdate:
		return validateEnvelope(e.EventType, e.ActivationID, e.Timestamp, e.Confidence)
	case models.TurnFinal:
		if err := validateEnvelope(e.EventType, e.ActivationID, e.Timestamp, e.Confidence); err != nil {
			return err
		}
		if e.DurationMs < 0 {
			return fmt.Errorf("negative duration %d", e.DurationMs)
		}
		return nil
	case models.RecordingStatusEvent:
		if e.EventType == "" {
			return ErrMissingEventType
		}
		if e.Timestamp <= 0 {
			return ErrMissingTimestamp
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
}

func validateEnvelope(eventType, activationID string, timestamp int64, confidence float64) error {
	if eventType == "" {
		return ErrMissingEventType
	}
	if activationID == "" {
		return ErrMissingActivationID
	}
	if timestamp <= 0 {
		return ErrMissingTimestamp
	}
	if confidence < 0 || confidence > 1 {
		return ErrConfidenceRange
	}
	return nil
}
