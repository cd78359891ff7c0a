package session

import (
	"errors"
	"testing"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "IDLE"},
		{StateStarting, "STARTING"},
		{StateActive, "ACTIVE"},
		{StateEnding, "ENDING"},
		{StateErroring, "ERRORING"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_AllowedTransitions(t *testing.T) {
	allowed := []struct{ from, to State }{
		{StateIdle, StateStarting},
		{StateStarting, StateActive},
		{StateStarting, StateErroring},
		{StateStarting, StateEnding},
		{StateStarting, StateIdle},
		{StateActive, StateEnding},
		{StateActive, StateErroring},
		{StateEnding, StateStarting},
		{StateEnding, StateIdle},
		{StateErroring, StateStarting},
		{StateErroring, StateEnding},
		{StateErroring, StateIdle},
	}

	for _, tt := range allowed {
		got, err := tt.from.Transition(tt.to)
		if err != nil {
			t.Errorf("%s -> %s: unexpected error: %v", tt.from, tt.to, err)
		}
		if got != tt.to {
			t.Errorf("%s -> %s: got state %s", tt.from, tt.to, got)
		}
	}
}

func TestState_InvalidTransitions(t *testing.T) {
	invalid := []struct{ from, to State }{
		{StateIdle, StateActive},
		{StateIdle, StateEnding},
		{StateIdle, StateErroring},
		{StateActive, StateStarting},
		{StateActive, StateIdle},
		{StateEnding, StateActive},
		{StateErroring, StateActive},
	}

	for _, tt := range invalid {
		got, err := tt.from.Transition(tt.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
		if got != tt.from {
			t.Errorf("%s -> %s: state changed on invalid transition to %s", tt.from, tt.to, got)
		}
	}
}

func TestState_RestartPath(t *testing.T) {
	// An engine-imposed end while still listening walks
	// ACTIVE -> ENDING -> STARTING -> ACTIVE without passing IDLE.
	s := StateActive

	for _, next := range []State{StateEnding, StateStarting, StateActive} {
		var err error
		if s, err = s.Transition(next); err != nil {
			t.Fatalf("restart path broke at %s: %v", next, err)
		}
	}

	if s != StateActive {
		t.Errorf("expected ACTIVE after restart cycle, got %s", s)
	}
}
