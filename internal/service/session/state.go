// Package session supervises the underlying streaming recognition session,
// restarting it transparently on transient failures so a single dictation
// turn survives engine-imposed session boundaries.
package session

import (
	"errors"
	"fmt"
)

// State represents the lifecycle state of the session controller.
type State int

const (
	// StateIdle - no activation in progress.
	StateIdle State = iota
	// StateStarting - start requested, waiting for the engine session.
	StateStarting
	// StateActive - engine session live, results flowing.
	StateActive
	// StateEnding - session is winding down; may restart or finalize.
	StateEnding
	// StateErroring - recoverable error absorbed, restart scheduled.
	StateErroring
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateActive:
		return "ACTIVE"
	case StateEnding:
		return "ENDING"
	case StateErroring:
		return "ERRORING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// ErrInvalidTransition is returned when a state change is not allowed.
var ErrInvalidTransition = errors.New("invalid session state transition")

// transitions maps each state to the states reachable from it.
//
//	IDLE → STARTING → ACTIVE → (ENDING | ERRORING) → IDLE
//	                               │         │
//	                               └────┬────┘
//	                                 STARTING (transparent restart)
var transitions = map[State][]State{
	StateIdle:     {StateStarting},
	StateStarting: {StateActive, StateEnding, StateErroring, StateIdle},
	StateActive:   {StateEnding, StateErroring},
	StateEnding:   {StateStarting, StateIdle},
	StateErroring: {StateStarting, StateEnding, StateIdle},
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates the move from s to next and returns the new state,
// or ErrInvalidTransition with both states named.
func (s State) Transition(next State) (State, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}
