package statemachine

import (
	"context"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Action executes side effects during state transitions. Returning an error prevents the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // All must pass for transition to proceed
	Actions []Action // Executed in order once the transition is selected
}

// Machine resolves transitions for an externally stored state.
type Machine interface {
	// Fire returns the state the event leads to from the given state,
	// running the selected transition's actions.
	Fire(ctx context.Context, from State, event Event, data any) (State, error)
	// Can reports whether Fire would find a transition whose guards pass.
	// Actions are not executed.
	Can(ctx context.Context, from State, event Event, data any) bool
	// Events lists the event names defined for the given state.
	Events(from State) []string
}

// StringState provides a simple string-based state implementation for basic use cases.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent provides a simple string-based event implementation for basic use cases.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}
