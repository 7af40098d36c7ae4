package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("statemachine: transition needs from, to and event")
	ErrInvalidEvent      = errors.New("statemachine: nil event")
	ErrInvalidState      = errors.New("statemachine: nil state")

	// ErrNoTransition matches a TransitionError for a state/event pair with no entry.
	ErrNoTransition = errors.New("statemachine: no transition")
	// ErrGuardRejected matches a TransitionError whose candidates all failed their guards.
	ErrGuardRejected = errors.New("statemachine: rejected by guards")
)

// TransitionError reports why Fire could not leave State on Event.
type TransitionError struct {
	State    string
	Event    string
	Rejected bool
}

func (e *TransitionError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("statemachine: %q on %q rejected by guards", e.Event, e.State)
	}
	return fmt.Sprintf("statemachine: no %q transition from %q", e.Event, e.State)
}

func (e *TransitionError) Is(target error) bool {
	switch target {
	case ErrNoTransition:
		return !e.Rejected
	case ErrGuardRejected:
		return e.Rejected
	}
	return false
}
