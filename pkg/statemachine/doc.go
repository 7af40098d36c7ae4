// Package statemachine provides a stateless finite-state-machine transition
// table for entities whose current state is persisted elsewhere.
//
// A Table is built once from transitions and is safe for concurrent use. It
// does not hold a current state: callers load the entity (usually under a row
// lock), ask the table where an event leads, and persist the result inside the
// same transaction.
//
//	const (
//	    Available = statemachine.StringState("available")
//	    Occupied  = statemachine.StringState("occupied")
//	    CheckIn   = statemachine.StringEvent("check_in")
//	)
//
//	rooms := statemachine.MustNew(
//	    statemachine.WithTransition(Available, Occupied, CheckIn),
//	)
//
//	next, err := rooms.Fire(ctx, Available, CheckIn, nil)
//
// # Guards and Actions
//
// Guards veto a transition based on runtime data. When several transitions
// share the same source state and event, the first whose guards all pass wins.
// Actions run in order once a transition is selected; an action error aborts
// the transition.
//
// # Errors
//
// Fire returns a *TransitionError when the event cannot be applied. It matches
// ErrNoTransition when the table has no entry for the state/event pair and
// ErrGuardRejected when entries exist but every candidate failed its guards.
package statemachine
