package statemachine

import (
	"context"
	"slices"
)

var _ Machine = (*Table)(nil)

// Table is an immutable transition lookup: [fromState][event][]Transition.
// It is only mutated while being built, so reads need no locking.
type Table struct {
	transitions map[string]map[string][]Transition
}

func newTable() *Table {
	return &Table{transitions: make(map[string]map[string][]Transition)}
}

func (t *Table) add(tr Transition) error {
	if tr.From == nil || tr.To == nil || tr.Event == nil {
		return ErrInvalidTransition
	}

	from := tr.From.Name()
	if _, ok := t.transitions[from]; !ok {
		t.transitions[from] = make(map[string][]Transition)
	}
	// Multiple transitions allowed for same from/event to support guard-based branching
	t.transitions[from][tr.Event.Name()] = append(t.transitions[from][tr.Event.Name()], tr)
	return nil
}

func (t *Table) Fire(ctx context.Context, from State, event Event, data any) (State, error) {
	if from == nil {
		return nil, ErrInvalidState
	}
	if event == nil {
		return nil, ErrInvalidEvent
	}

	tr, err := t.selectTransition(ctx, from, event, data)
	if err != nil {
		return nil, err
	}

	for _, action := range tr.Actions {
		if err := action(ctx, from, tr.To, event, data); err != nil {
			return nil, err
		}
	}

	return tr.To, nil
}

func (t *Table) Can(ctx context.Context, from State, event Event, data any) bool {
	if from == nil || event == nil {
		return false
	}
	_, err := t.selectTransition(ctx, from, event, data)
	return err == nil
}

func (t *Table) Events(from State) []string {
	if from == nil {
		return nil
	}
	events := make([]string, 0, len(t.transitions[from.Name()]))
	for name := range t.transitions[from.Name()] {
		events = append(events, name)
	}
	slices.Sort(events)
	return events
}

func (t *Table) selectTransition(ctx context.Context, from State, event Event, data any) (Transition, error) {
	candidates := t.transitions[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return Transition{}, &TransitionError{State: from.Name(), Event: event.Name()}
	}

	for _, tr := range candidates {
		if guardsPass(ctx, tr, from, event, data) {
			return tr, nil
		}
	}

	return Transition{}, &TransitionError{State: from.Name(), Event: event.Name(), Rejected: true}
}

func guardsPass(ctx context.Context, tr Transition, from State, event Event, data any) bool {
	for _, guard := range tr.Guards {
		if !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
