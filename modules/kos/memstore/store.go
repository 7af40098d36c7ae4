// Package memstore keeps kos state in process memory. Transactions are
// serialized and run against a private copy of the state that replaces the
// shared one only on commit, so a failed transaction leaves nothing behind.
// It backs development mode and the service tests.
package memstore

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/modules/kos"
)

var (
	ErrReadOnly       = errors.New("memstore: write in read-only transaction")
	ErrMissingParent  = errors.New("memstore: referenced row does not exist")
	ErrTxAfterCommit  = errors.New("memstore: transaction already finished")
	errNilTransaction = errors.New("memstore: nil transaction func")
)

var _ kos.Store = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

// WithTx holds the store's write lock for the duration of fn, which gives
// every read inside it the guarantees of a row lock.
func (s *Store) WithTx(ctx context.Context, fn func(tx kos.Tx) error) error {
	if fn == nil {
		return errNilTransaction
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{st: s.state.clone()}
	err := fn(t)
	t.done = true
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = t.st
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx kos.Tx) error) error {
	if fn == nil {
		return errNilTransaction
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t := &tx{st: s.state, readOnly: true}
	err := fn(t)
	t.done = true
	return err
}

type state struct {
	plans         map[string]kos.Plan
	subscriptions map[uuid.UUID]kos.Subscription
	properties    map[uuid.UUID]kos.Property
	rooms         map[uuid.UUID]kos.Room
	tenants       map[uuid.UUID]kos.Tenant
	bills         map[uuid.UUID]kos.Bill
	items         map[uuid.UUID][]kos.BillItem
	payments      map[uuid.UUID]kos.Payment
}

func newState() *state {
	return &state{
		plans:         make(map[string]kos.Plan),
		subscriptions: make(map[uuid.UUID]kos.Subscription),
		properties:    make(map[uuid.UUID]kos.Property),
		rooms:         make(map[uuid.UUID]kos.Room),
		tenants:       make(map[uuid.UUID]kos.Tenant),
		bills:         make(map[uuid.UUID]kos.Bill),
		items:         make(map[uuid.UUID][]kos.BillItem),
		payments:      make(map[uuid.UUID]kos.Payment),
	}
}

// clone copies the maps. Row values are copied on every read and write, so
// the rows themselves can be shared.
func (st *state) clone() *state {
	return &state{
		plans:         maps.Clone(st.plans),
		subscriptions: maps.Clone(st.subscriptions),
		properties:    maps.Clone(st.properties),
		rooms:         maps.Clone(st.rooms),
		tenants:       maps.Clone(st.tenants),
		bills:         maps.Clone(st.bills),
		items:         maps.Clone(st.items),
		payments:      maps.Clone(st.payments),
	}
}

type tx struct {
	st       *state
	readOnly bool
	done     bool
}

var _ kos.Tx = (*tx)(nil)

func (t *tx) writable() error {
	switch {
	case t.done:
		return ErrTxAfterCommit
	case t.readOnly:
		return ErrReadOnly
	}
	return nil
}

func (t *tx) readable() error {
	if t.done {
		return ErrTxAfterCommit
	}
	return nil
}

func sorted[T any](m map[uuid.UUID]T, keep func(T) bool, cmp func(a, b T) int) []T {
	out := make([]T, 0)
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, cmp)
	return out
}
