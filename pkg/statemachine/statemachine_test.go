package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/koskit/pkg/statemachine"
)

const (
	Available   = statemachine.StringState("available")
	Occupied    = statemachine.StringState("occupied")
	Maintenance = statemachine.StringState("maintenance")

	CheckIn  = statemachine.StringEvent("check_in")
	CheckOut = statemachine.StringEvent("check_out")
	Repair   = statemachine.StringEvent("repair")
	Release  = statemachine.StringEvent("release")
)

func rooms(t *testing.T, opts ...statemachine.Option) *statemachine.Table {
	t.Helper()
	base := []statemachine.Option{
		statemachine.WithTransition(Available, Occupied, CheckIn),
		statemachine.WithTransition(Occupied, Available, CheckOut),
		statemachine.WithTransition(Available, Maintenance, Repair),
		statemachine.WithTransition(Maintenance, Available, Release),
	}
	table, err := statemachine.New(append(base, opts...)...)
	require.NoError(t, err)
	return table
}

func TestTable_Fire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	table := rooms(t)

	tests := []struct {
		name  string
		from  statemachine.State
		event statemachine.Event
		want  statemachine.State
	}{
		{"check in", Available, CheckIn, Occupied},
		{"check out", Occupied, CheckOut, Available},
		{"repair", Available, Repair, Maintenance},
		{"release", Maintenance, Release, Available},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next, err := table.Fire(ctx, tt.from, tt.event, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestTable_NoTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	table := rooms(t)

	_, err := table.Fire(ctx, Occupied, Repair, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, statemachine.ErrNoTransition)
	assert.NotErrorIs(t, err, statemachine.ErrGuardRejected)
	assert.Contains(t, err.Error(), "occupied")
	assert.Contains(t, err.Error(), "repair")

	_, err = table.Fire(ctx, statemachine.StringState("unknown"), CheckIn, nil)
	assert.ErrorIs(t, err, statemachine.ErrNoTransition)

	assert.False(t, table.Can(ctx, Occupied, CheckIn, nil))
	assert.True(t, table.Can(ctx, Available, CheckIn, nil))
}

func TestTable_NilArguments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	table := rooms(t)

	_, err := table.Fire(ctx, nil, CheckIn, nil)
	assert.ErrorIs(t, err, statemachine.ErrInvalidState)

	_, err = table.Fire(ctx, Available, nil, nil)
	assert.ErrorIs(t, err, statemachine.ErrInvalidEvent)

	assert.False(t, table.Can(ctx, nil, CheckIn, nil))
	assert.Nil(t, table.Events(nil))
}

func TestTable_Guards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type payload struct{ activeTenant bool }
	noActiveTenant := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		p, ok := data.(payload)
		return ok && !p.activeTenant
	}

	table, err := statemachine.New(
		statemachine.WithTransition(Available, Maintenance, Repair, statemachine.WithGuard(noActiveTenant)),
	)
	require.NoError(t, err)

	next, err := table.Fire(ctx, Available, Repair, payload{})
	require.NoError(t, err)
	assert.Equal(t, Maintenance, next)

	_, err = table.Fire(ctx, Available, Repair, payload{activeTenant: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, statemachine.ErrGuardRejected)
	assert.False(t, table.Can(ctx, Available, Repair, payload{activeTenant: true}))
}

func TestTable_GuardBranching(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	const (
		Unpaid  = statemachine.StringState("unpaid")
		Paid    = statemachine.StringState("paid")
		Partial = statemachine.StringState("partial")
		Pay     = statemachine.StringEvent("pay")
	)
	full := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		return data.(int) >= 100
	}

	table := statemachine.MustNew(
		statemachine.WithTransition(Unpaid, Paid, Pay, statemachine.WithGuard(full)),
		statemachine.WithTransition(Unpaid, Partial, Pay),
	)

	next, err := table.Fire(ctx, Unpaid, Pay, 100)
	require.NoError(t, err)
	assert.Equal(t, Paid, next)

	next, err = table.Fire(ctx, Unpaid, Pay, 10)
	require.NoError(t, err)
	assert.Equal(t, Partial, next)
}

func TestTable_Actions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls []string
	record := func(name string) statemachine.Action {
		return func(_ context.Context, from, to statemachine.State, _ statemachine.Event, _ any) error {
			calls = append(calls, name+":"+from.Name()+"->"+to.Name())
			return nil
		}
	}
	boom := errors.New("boom")

	table := statemachine.MustNew(
		statemachine.WithTransition(Available, Occupied, CheckIn,
			statemachine.WithAction(record("first"), nil, record("second"))),
		statemachine.WithTransition(Occupied, Available, CheckOut,
			statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
				return boom
			})),
	)

	_, err := table.Fire(ctx, Available, CheckIn, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first:available->occupied", "second:available->occupied"}, calls)

	_, err = table.Fire(ctx, Occupied, CheckOut, nil)
	assert.ErrorIs(t, err, boom)

	calls = nil
	assert.True(t, table.Can(ctx, Available, CheckIn, nil))
	assert.Empty(t, calls, "Can must not run actions")
}

func TestTable_Events(t *testing.T) {
	t.Parallel()
	table := rooms(t)
	assert.Equal(t, []string{"check_in", "repair"}, table.Events(Available))
	assert.Equal(t, []string{"check_out"}, table.Events(Occupied))
	assert.Empty(t, table.Events(statemachine.StringState("unknown")))
}

func TestNew_InvalidTransition(t *testing.T) {
	t.Parallel()

	_, err := statemachine.New(statemachine.WithTransition(nil, Occupied, CheckIn))
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	_, err = statemachine.New(statemachine.WithTransitions(
		statemachine.Transition{From: Available, To: Occupied, Event: CheckIn},
		statemachine.Transition{From: Occupied, Event: CheckOut},
	))
	require.ErrorIs(t, err, statemachine.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "transition[1] occupied-><nil> on check_out")

	assert.Panics(t, func() {
		statemachine.MustNew(statemachine.WithTransition(Available, nil, CheckIn))
	})
}

func TestTable_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	table := rooms(t)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, err := table.Fire(ctx, Available, CheckIn, nil)
			assert.NoError(t, err)
			assert.Equal(t, Occupied, next)
		}()
	}
	wg.Wait()
}
