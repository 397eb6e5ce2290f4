package coyote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type bumpEvent struct{ BaseEvent }

func (bumpEvent) EventType() string { return "bump" }

// TestLockSerializesAccessAcrossActors drives two actors that each acquire
// the same Lock, increment a shared counter with a deliberate gap between
// read and write, then release, across every interleaving the scheduler
// explores. A torn update would leave counter != 2.
func TestLockSerializesAccessAcrossActors(t *testing.T) {
	t.Parallel()

	counter := 0

	var lock *Lock

	bumper, err := NewFlatMachineDescriptor("bumper", map[string]HandlerDecl{
		"bump": ActionHandler{Action: func(ctx *ActorContext, ev Event) {
			ctx.Acquire(lock)
			seen := counter
			counter = seen + 1
			ctx.Release(lock)
		}},
	}, nil, nil)
	require.NoError(t, err)

	for seed := int64(1); seed <= 12; seed++ {
		counter = 0

		testFn := func(rt *Runtime) error {
			lock = rt.NewLock("counter")

			a, err := rt.CreateActor(bumper, "a", nil, NilEventGroup)
			if err != nil {
				return err
			}

			b, err := rt.CreateActor(bumper, "b", nil, NilEventGroup)
			if err != nil {
				return err
			}

			if err := rt.SendEvent(ActorId{}, a, bumpEvent{}, NilEventGroup); err != nil {
				return err
			}

			return rt.SendEvent(ActorId{}, b, bumpEvent{}, NilEventGroup)
		}

		cfg := NewConfig(WithTestingIterations(1), WithRandomSeed(seed), WithDeadlockTimeout(2*time.Second))
		rt, err := NewRuntime(cfg)
		require.NoError(t, err)

		results := rt.RunTest(testFn)
		require.Len(t, results, 1)
		require.Empty(t, results[0].Bugs)
		require.Equal(t, 2, counter, "seed %d: lock must serialize the read-modify-write", seed)
	}
}

// TestSharedCellUnprotectedUpdateCanBeLost drives the same two-actor bump
// as TestLockSerializesAccessAcrossActors but through a bare SharedCell:
// the Read and Write are separate scheduling points with no Lock between
// them, so some explored interleaving must let actor b's read observe
// actor a's stale value and overwrite a's increment.
func TestSharedCellUnprotectedUpdateCanBeLost(t *testing.T) {
	t.Parallel()

	var cell *SharedCell[int]

	bumper, err := NewFlatMachineDescriptor("bumper", map[string]HandlerDecl{
		"bump": ActionHandler{Action: func(ctx *ActorContext, ev Event) {
			seen := ReadCell(ctx, cell)
			WriteCell(ctx, cell, seen+1)
		}},
	}, nil, nil)
	require.NoError(t, err)

	sawLostUpdate := false

	for seed := int64(1); seed <= 30; seed++ {
		testFn := func(rt *Runtime) error {
			cell = NewSharedCell(rt, "counter", 0)

			a, err := rt.CreateActor(bumper, "a", nil, NilEventGroup)
			if err != nil {
				return err
			}

			b, err := rt.CreateActor(bumper, "b", nil, NilEventGroup)
			if err != nil {
				return err
			}

			if err := rt.SendEvent(ActorId{}, a, bumpEvent{}, NilEventGroup); err != nil {
				return err
			}

			return rt.SendEvent(ActorId{}, b, bumpEvent{}, NilEventGroup)
		}

		cfg := NewConfig(WithTestingIterations(1), WithRandomSeed(seed), WithDeadlockTimeout(2*time.Second))
		rt, err := NewRuntime(cfg)
		require.NoError(t, err)

		results := rt.RunTest(testFn)
		require.Len(t, results, 1)
		require.Empty(t, results[0].Bugs)

		if cell.value != 2 {
			sawLostUpdate = true
			break
		}
	}

	require.True(t, sawLostUpdate, "expected at least one seed to interleave a and b between Read and Write")
}

// TestLockReleaseByNonHolderIsAnAssertionFailure exercises the fail-closed
// path: releasing a Lock an operation does not hold must surface as a bug
// rather than silently corrupting the waiter queue.
func TestLockReleaseByNonHolderIsAnAssertionFailure(t *testing.T) {
	t.Parallel()

	rt := &Runtime{done: make(chan struct{})}
	l := rt.NewLock("x")

	holder := newOperation(1, "holder", "")
	l.held = holder.ID

	intruder := newOperation(2, "intruder", "")
	l.Release(intruder)

	require.Len(t, rt.bugs, 1)
	require.Equal(t, KindAssertionFailure, rt.bugs[0].Kind)
}

// TestWaitAllActorsBlocksUntilEveryTargetHalts has the test body wait on
// two workers that halt themselves, and checks that the iteration ends
// with no bug (in particular, no deadlock).
func TestWaitAllActorsBlocksUntilEveryTargetHalts(t *testing.T) {
	t.Parallel()

	worker, err := NewFlatMachineDescriptor("worker", map[string]HandlerDecl{
		"bump": ActionHandler{Action: func(ctx *ActorContext, ev Event) {
			ctx.Send(ctx.Self(), HaltEvent)
		}},
	}, nil, nil)
	require.NoError(t, err)

	testFn := func(rt *Runtime) error {
		w1, err := rt.CreateActor(worker, "w1", nil, NilEventGroup)
		if err != nil {
			return err
		}

		w2, err := rt.CreateActor(worker, "w2", nil, NilEventGroup)
		if err != nil {
			return err
		}

		if err := rt.SendEvent(ActorId{}, w1, bumpEvent{}, NilEventGroup); err != nil {
			return err
		}

		if err := rt.SendEvent(ActorId{}, w2, bumpEvent{}, NilEventGroup); err != nil {
			return err
		}

		return rt.WaitAllActors(rt.rootOp, []ActorId{w1, w2})
	}

	cfg := NewConfig(WithTestingIterations(1), WithRandomSeed(1), WithDeadlockTimeout(2*time.Second))
	rt, err := NewRuntime(cfg)
	require.NoError(t, err)

	results := rt.RunTest(testFn)
	require.Len(t, results, 1)
	require.Empty(t, results[0].Bugs)
}

// TestWaitAnyActorReturnsAsSoonAsOneTargetHalts checks WaitAny unblocks
// once any single target of a larger set has completed.
func TestWaitAnyActorReturnsAsSoonAsOneTargetHalts(t *testing.T) {
	t.Parallel()

	quick, err := NewFlatMachineDescriptor("quick", map[string]HandlerDecl{}, nil, nil)
	require.NoError(t, err)

	stuck, err := NewFlatMachineDescriptor("stuck", map[string]HandlerDecl{}, nil, nil)
	require.NoError(t, err)

	var winner ActorId

	testFn := func(rt *Runtime) error {
		q, err := rt.CreateActor(quick, "q", nil, NilEventGroup)
		if err != nil {
			return err
		}

		s, err := rt.CreateActor(stuck, "s", nil, NilEventGroup)
		if err != nil {
			return err
		}

		if err := rt.SendEvent(ActorId{}, q, HaltEvent, NilEventGroup); err != nil {
			return err
		}

		winner, err = rt.WaitAnyActor(rt.rootOp, []ActorId{q, s})
		if err != nil {
			return err
		}

		return rt.SendEvent(ActorId{}, s, HaltEvent, NilEventGroup)
	}

	cfg := NewConfig(WithTestingIterations(1), WithRandomSeed(1), WithDeadlockTimeout(2*time.Second))
	rt, err := NewRuntime(cfg)
	require.NoError(t, err)

	results := rt.RunTest(testFn)
	require.Len(t, results, 1)
	require.Empty(t, results[0].Bugs)
	require.Equal(t, "q", winner.name)
}
