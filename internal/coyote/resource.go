package coyote

import "fmt"

// Lock is a controlled mutual-exclusion resource. Acquiring and releasing
// it are themselves scheduling points (Acquire, Release), so contention
// over a Lock is explored by the scheduler exactly like a Send or Receive
// rather than resolved by the host's real mutex semantics.
type Lock struct {
	rt   *Runtime
	name string

	// held is the ID of the operation currently holding the lock, or -1
	// when it is free. Guarded by rt.mu.
	held int

	// waiters holds operations parked in StatusBlockedOnResource, in FIFO
	// order, so a Release always wakes the longest-waiting operation.
	waiters []*Operation
}

// NewLock creates a Lock owned by rt, named for trace and bug messages.
func (rt *Runtime) NewLock(name string) *Lock {
	return &Lock{rt: rt, name: name, held: -1}
}

// String implements fmt.Stringer.
func (l *Lock) String() string {
	return fmt.Sprintf("Lock(%s)", l.name)
}

// Acquire blocks op until it holds l exclusively. It is an Acquire
// scheduling point: the caller always yields the baton, whether or not it
// had to wait.
func (l *Lock) Acquire(op *Operation) {
	rt := l.rt

	rt.mu.Lock()

	if l.held == -1 {
		l.held = op.ID
		rt.mu.Unlock()

		rt.completeSchedulingStep(op, true)

		return
	}

	op.status = StatusBlockedOnResource
	l.waiters = append(l.waiters, op)

	rt.mu.Unlock()

	// Parks here until a Release grants this operation ownership and
	// re-enables it; when the baton is handed back l already holds the
	// lock on op's behalf.
	rt.completeSchedulingStep(op, true)
}

// Release gives up op's hold on l, handing it to the longest-waiting
// queued operation if any. It is a Release scheduling point. Releasing a
// lock op does not hold is reported as an assertion failure.
func (l *Lock) Release(op *Operation) {
	rt := l.rt

	rt.mu.Lock()

	if l.held != op.ID {
		rt.mu.Unlock()

		rt.Assert(false, "release: operation %d does not hold %s", op.ID, l)

		return
	}

	l.held = -1

	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.held = next.ID
		next.status = StatusEnabled
	}

	rt.mu.Unlock()

	rt.completeSchedulingStep(op, true)
}

// SharedCell is a controlled shared-memory location: every access passes
// through a scheduling point, so the scheduler can interleave concurrent
// reads and writes to it exactly like a Send or Receive instead of the
// host scheduler resolving them arbitrarily.
type SharedCell[T any] struct {
	rt    *Runtime
	name  string
	value T
}

// NewSharedCell creates a SharedCell owned by rt, holding initial until
// written.
func NewSharedCell[T any](rt *Runtime, name string, initial T) *SharedCell[T] {
	return &SharedCell[T]{rt: rt, name: name, value: initial}
}

// String implements fmt.Stringer.
func (c *SharedCell[T]) String() string {
	return fmt.Sprintf("SharedCell(%s)", c.name)
}

// Read returns c's current value. It is a Read scheduling point: the
// calling operation yields the baton immediately after the read, so any
// other operation may run before the value is acted on.
func (c *SharedCell[T]) Read(op *Operation) T {
	c.rt.mu.Lock()
	v := c.value
	c.rt.mu.Unlock()

	c.rt.completeSchedulingStep(op, true)

	return v
}

// Write stores v into c. It is a Write scheduling point.
func (c *SharedCell[T]) Write(op *Operation, v T) {
	c.rt.mu.Lock()
	c.value = v
	c.rt.mu.Unlock()

	c.rt.completeSchedulingStep(op, true)
}

// ReadCell reads c on behalf of the actor ctx belongs to.
func ReadCell[T any](ctx *ActorContext, c *SharedCell[T]) T {
	ctx.requireActor("ReadCell")
	return c.Read(ctx.actor.op)
}

// WriteCell writes v to c on behalf of the actor ctx belongs to.
func WriteCell[T any](ctx *ActorContext, c *SharedCell[T], v T) {
	ctx.requireActor("WriteCell")
	c.Write(ctx.actor.op, v)
}

// Acquire acquires l on behalf of the actor this context belongs to.
func (ctx *ActorContext) Acquire(l *Lock) {
	ctx.requireActor("Acquire")
	l.Acquire(ctx.actor.op)
}

// Release releases l on behalf of the actor this context belongs to.
func (ctx *ActorContext) Release(l *Lock) {
	ctx.requireActor("Release")
	l.Release(ctx.actor.op)
}

// allCompleted reports whether every operation in ops has completed.
func allCompleted(ops []*Operation) bool {
	for _, op := range ops {
		if op.status != StatusCompleted {
			return false
		}
	}

	return true
}

// firstCompleted returns the first completed operation in ops, if any.
func firstCompleted(ops []*Operation) (*Operation, bool) {
	for _, op := range ops {
		if op.status == StatusCompleted {
			return op, true
		}
	}

	return nil, false
}

// checkWaitersLocked re-enables any WaitAll/WaitAny operation whose
// condition is now satisfied. Callers must hold rt.mu.
func (rt *Runtime) checkWaitersLocked() {
	for opID, targets := range rt.waitAllWaiters {
		if allCompleted(targets) {
			rt.opByID[opID].status = StatusEnabled
			delete(rt.waitAllWaiters, opID)
		}
	}

	for opID, targets := range rt.waitAnyWaiters {
		if _, ok := firstCompleted(targets); ok {
			rt.opByID[opID].status = StatusEnabled
			delete(rt.waitAnyWaiters, opID)
		}
	}
}

// WaitAllActors blocks the calling operation until every actor in targets
// has halted. It is a WaitAll scheduling point.
func (rt *Runtime) WaitAllActors(op *Operation, targets []ActorId) error {
	rt.mu.Lock()

	ops, err := rt.resolveActorOpsLocked(targets)
	if err != nil {
		rt.mu.Unlock()
		return err
	}

	if allCompleted(ops) {
		rt.mu.Unlock()
		return nil
	}

	op.status = StatusBlockedOnWaitAll

	if rt.waitAllWaiters == nil {
		rt.waitAllWaiters = make(map[int][]*Operation)
	}

	rt.waitAllWaiters[op.ID] = ops

	rt.mu.Unlock()

	rt.completeSchedulingStep(op, true)

	return nil
}

// WaitAnyActor blocks the calling operation until at least one actor in
// targets has halted, returning that actor's id. It is a WaitAny
// scheduling point.
func (rt *Runtime) WaitAnyActor(op *Operation, targets []ActorId) (ActorId, error) {
	rt.mu.Lock()

	ops, err := rt.resolveActorOpsLocked(targets)
	if err != nil {
		rt.mu.Unlock()
		return ActorId{}, err
	}

	if done, ok := firstCompleted(ops); ok {
		rt.mu.Unlock()
		return done.actorID, nil
	}

	op.status = StatusBlockedOnWaitAny

	if rt.waitAnyWaiters == nil {
		rt.waitAnyWaiters = make(map[int][]*Operation)
	}

	rt.waitAnyWaiters[op.ID] = ops

	rt.mu.Unlock()

	rt.completeSchedulingStep(op, true)

	rt.mu.Lock()
	defer rt.mu.Unlock()

	done, _ := firstCompleted(ops)

	return done.actorID, nil
}

// resolveActorOpsLocked maps targets to their owning Operations. Callers
// must hold rt.mu.
func (rt *Runtime) resolveActorOpsLocked(targets []ActorId) ([]*Operation, error) {
	ops := make([]*Operation, 0, len(targets))

	for _, id := range targets {
		a, ok := rt.actors[id.String()]
		if !ok {
			return nil, fmt.Errorf("coyote: wait: unknown actor %s", id)
		}

		ops = append(ops, a.op)
	}

	return ops, nil
}

// WaitAll blocks until every actor in targets has halted.
func (ctx *ActorContext) WaitAll(targets ...ActorId) error {
	ctx.requireActor("WaitAll")
	return ctx.rt.WaitAllActors(ctx.actor.op, targets)
}

// WaitAny blocks until at least one actor in targets has halted, returning
// its id.
func (ctx *ActorContext) WaitAny(targets ...ActorId) (ActorId, error) {
	ctx.requireActor("WaitAny")
	return ctx.rt.WaitAnyActor(ctx.actor.op, targets)
}
