package coyote

// sendOptions configures a single SendEvent call.
type sendOptions struct {
	group      *EventGroup
	mustHandle bool
}

// SendOption customizes a SendEvent call, following this module's usual
// functional-options convention.
type SendOption func(*sendOptions)

// WithGroup overrides the event's correlation group instead of inheriting
// the sender's current group.
func WithGroup(g EventGroup) SendOption {
	return func(o *sendOptions) { o.group = &g }
}

// WithMustHandle marks the event so that, if it is still in the target's
// mailbox when the target halts, the drop is reported as an
// AssertionFailure rather than silently discarded.
func WithMustHandle() SendOption {
	return func(o *sendOptions) { o.mustHandle = true }
}

// pendingKind names the at-most-one transition an action may request.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingRaise
	pendingGoto
	pendingPush
	pendingPop
)

// ActorContext is the handle passed to entry/exit/action functions. It is
// the only way client code should reach the owning Actor and Runtime: every
// method funnels back through the Runtime's scheduling points so the
// controlled scheduler observes every externally visible effect.
//
// The same type backs monitor handlers (monitor.go), where actor is nil:
// monitor dispatch is synchronous and must not cross a scheduling point, so
// the actor-only methods (Send, CreateActor, Receive, and their *AndExecute
// variants) panic if called with actor == nil rather than silently
// blocking forever.
type ActorContext struct {
	actor *Actor
	rt    *Runtime
	ev    Event

	pending    pendingKind
	raiseEnv   envelope
	gotoTarget StateName
	pushTarget StateName
	violation  *BugFound
}

// newActorContext builds the context for a single actor dispatch.
func newActorContext(a *Actor, ev Event) *ActorContext {
	return &ActorContext{actor: a, rt: a.rt, ev: ev}
}

// requireActor panics if this context does not belong to a running actor,
// used to guard actor-only operations from monitor handlers.
func (ctx *ActorContext) requireActor(op string) {
	if ctx.actor == nil {
		panic("coyote: monitor handler called " + op + ", which requires a running actor")
	}
}

// beginAction resets per-invocation pending-transition bookkeeping. Called
// once before each ActionHandler invocation.
func (ctx *ActorContext) beginAction() {
	ctx.pending = pendingNone
	ctx.violation = nil
}

// setPending records kind as the invocation's requested transition,
// recording an AssertionFailure violation (S1) if one was already
// requested.
func (ctx *ActorContext) setPending(kind pendingKind) bool {
	if ctx.pending != pendingNone {
		evType := "<none>"
		if ctx.ev != nil {
			evType = ctx.ev.EventType()
		}

		ctx.violation = &BugFound{
			Kind: KindAssertionFailure,
			Message: "actor " + ctx.actor.id.String() +
				": action for event " + evType +
				" requested more than one raise/goto/push/pop",
		}

		return false
	}

	ctx.pending = kind

	return true
}

// RaiseEvent requests that e be processed by this actor immediately after
// the current action returns, ahead of anything already in the mailbox
// (I1). At most one raise/goto/push/pop may be requested per invocation
// (S1).
func (ctx *ActorContext) RaiseEvent(e Event) {
	if !ctx.setPending(pendingRaise) {
		return
	}

	ctx.raiseEnv = envelope{event: e, group: ctx.actor.group}
}

// RaiseGotoStateEvent requests a transition to target after the current
// action returns.
func (ctx *ActorContext) RaiseGotoStateEvent(target StateName) {
	if !ctx.setPending(pendingGoto) {
		return
	}

	ctx.gotoTarget = target
}

// RaisePushStateEvent requests that target be pushed as a nested active
// state after the current action returns.
func (ctx *ActorContext) RaisePushStateEvent(target StateName) {
	if !ctx.setPending(pendingPush) {
		return
	}

	ctx.pushTarget = target
}

// RaisePopStateEvent requests that the current active state be popped
// after the current action returns.
func (ctx *ActorContext) RaisePopStateEvent() {
	ctx.setPending(pendingPop)
}

// applyPendingTransition performs whatever ctx.pending requested once an
// ActionHandler invocation has returned.
func (ctx *ActorContext) applyPendingTransition(mi *machineInstance) *BugFound {
	if ctx.violation != nil {
		return ctx.violation
	}

	switch ctx.pending {
	case pendingRaise:
		ctx.actor.mailbox.Raise(ctx.raiseEnv)
	case pendingGoto:
		cur := mi.current()
		if cur.OnExit != nil {
			cur.OnExit(ctx)
		}

		mi.gotoState(ctx.gotoTarget)

		target := mi.current()
		if target.OnEntry != nil {
			target.OnEntry(ctx)
		}
	case pendingPush:
		mi.pushState(ctx, ctx.pushTarget)
	case pendingPop:
		mi.popState(ctx)
	}

	return nil
}

// Self returns the id of the actor this context belongs to.
func (ctx *ActorContext) Self() ActorId {
	ctx.requireActor("Self")
	return ctx.actor.id
}

// Group returns the correlation group of the event currently being
// handled. For a monitor context (no owning actor) this is always
// NilEventGroup.
func (ctx *ActorContext) Group() EventGroup {
	if ctx.actor == nil {
		return NilEventGroup
	}

	return ctx.actor.group
}

// Send delivers e to target, inheriting the current handling's group
// unless overridden by WithGroup.
func (ctx *ActorContext) Send(target ActorId, e Event, opts ...SendOption) error {
	ctx.requireActor("Send")
	return ctx.rt.SendEvent(ctx.actor.id, target, e, ctx.actor.group, opts...)
}

// CreateActor creates a new actor running desc, returning its id.
func (ctx *ActorContext) CreateActor(desc *MachineDescriptor, name string, initial Event) (ActorId, error) {
	ctx.requireActor("CreateActor")
	return ctx.rt.CreateActor(desc, name, initial, ctx.actor.group)
}

// SendAndExecute sends e to target and blocks this actor until target
// reaches quiescence.
func (ctx *ActorContext) SendAndExecute(target ActorId, e Event, opts ...SendOption) error {
	ctx.requireActor("SendAndExecute")

	if err := ctx.rt.SendEvent(ctx.actor.id, target, e, ctx.actor.group, opts...); err != nil {
		return err
	}

	return ctx.actor.waitQuiescent(target)
}

// CreateAndExecute creates a new actor running desc and blocks this actor
// until it reaches quiescence.
func (ctx *ActorContext) CreateAndExecute(desc *MachineDescriptor, name string, initial Event) (ActorId, error) {
	ctx.requireActor("CreateAndExecute")

	id, err := ctx.rt.CreateActor(desc, name, initial, ctx.actor.group)
	if err != nil {
		return ActorId{}, err
	}

	if err := ctx.actor.waitQuiescent(id); err != nil {
		return id, err
	}

	return id, nil
}

// Receive blocks this actor's handler until an event whose type is one of
// eventTypes is available, installing a receive filter for the duration
// (I2: at most one outstanding receive per mailbox).
func (ctx *ActorContext) Receive(eventTypes ...string) (Event, error) {
	ctx.requireActor("Receive")
	return ctx.actor.receive(eventTypes, nil)
}

// Assert raises an AssertionFailure bug if cond is false.
func (ctx *ActorContext) Assert(cond bool, format string, args ...any) {
	ctx.rt.Assert(cond, format, args...)
}

// RandomBoolean asks the exploration strategy for the next boolean choice.
func (ctx *ActorContext) RandomBoolean() bool {
	ctx.requireActor("RandomBoolean")
	return ctx.rt.randomBoolean(ctx.actor.op)
}

// RandomInteger asks the exploration strategy for the next integer choice
// in [0, max).
func (ctx *ActorContext) RandomInteger(max int) int {
	ctx.requireActor("RandomInteger")
	return ctx.rt.randomInteger(ctx.actor.op, max)
}

// Actor is a scheduler-visible actor: a mailbox, a hierarchical state
// machine instance, and the Operation the Runtime schedules it as. Its
// handler loop runs on a dedicated goroutine that the Runtime's baton
// gates to at most one runnable goroutine at a time.
type Actor struct {
	id      ActorId
	rt      *Runtime
	mailbox *Mailbox
	machine *machineInstance
	op      *Operation

	group  EventGroup
	halted bool
}

// NewFlatMachineDescriptor builds a single-state MachineDescriptor, the
// shape used by actors that do not need hierarchical states: one flat
// handler table plus ignore/defer sets.
func NewFlatMachineDescriptor(name string, handlers map[string]HandlerDecl, ignored, deferred []string) (*MachineDescriptor, error) {
	b := NewState(StateName(name))
	b.Start()

	for t, h := range handlers {
		b = b.OnEvent(t, h)
	}

	b = b.Ignore(ignored...).Defer(deferred...)

	s, err := b.Build()
	if err != nil {
		return nil, err
	}

	return NewMachineDescriptor(name, s)
}

func newActor(id ActorId, rt *Runtime, desc *MachineDescriptor, op *Operation) *Actor {
	return &Actor{
		id:      id,
		rt:      rt,
		mailbox: NewMailbox(),
		machine: newMachineInstance(desc),
		op:      op,
	}
}

// run is the actor's handler loop: dequeue, dispatch, yield at the Receive
// scheduling point, repeat, until Halt is dequeued or the owning Operation
// is forcibly completed.
func (a *Actor) run() {
	defer a.rt.actorFinished(a)

	ctx := newActorContext(a, nil)
	if s := a.machine.current(); s.OnEntry != nil {
		s.OnEntry(ctx)
	}

	for {
		ignored, deferred := allIgnoredAndDeferred(a.machine.stack)

		res := a.mailbox.Dequeue(ignored, deferred)
		if !res.Ok {
			if a.machine.hasDefaultHandler() {
				a.dispatchOne(envelope{event: DefaultEvent})

				if a.halted {
					return
				}

				a.op.stateHash = computeStateHash(a)
				a.rt.yieldAfterDispatch(a.op)

				continue
			}

			a.op.stateHash = computeStateHash(a)
			a.rt.blockOnReceive(a.op)

			if a.halted {
				return
			}

			continue
		}

		env := res.Env

		if env.event.EventType() == HaltEvent.EventType() {
			a.runHaltSequence()
			return
		}

		a.dispatchOne(env)

		if a.halted {
			return
		}

		a.op.stateHash = computeStateHash(a)
		a.rt.yieldAfterDispatch(a.op)
	}
}

// dispatchOne runs the hierarchical dispatch algorithm for one envelope,
// reporting any resulting bug to the Runtime.
func (a *Actor) dispatchOne(env envelope) {
	a.group = env.group

	ctx := newActorContext(a, env.event)
	from := a.machine.current().Name

	if bug := a.machine.dispatch(ctx, env.event); bug != nil {
		bug.ActorID = a.id.String()
		a.rt.reportBug(bug)
	}

	a.rt.coverage.Record(a.machine.desc.Name, string(from), env.event.EventType(), string(a.machine.current().Name))
}

// receive is the shared implementation behind ActorContext.Receive and
// quiescence waits: install a filter, then block at Receive points until
// it is satisfied.
func (a *Actor) receive(eventTypes []string, predicate func(Event) bool) (Event, error) {
	if err := a.mailbox.InstallFilter(eventTypes, predicate, false); err != nil {
		return nil, err
	}

	for {
		if env, ok := a.mailbox.TryConsumeForFilter(); ok {
			a.group = env.group
			return env.event, nil
		}

		a.op.stateHash = computeStateHash(a)
		a.rt.blockOnReceive(a.op)

		if a.halted {
			a.mailbox.ClearFilter()
			return nil, ErrActorTerminated
		}
	}
}

// waitQuiescent blocks until target becomes quiescent (its mailbox runs
// dry and it blocks awaiting more events), used by CreateAndExecute and
// SendAndExecute.
func (a *Actor) waitQuiescent(target ActorId) error {
	a.rt.addQuiescenceWaiter(target, a.id)

	qType := NewQuiescentEvent(target).EventType()

	_, err := a.receive([]string{qType}, func(ev Event) bool {
		qe, ok := ev.(quiescentEvent)
		return ok && qe.ActorID.Equal(target)
	})

	return err
}

// runHaltSequence executes the Halt protocol: exit actions up the active
// state stack, then close the mailbox and drain any
// remaining envelopes, asserting on any that were marked MustHandle.
func (a *Actor) runHaltSequence() {
	ctx := newActorContext(a, HaltEvent)

	for i := len(a.machine.stack) - 1; i >= 0; i-- {
		if s := a.machine.stack[i]; s.OnExit != nil {
			s.OnExit(ctx)
		}
	}

	remaining := a.mailbox.Close()

	log.Debugf("halt actor=%s pending=%d", a.id, len(remaining))

	for _, env := range remaining {
		if env.mustHandle {
			a.rt.Assert(false, "actor %s halted with undelivered must-handle event %s",
				a.id, env.event.EventType())
		}
	}

	a.halted = true
}
