package coyote

import (
	"fmt"
	"sync"
	"time"

	"github.com/pipeline-foundation/coyote-sub000/internal/coyote/strategy"
)

// TestFunc is the entry point of one controlled iteration: it runs on the
// root operation (the "test body"), creating and sending to actors through
// rt exactly like an actor's own action would through an ActorContext.
type TestFunc func(rt *Runtime) error

// rootOperationID is the fixed operation ID of the test-body pseudo-actor,
// always created first in every iteration.
const rootOperationID = 0

// Runtime is the controlled scheduler: it owns every Actor
// and Operation created during an iteration and is the only path through
// which they observe each other, so every externally visible effect passes
// through a scheduling point. At most one goroutine is ever actually
// running application code at a time; every other participant is parked
// receiving on its Operation's turn channel.
type Runtime struct {
	config Config
	strat  strategy.ExplorationStrategy

	coverage *coverageTracker
	stateCache *stateHashCache

	mu sync.Mutex

	// --- per-iteration state, reset by resetForIteration ---

	iteration   int
	stepCount   int
	currentOpID int
	nextOpID    int

	operations []*Operation
	opByID     map[int]*Operation

	actors map[string]*Actor

	quiescenceWaiters map[string][]ActorId

	// waitAllWaiters/waitAnyWaiters track operations parked in
	// StatusBlockedOnWaitAll/StatusBlockedOnWaitAny, keyed by their own
	// operation ID, checked by checkWaitersLocked whenever another
	// operation completes.
	waitAllWaiters map[int][]*Operation
	waitAnyWaiters map[int][]*Operation

	monitorDescs map[string]*MachineDescriptor
	monitors     map[string]*monitorInstance

	trace *Trace
	bugs  []*BugFound

	finished bool
	done     chan struct{}

	rootOp *Operation
}

// NewRuntime builds a Runtime from cfg, constructing its exploration
// strategy from Config.StrategyName/StrategyBound.
func NewRuntime(cfg Config) (*Runtime, error) {
	cache, err := newStateHashCache(4096)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		config:     cfg,
		coverage:   newCoverageTracker(),
		stateCache: cache,
	}

	strat, err := buildStrategy(cfg)
	if err != nil {
		return nil, err
	}

	rt.strat = strat

	return rt, nil
}

// buildStrategy constructs the ExplorationStrategy named by cfg.
func buildStrategy(cfg Config) (strategy.ExplorationStrategy, error) {
	switch cfg.StrategyName {
	case "", "random":
		return strategy.NewRandom(cfg.MaxUnfairSchedulingSteps), nil
	case "probabilistic":
		return strategy.NewProbabilistic(cfg.StrategyBound, cfg.MaxUnfairSchedulingSteps), nil
	case "prioritization":
		return strategy.NewPrioritization(cfg.StrategyBound, cfg.MaxUnfairSchedulingSteps), nil
	case "fair-prioritization":
		return strategy.NewFairPrioritization(cfg.StrategyBound, cfg.MaxUnfairSchedulingSteps, cfg.MaxFairSchedulingSteps), nil
	case "replay":
		t, err := LoadTrace(cfg.ReplayTracePath)
		if err != nil {
			return nil, err
		}

		return strategy.NewReplay(t.RecordedChoices()), nil
	default:
		return nil, fmt.Errorf("coyote: unknown strategy %q", cfg.StrategyName)
	}
}

// resetForIteration clears all per-iteration state and installs a fresh
// root operation, ready for a new call to runIteration.
func (rt *Runtime) resetForIteration(iteration int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.iteration = iteration
	rt.stepCount = 0
	rt.nextOpID = 0
	rt.operations = nil
	rt.opByID = make(map[int]*Operation)
	rt.actors = make(map[string]*Actor)
	rt.quiescenceWaiters = make(map[string][]ActorId)
	rt.waitAllWaiters = make(map[int][]*Operation)
	rt.waitAnyWaiters = make(map[int][]*Operation)
	rt.bugs = nil
	rt.finished = false
	rt.done = make(chan struct{})

	rt.resetMonitorsLocked()

	rt.rootOp = newOperation(rootOperationID, "test-body", "")
	rt.rootOp.status = StatusEnabled
	rt.nextOpID = 1
	rt.operations = append(rt.operations, rt.rootOp)
	rt.opByID[rt.rootOp.ID] = rt.rootOp
	rt.currentOpID = rt.rootOp.ID

	// Pre-load the root operation's baton: it is the only operation that
	// exists at the start of an iteration, so it runs immediately rather
	// than waiting on a scheduling decision the way every actor created
	// afterward does.
	rt.rootOp.turn <- struct{}{}

	seed := rt.config.RandomSeed
	if seed == 0 {
		seed = int64(iteration) + 1
	}

	// Reset discards any state InitializeIteration itself doesn't touch
	// (e.g. Prioritization's learned group order) so iteration N+1 never
	// inherits scheduling bias left over from iteration N.
	rt.strat.Reset()
	rt.strat.InitializeIteration(iteration, seed)
	rt.trace = NewTrace(rt.strat.Description(), seed, iteration)
}

// IterationResult is the outcome of one controlled iteration.
type IterationResult struct {
	Iteration int
	Bugs      []*BugFound
	Trace     *Trace
	Coverage  CoverageInfo
	StepCount int
}

// RunTest runs cfg.TestingIterations iterations of testFn, stopping early
// on the first bug found unless Config.RunTestIterationsToCompletion is
// set. It returns one IterationResult per iteration actually run.
func (rt *Runtime) RunTest(testFn TestFunc) []IterationResult {
	var results []IterationResult

	iterations := rt.config.TestingIterations
	if iterations <= 0 {
		iterations = 1
	}

	deadline := time.Time{}
	if rt.config.TestingTimeout > 0 {
		deadline = time.Now().Add(rt.config.TestingTimeout)
	}

	for i := 0; i < iterations; i++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		result := rt.runIteration(i, testFn)
		results = append(results, result)

		if len(result.Bugs) > 0 && !rt.config.RunTestIterationsToCompletion {
			break
		}
	}

	return results
}

// runIteration runs exactly one controlled exploration of testFn.
func (rt *Runtime) runIteration(iteration int, testFn TestFunc) IterationResult {
	rt.resetForIteration(iteration)

	watchdog := time.NewTimer(rt.deadlockTimeout())
	defer watchdog.Stop()

	testDone := make(chan error, 1)

	go func() {
		select {
		case <-rt.rootOp.turn:
		case <-rt.done:
			return
		}

		defer func() {
			if r := recover(); r != nil {
				testDone <- fmt.Errorf("coyote: test body panicked: %v", r)
				return
			}
		}()

		testDone <- testFn(rt)
	}()

	select {
	case err := <-testDone:
		if err != nil {
			rt.reportBug(&BugFound{Kind: KindAssertionFailure, Message: err.Error()})
		} else {
			rt.mu.Lock()
			rt.rootOp.status = StatusCompleted
			rt.mu.Unlock()
			rt.completeSchedulingStep(rt.rootOp, false)
		}

	case <-rt.done:
		// A bug, deadlock, or bound hit already ended the iteration
		// while the test body was still running (it stays running on
		// its own goroutine, parked on the root operation's turn
		// channel, so it leaks until the process exits; Go gives us
		// no way to preempt a goroutine that never yields back).

	case <-watchdog.C:
		if rt.config.ReportPotentialDeadlocksAsBugs {
			rt.reportBug(&BugFound{
				Kind:    KindPotentialDeadlock,
				Message: fmt.Sprintf("no progress for %s", rt.deadlockTimeout()),
			})
		} else {
			rt.mu.Lock()
			shouldClose := rt.finishLocked()
			rt.mu.Unlock()

			if shouldClose {
				close(rt.done)
			}
		}
	}

	<-rt.done

	rt.mu.Lock()
	bugs := append([]*BugFound(nil), rt.bugs...)
	trace := rt.trace
	steps := rt.stepCount
	rt.mu.Unlock()

	return IterationResult{
		Iteration: iteration,
		Bugs:      bugs,
		Trace:     trace,
		Coverage:  rt.coverage.Snapshot(),
		StepCount: steps,
	}
}

func (rt *Runtime) deadlockTimeout() time.Duration {
	if rt.config.DeadlockTimeout > 0 {
		return rt.config.DeadlockTimeout
	}

	return 5 * time.Second
}

// CreateActor creates a new actor running desc under name, delivering
// initial (if non-nil) as its first mailbox entry, and returns its id. It
// is a Create scheduling point.
func (rt *Runtime) CreateActor(desc *MachineDescriptor, name string, initial Event, group EventGroup) (ActorId, error) {
	if desc == nil || len(desc.States) == 0 {
		bug := &BugFound{Kind: KindBadCreation, Message: "create: nil or empty machine descriptor"}
		rt.reportBug(bug)

		return ActorId{}, bug
	}

	rt.mu.Lock()

	id := NewActorId(rt, desc.Name, name)

	op := newOperation(rt.nextOpID, id.String(), group.String())
	rt.nextOpID++
	op.status = StatusEnabled
	op.hasActor = true
	op.actorID = id

	a := newActor(id, rt, desc, op)
	rt.actors[id.String()] = a
	rt.operations = append(rt.operations, op)
	rt.opByID[op.ID] = op

	if initial != nil {
		a.mailbox.Enqueue(envelope{event: initial, group: group})
	}

	op.stateHash = computeStateHash(a)

	self := rt.opByID[rt.currentOpID]

	rt.mu.Unlock()

	go func() {
		select {
		case <-op.turn:
		case <-rt.done:
			return
		}

		a.run()
	}()

	rt.completeSchedulingStep(self, true)

	return id, nil
}

// SendEvent delivers e to target, applying opts. It is a Send scheduling
// point.
func (rt *Runtime) SendEvent(sender, target ActorId, e Event, group EventGroup, opts ...SendOption) error {
	if e == nil {
		bug := &BugFound{Kind: KindBadSend, Message: "send: nil event from " + sender.String() + " to " + target.String()}
		rt.reportBug(bug)

		return bug
	}

	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}

	g := group
	if o.group != nil {
		g = *o.group
	}

	rt.mu.Lock()

	target2, ok := rt.actors[target.String()]
	if !ok {
		rt.mu.Unlock()

		bug := &BugFound{Kind: KindBadSend, Message: "send: unknown target actor " + target.String()}
		rt.reportBug(bug)

		return bug
	}

	env := envelope{event: e, group: g, mustHandle: o.mustHandle}
	delivered := target2.mailbox.Enqueue(env)

	if !delivered && o.mustHandle {
		rt.mu.Unlock()

		bug := &BugFound{
			Kind: KindAssertionFailure,
			Message: fmt.Sprintf("send: must-handle event %s dropped, target %s already halted",
				e.EventType(), target),
		}
		rt.reportBug(bug)

		return bug
	}

	if delivered {
		rt.wakeIfWaitingLocked(target2)
	}

	self := rt.opByID[rt.currentOpID]

	rt.mu.Unlock()

	rt.completeSchedulingStep(self, true)

	return nil
}

// wakeIfWaitingLocked re-enables target's operation if it was parked
// blocked on receive, so the scheduler may choose it at the next decision.
func (rt *Runtime) wakeIfWaitingLocked(target *Actor) {
	if target.op.status == StatusBlockedOnReceive {
		target.op.status = StatusEnabled
	}
}

// addQuiescenceWaiter registers waiter to be notified (via a synthesized
// Quiescent event delivered to its mailbox) the next time target's
// operation blocks awaiting more work.
func (rt *Runtime) addQuiescenceWaiter(target, waiter ActorId) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	key := target.String()
	rt.quiescenceWaiters[key] = append(rt.quiescenceWaiters[key], waiter)
}

// notifyQuiescenceLocked delivers a Quiescent(id) event to every actor
// waiting on id and re-enables any that were themselves blocked on
// receive. Callers must hold rt.mu.
func (rt *Runtime) notifyQuiescenceLocked(id ActorId) {
	key := id.String()

	waiters := rt.quiescenceWaiters[key]
	if len(waiters) == 0 {
		return
	}

	delete(rt.quiescenceWaiters, key)

	for _, w := range waiters {
		wa, ok := rt.actors[w.String()]
		if !ok {
			continue
		}

		wa.mailbox.Enqueue(envelope{event: NewQuiescentEvent(id)})
		rt.wakeIfWaitingLocked(wa)
	}
}

// Assert raises an AssertionFailure bug if cond is false. Unlike the
// scheduling-point methods, Assert does not itself yield: it is a check,
// not an operation.
func (rt *Runtime) Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}

	rt.reportBug(&BugFound{Kind: KindAssertionFailure, Message: fmt.Sprintf(format, args...)})
}

// randomBoolean consults the exploration strategy for a nondeterministic
// boolean choice, recording it in the trace. It does not yield the baton.
func (rt *Runtime) randomBoolean(_ *Operation) bool {
	rt.mu.Lock()

	v, err := rt.strat.NextBoolean()
	if err != nil {
		shouldClose := rt.reportBugLocked(&BugFound{Kind: KindReplayMismatch, Message: err.Error()})
		rt.mu.Unlock()

		if shouldClose {
			close(rt.done)
		}

		return false
	}

	if rt.trace != nil {
		rt.trace.Append(ScheduleStep{Kind: StepNondeterministic, IsBool: true, BoolValue: v, Fair: rt.strat.IsFair()})
	}

	rt.mu.Unlock()

	return v
}

// randomInteger consults the exploration strategy for a nondeterministic
// integer choice in [0, max), recording it in the trace.
func (rt *Runtime) randomInteger(_ *Operation, max int) int {
	rt.mu.Lock()

	v, err := rt.strat.NextInteger(max)
	if err != nil {
		shouldClose := rt.reportBugLocked(&BugFound{Kind: KindReplayMismatch, Message: err.Error()})
		rt.mu.Unlock()

		if shouldClose {
			close(rt.done)
		}

		return 0
	}

	if rt.trace != nil {
		rt.trace.Append(ScheduleStep{Kind: StepNondeterministic, IsBool: false, IntValue: v, Fair: rt.strat.IsFair()})
	}

	rt.mu.Unlock()

	return v
}

// blockOnReceive marks op blocked awaiting new mailbox content and yields.
func (rt *Runtime) blockOnReceive(op *Operation) {
	rt.mu.Lock()
	op.status = StatusBlockedOnReceive

	if id, ok := op.ActorID(); ok {
		rt.notifyQuiescenceLocked(id)
	}

	rt.mu.Unlock()

	rt.completeSchedulingStep(op, true)
}

// yieldAfterDispatch marks op still enabled and yields at the implicit
// Receive scheduling point that follows every handled event.
func (rt *Runtime) yieldAfterDispatch(op *Operation) {
	rt.completeSchedulingStep(op, true)
}

// actorFinished marks a's operation completed and yields without parking,
// since the calling goroutine (a.run()) is about to return.
func (rt *Runtime) actorFinished(a *Actor) {
	rt.mu.Lock()
	a.op.status = StatusCompleted
	rt.notifyQuiescenceLocked(a.id)
	rt.checkWaitersLocked()
	rt.mu.Unlock()

	rt.completeSchedulingStep(a.op, false)
}

// reportBug records bug and, unless Config.RunTestIterationsToCompletion is
// set, ends the current iteration.
func (rt *Runtime) reportBug(bug *BugFound) {
	rt.mu.Lock()
	shouldClose := rt.reportBugLocked(bug)
	rt.mu.Unlock()

	if shouldClose {
		close(rt.done)
	}
}

// reportBugLocked appends bug and decides whether the iteration must end.
// Callers must hold rt.mu and must not be the one who already closed
// rt.done.
func (rt *Runtime) reportBugLocked(bug *BugFound) bool {
	bug.Iteration = rt.iteration
	bug.StepCount = rt.stepCount
	rt.bugs = append(rt.bugs, bug)

	log.Errorf("bug found: %s", bug.Error())

	if rt.finished {
		return false
	}

	if !rt.config.RunTestIterationsToCompletion {
		rt.finished = true
		return true
	}

	return false
}

// finishLocked marks the iteration finished if it is not already, and
// reports whether the caller is the one responsible for closing rt.done.
func (rt *Runtime) finishLocked() bool {
	if rt.finished {
		return false
	}

	rt.finished = true

	return true
}

// pickNextLocked chooses the next operation to run among the currently
// enabled set, consulting the exploration strategy. It returns (nil, 0,
// false) if nothing is enabled, or (nil, n, shouldClose) if the strategy
// itself reported a replay mismatch (in which case it has already reported
// that bug, and shouldClose, as returned by reportBugLocked, tells the
// caller whether it must close rt.done).
func (rt *Runtime) pickNextLocked() (*Operation, int, bool) {
	var enabled []*Operation

	for _, op := range rt.operations {
		if op.status == StatusEnabled {
			enabled = append(enabled, op)
		}
	}

	if len(enabled) == 0 {
		return nil, 0, false
	}

	if rt.config.IsSharedStateReductionEnabled {
		enabled = rt.preferUnseenLocked(enabled)
	}

	candidates := make([]strategy.Candidate, len(enabled))
	for i, op := range enabled {
		candidates[i] = strategy.Candidate{ID: op.ID, Name: op.Name, Group: op.group}
	}

	isYielding := false
	if current := rt.opByID[rt.currentOpID]; current != nil {
		isYielding = current.status == StatusEnabled
	}

	id, err := rt.strat.NextOperation(candidates, rt.currentOpID, isYielding)
	if err != nil {
		shouldClose := rt.reportBugLocked(&BugFound{Kind: KindReplayMismatch, Message: err.Error()})
		return nil, len(enabled), shouldClose
	}

	if rt.trace != nil {
		rt.trace.Append(ScheduleStep{Kind: StepScheduling, OperationID: id})
	}

	for _, op := range enabled {
		if op.ID == id {
			return op, len(enabled), false
		}
	}

	return enabled[0], len(enabled), false
}

// allCompletedLocked reports whether every operation has completed.
func (rt *Runtime) allCompletedLocked() bool {
	for _, op := range rt.operations {
		if op.status != StatusCompleted {
			return false
		}
	}

	return true
}

// completeSchedulingStep is the common tail of every scheduling point:
// advance the step count, tick monitors, check the depth bound, pick the
// next operation, and hand off the baton. If park is true the calling
// goroutine (which must be op's own) blocks until it is handed the baton
// back or the iteration ends; pass false only when the caller is about to
// return without needing the baton again (an actor halting).
func (rt *Runtime) completeSchedulingStep(op *Operation, park bool) {
	rt.mu.Lock()

	rt.stepCount++

	if bug := rt.tickMonitorsLocked(); bug != nil {
		shouldClose := rt.reportBugLocked(bug)
		rt.mu.Unlock()

		if shouldClose {
			close(rt.done)
		}

		return
	}

	maxSteps := rt.config.MaxUnfairSchedulingSteps
	if maxSteps > 0 && rt.strat.IsFair() {
		maxSteps += rt.config.MaxFairSchedulingSteps
	}

	if maxSteps > 0 && rt.stepCount >= maxSteps {
		var shouldClose bool

		if rt.config.ConsiderDepthBoundHitAsBug {
			shouldClose = rt.reportBugLocked(&BugFound{
				Kind:    KindAssertionFailure,
				Message: fmt.Sprintf("max scheduling steps (%d) reached", maxSteps),
			})
		} else {
			shouldClose = rt.finishLocked()
		}

		rt.mu.Unlock()

		if shouldClose {
			close(rt.done)
		}

		return
	}

	next, enabledCount, replayClose := rt.pickNextLocked()

	if next == nil {
		var shouldClose bool

		switch {
		case replayClose:
			shouldClose = true
		case enabledCount == 0 && rt.allCompletedLocked():
			shouldClose = rt.finishLocked()
		case enabledCount == 0:
			shouldClose = rt.reportBugLocked(&BugFound{
				Kind:    KindDeadlock,
				Message: "no operation is enabled and the run has not completed",
			})
		}

		rt.mu.Unlock()

		if shouldClose {
			close(rt.done)
		}

		return
	}

	rt.currentOpID = next.ID

	rt.mu.Unlock()

	next.turn <- struct{}{}

	if !park {
		return
	}

	select {
	case <-op.turn:
	case <-rt.done:
		// The iteration ended while op was parked waiting for its turn.
		// There is no next baton to hand op and no way to preempt its
		// goroutine, so it parks here permanently rather than falling
		// through and racing whatever ended the iteration.
		select {}
	}
}
