package coyote

import "fmt"

// OperationStatus is the lifecycle state of an Operation.
type OperationStatus int

const (
	// StatusNone is the zero value, before an operation is registered.
	StatusNone OperationStatus = iota

	// StatusEnabled means the operation is eligible to be chosen at the
	// next scheduling decision.
	StatusEnabled

	// StatusBlockedOnReceive means the operation's actor is suspended in
	// a receive() call awaiting a matching event.
	StatusBlockedOnReceive

	// StatusBlockedOnResource means the operation is waiting to acquire
	// a controlled resource (lock, semaphore, wait-handle).
	StatusBlockedOnResource

	// StatusBlockedOnWaitAll means the operation is waiting for every
	// member of a set of other operations to complete.
	StatusBlockedOnWaitAll

	// StatusBlockedOnWaitAny means the operation is waiting for any one
	// member of a set of other operations to complete.
	StatusBlockedOnWaitAny

	// StatusDelayed means the operation is waiting on a controlled
	// logical timer.
	StatusDelayed

	// StatusCompleted means the operation's actor halted or its task
	// finished; it is permanently ineligible for scheduling.
	StatusCompleted
)

// String renders the status for logs and trace output.
func (s OperationStatus) String() string {
	switch s {
	case StatusEnabled:
		return "Enabled"
	case StatusBlockedOnReceive:
		return "BlockedOnReceive"
	case StatusBlockedOnResource:
		return "BlockedOnResource"
	case StatusBlockedOnWaitAll:
		return "BlockedOnWaitAll"
	case StatusBlockedOnWaitAny:
		return "BlockedOnWaitAny"
	case StatusDelayed:
		return "Delayed"
	case StatusCompleted:
		return "Completed"
	default:
		return "None"
	}
}

// IsBlocked reports whether s is one of the Blocked* variants.
func (s OperationStatus) IsBlocked() bool {
	switch s {
	case StatusBlockedOnReceive, StatusBlockedOnResource,
		StatusBlockedOnWaitAll, StatusBlockedOnWaitAny, StatusDelayed:
		return true
	default:
		return false
	}
}

// SchedulingPoint names a location in execution where the scheduler regains
// control.
type SchedulingPoint int

const (
	PointCreate SchedulingPoint = iota
	PointSend
	PointReceive
	PointHalt
	PointInterleave
	PointPause
	PointRead
	PointWrite
	PointAcquire
	PointRelease
)

// String renders the scheduling point for logs.
func (p SchedulingPoint) String() string {
	switch p {
	case PointCreate:
		return "Create"
	case PointSend:
		return "Send"
	case PointReceive:
		return "Receive"
	case PointHalt:
		return "Halt"
	case PointInterleave:
		return "Interleave"
	case PointPause:
		return "Pause"
	case PointRead:
		return "Read"
	case PointWrite:
		return "Write"
	case PointAcquire:
		return "Acquire"
	case PointRelease:
		return "Release"
	default:
		return "Unknown"
	}
}

// Operation is a unit the scheduler can schedule. It is owned
// exclusively by the Runtime; callers interact with it only through the
// Runtime's scheduling-point methods.
type Operation struct {
	// ID is the unique, runtime-scoped identifier for this operation.
	ID int

	// Name is a human-readable name (often the owning actor's id).
	Name string

	// status is the current lifecycle status. Guarded by the owning
	// Runtime's mutex.
	status OperationStatus

	// group is the operation-group identifier used by prioritization
	// strategies to coalesce related operations.
	group string

	// actorID identifies the owning actor, if any (the zero value for
	// non-actor controlled tasks).
	actorID ActorId
	hasActor bool

	// stateHash is this operation's contribution to state-caching: a
	// hash of whatever the owning actor considers its externally
	// observable state at the moment it last yielded.
	stateHash uint64

	// turn is the baton-passing channel: the scheduler sends on it to
	// grant this operation the right to run, and the operation's
	// goroutine blocks receiving from it while parked. Buffered size 1
	// so a handoff never blocks the scheduler.
	turn chan struct{}
}

// newOperation allocates an Operation in StatusNone, not yet registered with
// any runtime.
func newOperation(id int, name, group string) *Operation {
	return &Operation{
		ID:    id,
		Name:  name,
		group: group,
		turn:  make(chan struct{}, 1),
	}
}

// Status returns the operation's current status.
func (op *Operation) Status() OperationStatus {
	return op.status
}

// Group returns the operation's group identifier.
func (op *Operation) Group() string {
	return op.group
}

// ActorID returns the owning actor's id and true, or the zero ActorId and
// false if this operation has no owning actor.
func (op *Operation) ActorID() (ActorId, bool) {
	return op.actorID, op.hasActor
}

// String implements fmt.Stringer.
func (op *Operation) String() string {
	return fmt.Sprintf("Operation(%d:%s,%s)", op.ID, op.Name, op.status)
}
