package coyote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a bug (or internal error) surfaced by the runtime,
// per the closed set of bug kinds this runtime distinguishes.
type ErrorKind int

const (
	// KindNone indicates no error; the zero value of ErrorKind.
	KindNone ErrorKind = iota

	// KindAssertionFailure indicates a client or runtime invariant
	// violation raised via Runtime.Assert.
	KindAssertionFailure

	// KindUnhandledEvent indicates a state machine received an event with
	// no handler at any level of its state stack.
	KindUnhandledEvent

	// KindBadCreation indicates an actor-creation request failed
	// validation. CreateActor reports it only for a nil machine
	// descriptor or one with no states; ids from another runtime,
	// type-tag mismatches and duplicate ids are not checked.
	KindBadCreation

	// KindBadSend indicates a send request failed validation (nil event,
	// nil target).
	KindBadSend

	// KindDeadlock indicates a confirmed deadlock: no Enabled operation
	// and no pending controlled timer or resource release anywhere in
	// the wait graph.
	KindDeadlock

	// KindPotentialDeadlock indicates the scheduler has been stuck past
	// the configured wall-clock deadlockTimeout but the runtime cannot
	// prove no external concurrency is in play.
	KindPotentialDeadlock

	// KindLivenessViolation indicates a monitor's hot-state temperature
	// exceeded livenessTemperatureThreshold.
	KindLivenessViolation

	// KindUncontrolledConcurrency indicates an action was observed that
	// was not mediated by the controlled runtime.
	KindUncontrolledConcurrency

	// KindReplayMismatch indicates that, during replay, the next
	// requested choice disagreed with the recorded trace step.
	KindReplayMismatch
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindAssertionFailure:
		return "AssertionFailure"
	case KindUnhandledEvent:
		return "UnhandledEvent"
	case KindBadCreation:
		return "BadCreation"
	case KindBadSend:
		return "BadSend"
	case KindDeadlock:
		return "Deadlock"
	case KindPotentialDeadlock:
		return "PotentialDeadlock"
	case KindLivenessViolation:
		return "LivenessViolation"
	case KindUncontrolledConcurrency:
		return "UncontrolledConcurrency"
	case KindReplayMismatch:
		return "ReplayMismatch"
	default:
		return "None"
	}
}

// BugFound is the error type returned when an iteration ends because of a
// bug (as opposed to clean completion). It carries enough context to
// reproduce the failure: the iteration index, the step count at failure,
// and (for replay mismatches) a pinpoint of where the recorded and
// requested choices diverged.
type BugFound struct {
	// Kind identifies which of the closed set of bug kinds occurred.
	Kind ErrorKind

	// Message is a human-readable description of the failure.
	Message string

	// Iteration is the index of the iteration in which the bug occurred.
	Iteration int

	// StepCount is the scheduler's step counter at the moment of failure.
	StepCount int

	// ActorID, when non-empty, names the actor most directly responsible
	// (e.g. the one with the unhandled event, or the halted receiver of
	// a dropped MustHandle send).
	ActorID string

	// Err wraps a lower-level cause, if any. The runtime itself never
	// sets it; a recovered test-body panic is reported through Message.
	Err error
}

// Error implements the error interface.
func (b *BugFound) Error() string {
	if b.ActorID != "" {
		return fmt.Sprintf(
			"%s: %s (iteration=%d step=%d actor=%s)",
			b.Kind, b.Message, b.Iteration, b.StepCount, b.ActorID,
		)
	}

	return fmt.Sprintf(
		"%s: %s (iteration=%d step=%d)",
		b.Kind, b.Message, b.Iteration, b.StepCount,
	)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (b *BugFound) Unwrap() error {
	return b.Err
}

// Is reports whether target is a *BugFound with the same Kind, allowing
// callers to do errors.Is(err, &BugFound{Kind: KindDeadlock}).
func (b *BugFound) Is(target error) bool {
	var other *BugFound
	if !errors.As(target, &other) {
		return false
	}

	return other.Kind == b.Kind
}

var (
	// ErrActorTerminated indicates an operation failed because the
	// target actor was halted or its mailbox was closed.
	ErrActorTerminated = errors.New("actor terminated")

	// ErrNoStartState indicates a state machine declared zero (or more
	// than one) start state; exactly one is required.
	ErrNoStartState = errors.New("state machine must declare exactly one start state")

	// ErrDuplicateHandler indicates the same event type was declared
	// twice in a single state's handler table.
	ErrDuplicateHandler = errors.New("duplicate handler declaration for event type in state")

	// ErrPendingTransition indicates an action handler attempted to both
	// raise an event and request a goto (or requested more than one
	// pending transition) within a single invocation, violating S1.
	ErrPendingTransition = errors.New("at most one pending transition or raise per action invocation")

	// ErrOutstandingReceive indicates an actor attempted to install a
	// second receive filter while one was already outstanding (I2).
	ErrOutstandingReceive = errors.New("at most one outstanding receive per actor")

	// ErrAlreadyBound indicates an unbound ActorId was bound to a second
	// runtime.
	ErrAlreadyBound = errors.New("actor id already bound to a runtime")

	// ErrMonitorAlreadyRegistered indicates a second monitor of the same
	// type was registered; monitors are singletons per type per runtime.
	ErrMonitorAlreadyRegistered = errors.New("monitor type already registered")
)
