// Package strategy implements the pluggable exploration strategies that
// decide, at each scheduling point, which enabled operation runs next and
// what value a nondeterministic boolean or integer choice takes.
// Strategies hold no reference to the runtime they drive: they see
// only the lightweight Candidate view of each enabled operation, which
// keeps this package importable by both the runtime and its tests without
// a cycle.
package strategy

import "errors"

// ErrReplayMismatch is returned by Replay when the recorded trace disagrees
// with what is actually enabled at a given step, e.g. because the program
// under test is not deterministic apart from scheduling.
var ErrReplayMismatch = errors.New("strategy: replay trace mismatch")

// Candidate is the view of one enabled operation a strategy chooses among.
type Candidate struct {
	// ID is the operation's runtime-scoped identifier.
	ID int

	// Name is a human-readable name, used only for diagnostics.
	Name string

	// Group is the operation-group identifier prioritization strategies
	// coalesce on.
	Group string
}

// ExplorationStrategy picks the next operation to run and the outcome of
// nondeterministic boolean/integer choices. Implementations
// are not required to be safe for concurrent use; the runtime only ever
// calls into the active strategy while holding its own scheduling mutex.
type ExplorationStrategy interface {
	// InitializeIteration resets the strategy's per-iteration state
	// (e.g. re-sampling priority-change points) for a new iteration
	// numbered iteration, seeded from seed.
	InitializeIteration(iteration int, seed int64)

	// Reset discards all strategy state, including anything
	// InitializeIteration does not touch. A strategy reset this way and
	// then re-initialized with the same iteration/seed must produce the
	// identical sequence of choices as a freshly constructed one.
	Reset()

	// NextOperation chooses which of enabled runs next. current is the
	// ID of the operation that ran immediately prior, or -1 if none
	// has run yet this iteration. isYielding reports whether that prior
	// operation remains enabled and voluntarily yielded the scheduler,
	// as opposed to having blocked or completed; Prioritization demotes
	// its top group at a sampled priority-change point whatever
	// isYielding is, and also on any step where isYielding is true. It
	// returns ErrReplayMismatch if (and only if) the strategy
	// is replaying a trace that disagrees with the currently enabled
	// set.
	NextOperation(enabled []Candidate, current int, isYielding bool) (int, error)

	// NextBoolean returns the outcome of a nondeterministic boolean
	// choice.
	NextBoolean() (bool, error)

	// NextInteger returns the outcome of a nondeterministic integer
	// choice in [0, max).
	NextInteger(max int) (int, error)

	// StepCount returns the number of scheduling decisions made so far
	// this iteration.
	StepCount() int

	// MaxStepsReached reports whether the strategy has exhausted its
	// configured step bound for this iteration.
	MaxStepsReached() bool

	// IsFair reports whether this strategy guarantees fairness (every
	// enabled operation is eventually scheduled). The runtime uses it to
	// mark nondeterministic choices as fair in the trace and to extend
	// an iteration's step bound by MaxFairSchedulingSteps; the monitor
	// liveness check does not consult it.
	IsFair() bool

	// Description is a short, human-readable name used in trace
	// preludes and reports.
	Description() string
}
