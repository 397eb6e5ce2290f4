package coyote

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// idCounter hands out monotonically increasing numeric values for actor ids
// minted while bound to a running Runtime. It is process-global so that ids
// minted by different runtimes never collide when logged or compared across
// a test run's lifetime, since a test binary runs as a single process.
var idCounter atomic.Uint64

// ActorId is the value identity of an actor. An id can be
// created in advance of the actor it will name ("unbound": its back-reference
// to a runtime is nil) and is then bound exactly once when the actor is
// actually created.
//
// Two ids compare equal iff either both use the name-as-identity mode and
// their names match, or both use the numeric mode and their numbers match.
type ActorId struct {
	// value is the monotonically assigned (under test) or globally
	// unique (ambient, not under test) numeric identity.
	value uint64

	// typeName is the actor type tag, e.g. "PingActor".
	typeName string

	// name is the optional human name. When non-empty, equality is
	// name-based rather than numeric-based.
	name string

	// rt is a weak back-reference to the owning runtime. Nil means the
	// id is unbound.
	rt *Runtime
}

// NewActorId creates a new, already-bound ActorId scoped to rt, minting a
// fresh monotonic numeric value. Use NewUnboundActorId to pre-allocate an id
// before the runtime that will own it is known.
func NewActorId(rt *Runtime, typeName, name string) ActorId {
	return ActorId{
		value:    idCounter.Add(1),
		typeName: typeName,
		name:     name,
		rt:       rt,
	}
}

// NewUnboundActorId creates an id that is not yet associated with a runtime.
// Its numeric value is minted from the ambient (non-test) identity space via
// uuid so that two unbound ids created outside of any controlled iteration
// never collide, matching §9's "ambient current runtime" convenience note.
func NewUnboundActorId(typeName, name string) ActorId {
	return ActorId{
		value:    ambientNumericValue(),
		typeName: typeName,
		name:     name,
	}
}

// ambientNumericValue derives a 64-bit numeric value from a fresh UUID for
// ids minted outside of a running iteration, where the monotonic idCounter
// would otherwise be shared (and thus racy in meaning, if not in memory)
// across unrelated ambient uses.
func ambientNumericValue() uint64 {
	id := uuid.New()
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(id[i])
	}

	return v
}

// Bind associates an unbound ActorId with rt. It returns ErrAlreadyBound if
// the id was already bound to a (possibly different) runtime.
func (a *ActorId) Bind(rt *Runtime) error {
	if a.rt != nil {
		return fmt.Errorf("%w: actor %s already bound", ErrAlreadyBound, a)
	}

	a.rt = rt

	return nil
}

// IsBound reports whether this id has been bound to a runtime.
func (a ActorId) IsBound() bool {
	return a.rt != nil
}

// Runtime returns the runtime this id is bound to, or nil if unbound.
func (a ActorId) Runtime() *Runtime {
	return a.rt
}

// Type returns the actor's type tag.
func (a ActorId) Type() string {
	return a.typeName
}

// Name returns the optional human name (empty if this id uses numeric
// identity).
func (a ActorId) Name() string {
	return a.name
}

// Value returns the numeric identity value.
func (a ActorId) Value() uint64 {
	return a.value
}

// Equal reports whether a and other denote the same actor, per the
// equality rule: name-mode ids compare by name, numeric-mode ids compare by
// number. An id in one mode never equals one in the other mode unless both
// happen to be the zero value.
func (a ActorId) Equal(other ActorId) bool {
	if a.name != "" || other.name != "" {
		return a.name == other.name && a.name != ""
	}

	return a.value == other.value
}

// String implements fmt.Stringer for log-friendly rendering.
func (a ActorId) String() string {
	if a.name != "" {
		return fmt.Sprintf("%s[%s]", a.typeName, a.name)
	}

	return fmt.Sprintf("%s[#%d]", a.typeName, a.value)
}
