package coyote

import (
	"fmt"

	"github.com/google/uuid"
)

// BaseEvent is embedded by event types defined outside this package to
// satisfy the sealed Event interface's unexported marker method.
type BaseEvent struct{}

// eventMarker implements the unexported method that seals the Event
// interface.
func (BaseEvent) eventMarker() {}

// Event is an immutable typed message exchanged between actors. The
// interface is sealed by the unexported eventMarker method; external types
// satisfy it by embedding BaseEvent.
type Event interface {
	// eventMarker seals the interface.
	eventMarker()

	// EventType returns the type name of the event, used for handler
	// table lookup and logging.
	EventType() string
}

// EventGroup is a correlation token shared by causally related events. It
// propagates from sender to receiver unless explicitly overridden, and is
// inherited unconditionally when an event is raised rather than sent (see
// DESIGN.md's Open Question decision on raise-time propagation).
type EventGroup struct {
	id string
}

// NilEventGroup is the zero value, meaning "no correlation group".
var NilEventGroup = EventGroup{}

// NewEventGroup creates a fresh, globally unique correlation token.
func NewEventGroup() EventGroup {
	return EventGroup{id: uuid.NewString()}
}

// IsNil reports whether this is the zero-value (no group) EventGroup.
func (g EventGroup) IsNil() bool {
	return g.id == ""
}

// String implements fmt.Stringer.
func (g EventGroup) String() string {
	if g.id == "" {
		return "<no-group>"
	}

	return g.id
}

// haltEvent is the distinguished event that, when dequeued, terminates its
// actor.
type haltEvent struct{ BaseEvent }

func (haltEvent) EventType() string { return "$halt" }

// HaltEvent is the singleton Halt event.
var HaltEvent Event = haltEvent{}

// defaultEvent is delivered when the mailbox is empty and the current state
// (or plain actor) declares a default handler.
type defaultEvent struct{ BaseEvent }

func (defaultEvent) EventType() string { return "$default" }

// DefaultEvent is the singleton Default event.
var DefaultEvent Event = defaultEvent{}

// wildCardEvent matches any event type in a handler table when no specific
// handler is declared for the incoming event's concrete type.
type wildCardEvent struct{ BaseEvent }

func (wildCardEvent) EventType() string { return "$wildcard" }

// WildCardEvent is the singleton WildCard pseudo-event, used only as a
// handler-table key, never actually dequeued.
var WildCardEvent Event = wildCardEvent{}

// quiescentEvent is synthesized back to a CreateAndExecute/SendAndExecute
// caller when the target actor it is waiting on reaches quiescence.
type quiescentEvent struct {
	BaseEvent

	// ActorID identifies which actor became quiescent.
	ActorID ActorId
}

func (quiescentEvent) EventType() string { return "$quiescent" }

// NewQuiescentEvent constructs the Quiescent(actorId) event delivered to a
// CreateAndExecute/SendAndExecute caller once the named actor goes idle.
func NewQuiescentEvent(id ActorId) Event {
	return quiescentEvent{ActorID: id}
}

// envelope wraps an Event with its correlation group and any additional
// delivery metadata (the mailbox's "(event, group, info)"
// triple). The info part is the mustHandle flag, which marks MustHandle
// sends so the drop path can distinguish them.
type envelope struct {
	event     Event
	group     EventGroup
	mustHandle bool
}

// String renders the envelope for trace/log output.
func (e envelope) String() string {
	return fmt.Sprintf("%s(group=%s)", e.event.EventType(), e.group)
}
