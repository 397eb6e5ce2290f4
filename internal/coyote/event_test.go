package coyote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventGroupNilIsZeroValue(t *testing.T) {
	t.Parallel()

	require.True(t, NilEventGroup.IsNil())
	require.Equal(t, "<no-group>", NilEventGroup.String())
}

func TestNewEventGroupIsNotNilAndUnique(t *testing.T) {
	t.Parallel()

	a := NewEventGroup()
	b := NewEventGroup()

	require.False(t, a.IsNil())
	require.NotEqual(t, a.String(), b.String())
}

func TestHaltDefaultWildCardEventTypes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "$halt", HaltEvent.EventType())
	require.Equal(t, "$default", DefaultEvent.EventType())
	require.Equal(t, "$wildcard", WildCardEvent.EventType())
}

func TestNewQuiescentEventCarriesActorID(t *testing.T) {
	t.Parallel()

	id := ActorId{typeName: "Worker", name: "alice"}
	ev := NewQuiescentEvent(id)

	qe, ok := ev.(quiescentEvent)
	require.True(t, ok)
	require.True(t, qe.ActorID.Equal(id))
	require.Equal(t, "$quiescent", qe.EventType())
}

func TestEnvelopeStringRendersTypeAndGroup(t *testing.T) {
	t.Parallel()

	env := envelope{event: haltEvent{}, group: NilEventGroup}
	require.Equal(t, "$halt(group=<no-group>)", env.String())
}
