package coyote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorIdEqualNameMode(t *testing.T) {
	t.Parallel()

	a := ActorId{typeName: "Worker", name: "alice"}
	b := ActorId{typeName: "Worker", name: "alice", value: 99}
	c := ActorId{typeName: "Worker", name: "bob"}

	require.True(t, a.Equal(b), "name-mode ids with the same name must be equal regardless of value")
	require.False(t, a.Equal(c))
}

func TestActorIdEqualNumericMode(t *testing.T) {
	t.Parallel()

	a := ActorId{typeName: "Worker", value: 1}
	b := ActorId{typeName: "Other", value: 1}
	c := ActorId{typeName: "Worker", value: 2}

	require.True(t, a.Equal(b), "numeric-mode equality ignores the type tag")
	require.False(t, a.Equal(c))
}

func TestActorIdEqualCrossModeNeverEqual(t *testing.T) {
	t.Parallel()

	named := ActorId{name: "alice", value: 5}
	numeric := ActorId{value: 5}

	require.False(t, named.Equal(numeric))
	require.False(t, numeric.Equal(named))
}

func TestActorIdBindOnce(t *testing.T) {
	t.Parallel()

	id := NewUnboundActorId("Worker", "")
	require.False(t, id.IsBound())

	err := id.Bind(&Runtime{})
	require.NoError(t, err)
	require.True(t, id.IsBound())

	err = id.Bind(&Runtime{})
	require.ErrorIs(t, err, ErrAlreadyBound)
}

func TestNewActorIdMintsDistinctValues(t *testing.T) {
	t.Parallel()

	a := NewActorId(nil, "Worker", "")
	b := NewActorId(nil, "Worker", "")

	require.NotEqual(t, a.Value(), b.Value())
	require.False(t, a.Equal(b))
}

func TestActorIdStringRendersNameOrNumber(t *testing.T) {
	t.Parallel()

	named := ActorId{typeName: "Worker", name: "alice"}
	require.Equal(t, "Worker[alice]", named.String())

	numeric := ActorId{typeName: "Worker", value: 42}
	require.Equal(t, "Worker[#42]", numeric.String())
}
