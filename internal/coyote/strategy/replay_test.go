package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplayReproducesRecordedSchedulingChoices(t *testing.T) {
	t.Parallel()

	r := NewReplay([]RecordedChoice{
		{Kind: SchedulingChoice, OperationID: 2},
		{Kind: SchedulingChoice, OperationID: 1},
	})
	r.InitializeIteration(0, 0)

	enabled := candidates(1, 2, 3)

	choice, err := r.NextOperation(enabled, -1, false)
	require.NoError(t, err)
	require.Equal(t, 2, choice)

	choice, err = r.NextOperation(enabled, 2, false)
	require.NoError(t, err)
	require.Equal(t, 1, choice)
}

func TestReplayMismatchWhenRecordedOperationNotEnabled(t *testing.T) {
	t.Parallel()

	r := NewReplay([]RecordedChoice{{Kind: SchedulingChoice, OperationID: 99}})
	r.InitializeIteration(0, 0)

	_, err := r.NextOperation(candidates(1, 2), -1, false)
	require.ErrorIs(t, err, ErrReplayMismatch)
}

func TestReplayMismatchWhenKindDisagrees(t *testing.T) {
	t.Parallel()

	r := NewReplay([]RecordedChoice{{Kind: NondeterministicBoolChoice, BoolValue: true}})
	r.InitializeIteration(0, 0)

	_, err := r.NextOperation(candidates(1), -1, false)
	require.ErrorIs(t, err, ErrReplayMismatch)
}

func TestReplayBooleanAndIntegerChoices(t *testing.T) {
	t.Parallel()

	r := NewReplay([]RecordedChoice{
		{Kind: NondeterministicBoolChoice, BoolValue: true},
		{Kind: NondeterministicIntChoice, IntValue: 7},
	})
	r.InitializeIteration(0, 0)

	b, err := r.NextBoolean()
	require.NoError(t, err)
	require.True(t, b)

	i, err := r.NextInteger(100)
	require.NoError(t, err)
	require.Equal(t, 7, i)
}

func TestReplayMaxStepsReachedOnceExhausted(t *testing.T) {
	t.Parallel()

	r := NewReplay([]RecordedChoice{{Kind: NondeterministicBoolChoice, BoolValue: false}})
	r.InitializeIteration(0, 0)

	require.False(t, r.MaxStepsReached())
	_, err := r.NextBoolean()
	require.NoError(t, err)
	require.True(t, r.MaxStepsReached())
}

func TestReplayIsNotFair(t *testing.T) {
	t.Parallel()

	r := NewReplay(nil)
	require.False(t, r.IsFair())
	require.Equal(t, "replay", r.Description())
}
