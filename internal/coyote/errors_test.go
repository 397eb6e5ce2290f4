package coyote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBugFoundErrorIncludesActorWhenPresent(t *testing.T) {
	t.Parallel()

	withActor := &BugFound{Kind: KindAssertionFailure, Message: "boom", Iteration: 2, StepCount: 5, ActorID: "Worker[#1]"}
	require.Contains(t, withActor.Error(), "actor=Worker[#1]")

	withoutActor := &BugFound{Kind: KindDeadlock, Message: "stuck", Iteration: 1, StepCount: 0}
	require.NotContains(t, withoutActor.Error(), "actor=")
}

func TestBugFoundUnwrapExposesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying panic")
	b := &BugFound{Kind: KindAssertionFailure, Err: cause}

	require.ErrorIs(t, b, cause)
}

func TestBugFoundIsMatchesByKindOnly(t *testing.T) {
	t.Parallel()

	a := &BugFound{Kind: KindDeadlock, Message: "first", Iteration: 1}
	b := &BugFound{Kind: KindDeadlock, Message: "second", Iteration: 99}
	c := &BugFound{Kind: KindLivenessViolation}

	require.True(t, errors.Is(a, b))
	require.False(t, errors.Is(a, c))
}

func TestErrorKindStringRoundTrip(t *testing.T) {
	t.Parallel()

	cases := map[ErrorKind]string{
		KindNone:                    "None",
		KindAssertionFailure:        "AssertionFailure",
		KindUnhandledEvent:          "UnhandledEvent",
		KindBadCreation:             "BadCreation",
		KindBadSend:                 "BadSend",
		KindDeadlock:                "Deadlock",
		KindPotentialDeadlock:       "PotentialDeadlock",
		KindLivenessViolation:       "LivenessViolation",
		KindUncontrolledConcurrency: "UncontrolledConcurrency",
		KindReplayMismatch:          "ReplayMismatch",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
}
