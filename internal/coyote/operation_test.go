package coyote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOperationStartsInStatusNone(t *testing.T) {
	t.Parallel()

	op := newOperation(3, "actor-3", "group-a")
	require.Equal(t, 3, op.ID)
	require.Equal(t, "actor-3", op.Name)
	require.Equal(t, "group-a", op.Group())
	require.Equal(t, StatusNone, op.Status())
	require.NotNil(t, op.turn)
}

func TestOperationStatusIsBlocked(t *testing.T) {
	t.Parallel()

	blocked := []OperationStatus{
		StatusBlockedOnReceive, StatusBlockedOnResource,
		StatusBlockedOnWaitAll, StatusBlockedOnWaitAny, StatusDelayed,
	}
	for _, s := range blocked {
		require.True(t, s.IsBlocked(), "%s should be blocked", s)
	}

	notBlocked := []OperationStatus{StatusNone, StatusEnabled, StatusCompleted}
	for _, s := range notBlocked {
		require.False(t, s.IsBlocked(), "%s should not be blocked", s)
	}
}

func TestOperationStatusStringRoundTrip(t *testing.T) {
	t.Parallel()

	cases := map[OperationStatus]string{
		StatusNone:              "None",
		StatusEnabled:           "Enabled",
		StatusBlockedOnReceive:  "BlockedOnReceive",
		StatusBlockedOnResource: "BlockedOnResource",
		StatusBlockedOnWaitAll:  "BlockedOnWaitAll",
		StatusBlockedOnWaitAny:  "BlockedOnWaitAny",
		StatusDelayed:           "Delayed",
		StatusCompleted:         "Completed",
	}
	for status, want := range cases {
		require.Equal(t, want, status.String())
	}
}

func TestOperationActorIDAbsentByDefault(t *testing.T) {
	t.Parallel()

	op := newOperation(1, "root", "")
	_, ok := op.ActorID()
	require.False(t, ok)
}

func TestOperationStringIncludesIDNameStatus(t *testing.T) {
	t.Parallel()

	op := newOperation(7, "worker-7", "")
	op.status = StatusEnabled

	require.Equal(t, "Operation(7:worker-7,Enabled)", op.String())
}
