package coyote

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScheduleStepLineAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	steps := []ScheduleStep{
		{Kind: StepScheduling, OperationID: 5},
		{Kind: StepNondeterministic, IsBool: true, BoolValue: true},
		{Kind: StepNondeterministic, IsBool: false, IntValue: 42},
		{Kind: StepNondeterministic, Fair: true, IsBool: true, BoolValue: false},
	}

	for _, s := range steps {
		parsed, err := ParseScheduleStep(s.Line())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}
}

func TestParseScheduleStepRejectsMalformedLine(t *testing.T) {
	t.Parallel()

	_, err := ParseScheduleStep("not-a-trace-line")
	require.Error(t, err)

	_, err = ParseScheduleStep("XX:1")
	require.Error(t, err)

	_, err = ParseScheduleStep("SC:notanumber")
	require.Error(t, err)
}

func TestTraceSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	tr := NewTrace("random", 1234, 7)
	tr.Append(ScheduleStep{Kind: StepScheduling, OperationID: 1})
	tr.Append(ScheduleStep{Kind: StepNondeterministic, IsBool: true, BoolValue: true})
	tr.Append(ScheduleStep{Kind: StepScheduling, OperationID: 2})

	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, tr.Save(path))

	loaded, err := LoadTrace(path)
	require.NoError(t, err)
	require.Equal(t, "random", loaded.StrategyName)
	require.Equal(t, int64(1234), loaded.Seed)
	require.Equal(t, 7, loaded.Iteration)
	require.Equal(t, tr.Steps, loaded.Steps)
}

func TestTraceRecordedChoicesConvertsEachStepKind(t *testing.T) {
	t.Parallel()

	tr := NewTrace("replay", 0, 0)
	tr.Append(ScheduleStep{Kind: StepScheduling, OperationID: 3})
	tr.Append(ScheduleStep{Kind: StepNondeterministic, IsBool: true, BoolValue: true})
	tr.Append(ScheduleStep{Kind: StepNondeterministic, IsBool: false, IntValue: 9})

	choices := tr.RecordedChoices()
	require.Len(t, choices, 3)
	require.Equal(t, 3, choices[0].OperationID)
	require.True(t, choices[1].BoolValue)
	require.Equal(t, 9, choices[2].IntValue)
}

func TestLoadTraceRejectsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadTrace(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
