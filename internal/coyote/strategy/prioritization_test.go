package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func groupedCandidates(pairs ...[2]string) []Candidate {
	cs := make([]Candidate, len(pairs))
	for i, p := range pairs {
		cs[i] = Candidate{ID: i, Name: p[0], Group: p[1]}
	}

	return cs
}

func TestPrioritizationAlwaysPicksFromHighestKnownGroupFirst(t *testing.T) {
	t.Parallel()

	p := NewPrioritization(0, 100)
	p.InitializeIteration(0, 1)

	enabled := groupedCandidates([2]string{"a", "g1"}, [2]string{"b", "g2"})
	choice, err := p.NextOperation(enabled, -1, false)
	require.NoError(t, err)

	// g1 is observed first, so it becomes the initial highest-priority
	// group; its sole member must be chosen.
	require.Equal(t, 0, choice)
}

func TestPrioritizationFallsThroughWhenHighestGroupHasNoEnabledMember(t *testing.T) {
	t.Parallel()

	p := NewPrioritization(0, 100)
	p.InitializeIteration(0, 1)

	// Observe both groups once so the order is established.
	_, err := p.NextOperation(groupedCandidates([2]string{"a", "g1"}, [2]string{"b", "g2"}), -1, false)
	require.NoError(t, err)

	// Now g1 has no enabled member; g2's candidate must be chosen.
	onlyG2 := groupedCandidates([2]string{"b", "g2"})
	choice, err := p.NextOperation(onlyG2, 0, false)
	require.NoError(t, err)
	require.Equal(t, onlyG2[0].ID, choice)
}

func TestPrioritizationDemoteMovesGroupToBottom(t *testing.T) {
	t.Parallel()

	p := &Prioritization{order: []string{"g1", "g2", "g3"}}
	p.demote("g1")
	require.Equal(t, []string{"g2", "g3", "g1"}, p.order)
}

func TestPrioritizationStepCountIncreasesPerCall(t *testing.T) {
	t.Parallel()

	p := NewPrioritization(2, 50)
	p.InitializeIteration(0, 1)

	require.Equal(t, 0, p.StepCount())
	_, err := p.NextOperation(candidates(1, 2), -1, false)
	require.NoError(t, err)
	require.Equal(t, 1, p.StepCount())
}

func TestFairPrioritizationSwitchesToUniformAfterUnfairSteps(t *testing.T) {
	t.Parallel()

	f := NewFairPrioritization(1, 2, 10)
	f.InitializeIteration(0, 5)

	enabled := groupedCandidates([2]string{"a", "g1"}, [2]string{"b", "g2"})

	_, err := f.NextOperation(enabled, -1, false)
	require.NoError(t, err)
	require.False(t, f.inFairTail())

	_, err = f.NextOperation(enabled, -1, false)
	require.NoError(t, err)
	require.True(t, f.inFairTail(), "after unfairSteps decisions the fair tail must begin")
}

func TestFairPrioritizationIsFair(t *testing.T) {
	t.Parallel()

	f := NewFairPrioritization(1, 5, 5)
	require.True(t, f.IsFair())

	p := NewPrioritization(1, 5)
	require.False(t, p.IsFair())
}

func TestFairPrioritizationMaxStepsReached(t *testing.T) {
	t.Parallel()

	f := NewFairPrioritization(0, 1, 1)
	f.InitializeIteration(0, 1)

	enabled := candidates(1)
	for i := 0; i < 2; i++ {
		_, err := f.NextOperation(enabled, -1, false)
		require.NoError(t, err)
	}

	require.True(t, f.MaxStepsReached())
}
