package strategy

import "math/rand"

// Prioritization implements a PCT-style (Probabilistic Concurrency Testing)
// strategy: operation groups are held in a priority order, the highest
// priority group with an enabled member is always chosen, and at a small
// number of randomly sampled "priority-change points" the currently
// highest-priority group is demoted to the bottom of the order. This finds
// bugs that require a specific, small number of interleavings to surface,
// with far fewer iterations than uniform random search.
type Prioritization struct {
	rng *rand.Rand

	// bound is the maximum number of priority-change points sampled
	// per iteration.
	bound int

	maxSteps int
	steps    int

	order         []string
	changePoints  map[int]bool
	knownGroups   map[string]bool
}

// NewPrioritization builds a Prioritization strategy with up to bound
// priority-change points per iteration, each iteration running at most
// maxSteps scheduling decisions (0 means unbounded).
func NewPrioritization(bound, maxSteps int) *Prioritization {
	return &Prioritization{bound: bound, maxSteps: maxSteps}
}

func (p *Prioritization) InitializeIteration(_ int, seed int64) {
	p.rng = rand.New(rand.NewSource(seed))
	p.steps = 0
	p.order = nil
	p.knownGroups = make(map[string]bool)
	p.changePoints = make(map[int]bool)

	bound := p.bound
	if p.maxSteps > 0 && bound > p.maxSteps {
		bound = p.maxSteps
	}

	for i := 0; i < bound; i++ {
		point := 0
		if p.maxSteps > 0 {
			point = p.rng.Intn(p.maxSteps)
		} else {
			point = p.rng.Intn(1000)
		}

		p.changePoints[point] = true
	}

	log.Tracef("prioritization: sampled %d priority-change points", len(p.changePoints))
}

// observeGroups appends any group in enabled not yet present in p.order, in
// the order first observed.
func (p *Prioritization) observeGroups(enabled []Candidate) {
	for _, c := range enabled {
		if !p.knownGroups[c.Group] {
			p.knownGroups[c.Group] = true
			p.order = append(p.order, c.Group)
		}
	}
}

// highestPriorityCandidates returns the subset of enabled belonging to the
// first (highest-priority) group in p.order that has any enabled member.
func (p *Prioritization) highestPriorityCandidates(enabled []Candidate) (string, []Candidate) {
	for _, group := range p.order {
		var members []Candidate

		for _, c := range enabled {
			if c.Group == group {
				members = append(members, c)
			}
		}

		if len(members) > 0 {
			return group, members
		}
	}

	return "", enabled
}

// demote moves group to the bottom of the priority order.
func (p *Prioritization) demote(group string) {
	for i, g := range p.order {
		if g == group {
			p.order = append(p.order[:i], p.order[i+1:]...)
			p.order = append(p.order, group)

			return
		}
	}
}

func (p *Prioritization) Reset() {
	p.rng = nil
	p.steps = 0
	p.order = nil
	p.changePoints = nil
	p.knownGroups = nil
}

func (p *Prioritization) NextOperation(enabled []Candidate, _ int, isYielding bool) (int, error) {
	p.observeGroups(enabled)

	group, members := p.highestPriorityCandidates(enabled)
	chosen := members[p.rng.Intn(len(members))]

	// Rule (b): a sampled priority-change point always demotes the
	// current highest-priority group. Rule (c): otherwise, demote it
	// anyway if the operation that just ran is yielding rather than
	// blocking or completing, so a group that keeps running doesn't
	// monopolize the top of the order forever.
	switch {
	case group == "":
		// no group to demote
	case p.changePoints[p.steps]:
		p.demote(group)
	case isYielding:
		p.demote(group)
	}

	p.steps++

	return chosen.ID, nil
}

func (p *Prioritization) NextBoolean() (bool, error) {
	return p.rng.Intn(2) == 0, nil
}

func (p *Prioritization) NextInteger(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	return p.rng.Intn(max), nil
}

func (p *Prioritization) StepCount() int { return p.steps }

func (p *Prioritization) MaxStepsReached() bool {
	return p.maxSteps > 0 && p.steps >= p.maxSteps
}

func (p *Prioritization) IsFair() bool { return false }

func (p *Prioritization) Description() string { return "prioritization" }

// FairPrioritization wraps Prioritization with a fair tail: once
// UnfairSteps scheduling decisions have run, it stops honoring the
// priority order and instead schedules uniformly at random among all
// enabled operations for up to MaxFairSteps further decisions, guaranteeing
// no enabled operation is starved forever and making Hot-monitor liveness
// checks meaningful.
type FairPrioritization struct {
	unfair *Prioritization

	rng *rand.Rand

	unfairSteps int
	fairSteps   int
	steps       int
}

// NewFairPrioritization builds a FairPrioritization strategy: bound
// priority-change points during the first unfairSteps decisions, then a
// uniform-random fair tail of up to fairSteps further decisions.
func NewFairPrioritization(bound, unfairSteps, fairSteps int) *FairPrioritization {
	return &FairPrioritization{
		unfair:      NewPrioritization(bound, unfairSteps),
		unfairSteps: unfairSteps,
		fairSteps:   fairSteps,
	}
}

func (f *FairPrioritization) InitializeIteration(iteration int, seed int64) {
	f.unfair.InitializeIteration(iteration, seed)
	f.rng = rand.New(rand.NewSource(seed ^ 0x5a5a5a5a))
	f.steps = 0
}

func (f *FairPrioritization) Reset() {
	f.unfair.Reset()
	f.rng = nil
	f.steps = 0
}

func (f *FairPrioritization) inFairTail() bool {
	return f.unfairSteps > 0 && f.steps >= f.unfairSteps
}

func (f *FairPrioritization) NextOperation(enabled []Candidate, current int, isYielding bool) (int, error) {
	f.steps++

	if f.inFairTail() {
		return enabled[f.rng.Intn(len(enabled))].ID, nil
	}

	return f.unfair.NextOperation(enabled, current, isYielding)
}

func (f *FairPrioritization) NextBoolean() (bool, error) {
	if f.inFairTail() {
		return f.rng.Intn(2) == 0, nil
	}

	return f.unfair.NextBoolean()
}

func (f *FairPrioritization) NextInteger(max int) (int, error) {
	if f.inFairTail() {
		if max <= 0 {
			return 0, nil
		}

		return f.rng.Intn(max), nil
	}

	return f.unfair.NextInteger(max)
}

func (f *FairPrioritization) StepCount() int { return f.steps }

func (f *FairPrioritization) MaxStepsReached() bool {
	return f.unfairSteps+f.fairSteps > 0 && f.steps >= f.unfairSteps+f.fairSteps
}

func (f *FairPrioritization) IsFair() bool { return true }

func (f *FairPrioritization) Description() string { return "fair-prioritization" }
