package strategy

import "math/rand"

// Probabilistic is a coin-flip retain-current strategy: at each step it
// flips a coin biased by RetainPercent to decide whether to keep
// scheduling the operation that just ran (when still enabled) instead of
// picking a fresh one uniformly at random. Biasing toward continuation
// tends to surface bugs that need a long uninterrupted run of one actor
// before an interleaving matters.
type Probabilistic struct {
	rng *rand.Rand

	// retainPercent is the percent chance (0-100) of retaining current
	// when it is still enabled.
	retainPercent int

	maxSteps int
	steps    int
}

// NewProbabilistic builds a Probabilistic strategy with the given
// retain-current percentage (clamped to [0, 100]) and max steps per
// iteration (0 means unbounded).
func NewProbabilistic(retainPercent, maxSteps int) *Probabilistic {
	if retainPercent < 0 {
		retainPercent = 0
	}

	if retainPercent > 100 {
		retainPercent = 100
	}

	return &Probabilistic{retainPercent: retainPercent, maxSteps: maxSteps}
}

func (p *Probabilistic) InitializeIteration(_ int, seed int64) {
	p.rng = rand.New(rand.NewSource(seed))
	p.steps = 0
}

func (p *Probabilistic) Reset() {
	p.rng = nil
	p.steps = 0
}

func (p *Probabilistic) NextOperation(enabled []Candidate, current int, _ bool) (int, error) {
	p.steps++

	if current >= 0 && p.rng.Intn(100) < p.retainPercent {
		for _, c := range enabled {
			if c.ID == current {
				return current, nil
			}
		}
	}

	return enabled[p.rng.Intn(len(enabled))].ID, nil
}

func (p *Probabilistic) NextBoolean() (bool, error) {
	return p.rng.Intn(2) == 0, nil
}

func (p *Probabilistic) NextInteger(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	return p.rng.Intn(max), nil
}

func (p *Probabilistic) StepCount() int { return p.steps }

func (p *Probabilistic) MaxStepsReached() bool {
	return p.maxSteps > 0 && p.steps >= p.maxSteps
}

func (p *Probabilistic) IsFair() bool { return false }

func (p *Probabilistic) Description() string { return "probabilistic" }
