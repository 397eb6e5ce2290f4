package strategy

import "math/rand"

// Random picks uniformly among the enabled operations at every step, and
// returns uniformly distributed boolean/integer choices. It is unfair in
// the strict sense (no bound on how long an enabled operation can be
// skipped) but in practice explores broadly given enough iterations.
type Random struct {
	rng      *rand.Rand
	maxSteps int
	steps    int
}

// NewRandom builds a Random strategy bounded to maxSteps scheduling
// decisions per iteration (0 means unbounded).
func NewRandom(maxSteps int) *Random {
	return &Random{maxSteps: maxSteps}
}

func (r *Random) InitializeIteration(_ int, seed int64) {
	r.rng = rand.New(rand.NewSource(seed))
	r.steps = 0
}

func (r *Random) Reset() {
	r.rng = nil
	r.steps = 0
}

func (r *Random) NextOperation(enabled []Candidate, _ int, _ bool) (int, error) {
	r.steps++
	return enabled[r.rng.Intn(len(enabled))].ID, nil
}

func (r *Random) NextBoolean() (bool, error) {
	return r.rng.Intn(2) == 0, nil
}

func (r *Random) NextInteger(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	return r.rng.Intn(max), nil
}

func (r *Random) StepCount() int { return r.steps }

func (r *Random) MaxStepsReached() bool {
	return r.maxSteps > 0 && r.steps >= r.maxSteps
}

func (r *Random) IsFair() bool { return false }

func (r *Random) Description() string { return "random" }
