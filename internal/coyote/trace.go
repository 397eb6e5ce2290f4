package coyote

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pipeline-foundation/coyote-sub000/internal/coyote/strategy"
)

// StepKind discriminates the two families of ScheduleStep.
type StepKind int

const (
	// StepScheduling records which operation ID was chosen to run.
	StepScheduling StepKind = iota
	// StepNondeterministic records a boolean or integer choice outcome.
	StepNondeterministic
)

// ScheduleStep is one entry of a recorded schedule: either
// which operation ran, or the outcome of a nondeterministic choice.
type ScheduleStep struct {
	Kind StepKind

	// OperationID is valid when Kind == StepScheduling.
	OperationID int

	// Fair marks a nondeterministic choice made while the active strategy
	// reports IsFair (FairPrioritization, in its unfair and fair phases
	// alike), distinguishing FairNondeterministicChoice from
	// NondeterministicChoice in the human-readable trace.
	Fair bool

	// IsBool distinguishes a boolean nondeterministic choice from an
	// integer one.
	IsBool    bool
	BoolValue bool
	IntValue  int
}

// Line renders step in the human-readable "SC:<id>" / "ND:<bool-or-int>" /
// "FND:<bool-or-int>" trace format.
func (s ScheduleStep) Line() string {
	switch s.Kind {
	case StepScheduling:
		return fmt.Sprintf("SC:%d", s.OperationID)
	case StepNondeterministic:
		prefix := "ND"
		if s.Fair {
			prefix = "FND"
		}

		if s.IsBool {
			return fmt.Sprintf("%s:%t", prefix, s.BoolValue)
		}

		return fmt.Sprintf("%s:%d", prefix, s.IntValue)
	default:
		return ""
	}
}

// ParseScheduleStep parses a single trace line produced by Line.
func ParseScheduleStep(line string) (ScheduleStep, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return ScheduleStep{}, fmt.Errorf("coyote: malformed trace line %q", line)
	}

	tag, value := parts[0], parts[1]

	switch tag {
	case "SC":
		id, err := strconv.Atoi(value)
		if err != nil {
			return ScheduleStep{}, fmt.Errorf("coyote: malformed SC line %q: %w", line, err)
		}

		return ScheduleStep{Kind: StepScheduling, OperationID: id}, nil

	case "ND", "FND":
		step := ScheduleStep{Kind: StepNondeterministic, Fair: tag == "FND"}

		if value == "true" || value == "false" {
			step.IsBool = true
			step.BoolValue = value == "true"

			return step, nil
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return ScheduleStep{}, fmt.Errorf("coyote: malformed %s line %q", tag, line)
		}

		step.IntValue = n

		return step, nil

	default:
		return ScheduleStep{}, fmt.Errorf("coyote: unknown trace tag %q in line %q", tag, line)
	}
}

// Trace is a full recorded schedule for one iteration: a prelude (which
// strategy produced it, with what seed) plus the ordered ScheduleSteps.
type Trace struct {
	StrategyName string
	Seed         int64
	Iteration    int

	Steps []ScheduleStep
}

// NewTrace starts an empty trace for the given prelude.
func NewTrace(strategyName string, seed int64, iteration int) *Trace {
	return &Trace{StrategyName: strategyName, Seed: seed, Iteration: iteration}
}

// Append records one more step.
func (t *Trace) Append(step ScheduleStep) {
	t.Steps = append(t.Steps, step)
}

// RecordedChoices converts t into the decoupled form strategy.Replay
// consumes.
func (t *Trace) RecordedChoices() []strategy.RecordedChoice {
	out := make([]strategy.RecordedChoice, 0, len(t.Steps))

	for _, s := range t.Steps {
		switch s.Kind {
		case StepScheduling:
			out = append(out, strategy.RecordedChoice{
				Kind:        strategy.SchedulingChoice,
				OperationID: s.OperationID,
			})
		case StepNondeterministic:
			if s.IsBool {
				out = append(out, strategy.RecordedChoice{
					Kind:      strategy.NondeterministicBoolChoice,
					BoolValue: s.BoolValue,
				})
			} else {
				out = append(out, strategy.RecordedChoice{
					Kind:     strategy.NondeterministicIntChoice,
					IntValue: s.IntValue,
				})
			}
		}
	}

	return out
}

// Save writes t to path: a single prelude comment line followed by one
// ScheduleStep per line.
func (t *Trace) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("coyote: creating trace file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if _, err := fmt.Fprintf(w, "# strategy=%s seed=%d iteration=%d\n", t.StrategyName, t.Seed, t.Iteration); err != nil {
		return err
	}

	for _, step := range t.Steps {
		if _, err := fmt.Fprintln(w, step.Line()); err != nil {
			return err
		}
	}

	return w.Flush()
}

// LoadTrace reads a trace previously written by Save.
func LoadTrace(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("coyote: opening trace file %s: %w", path, err)
	}
	defer f.Close()

	t := &Trace{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			parsePrelude(line, t)
			continue
		}

		step, err := ParseScheduleStep(line)
		if err != nil {
			return nil, err
		}

		t.Steps = append(t.Steps, step)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("coyote: reading trace file %s: %w", path, err)
	}

	return t, nil
}

// parsePrelude fills in t.StrategyName/Seed/Iteration from a
// "# strategy=... seed=... iteration=..." comment line. Fields are
// populated best-effort; a malformed prelude leaves the zero value rather
// than failing the whole load, since the prelude is informational.
func parsePrelude(line string, t *Trace) {
	fields := strings.Fields(strings.TrimPrefix(line, "#"))

	for _, field := range fields {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}

		switch kv[0] {
		case "strategy":
			t.StrategyName = kv[1]
		case "seed":
			if v, err := strconv.ParseInt(kv[1], 10, 64); err == nil {
				t.Seed = v
			}
		case "iteration":
			if v, err := strconv.Atoi(kv[1]); err == nil {
				t.Iteration = v
			}
		}
	}
}
