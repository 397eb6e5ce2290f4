package coyote

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of a controlled testing run. Build one with
// NewConfig and a chain of ConfigOptions, the same functional-options shape
// used throughout this module.
type Config struct {
	// TestingIterations is the number of schedule explorations to run.
	TestingIterations int

	// TestingTimeout bounds the wall-clock time of the whole run, zero
	// meaning unbounded.
	TestingTimeout time.Duration

	// RandomSeed seeds the exploration strategy's PRNG. Zero means each
	// iteration is seeded with its iteration index plus one, and the seed
	// used is recorded in that iteration's trace prelude. A zero seed is
	// not derived from the clock, so two runs left at zero explore the
	// same schedules.
	RandomSeed int64

	// StrategyName selects the exploration strategy: "random",
	// "probabilistic", "prioritization", "fair-prioritization", or
	// "replay".
	StrategyName string

	// StrategyBound is the strategy-specific tuning knob: for
	// "probabilistic" it is the percentage chance (0-100) of retaining
	// the current schedule; for "prioritization"/"fair-prioritization"
	// it is the maximum number of priority-change points per iteration.
	StrategyBound int

	// MaxUnfairSchedulingSteps bounds the unfair portion of an
	// iteration (depth bound).
	MaxUnfairSchedulingSteps int

	// MaxFairSchedulingSteps bounds the fair-tail portion of an
	// iteration used by FairPrioritization; zero disables the fair
	// tail.
	MaxFairSchedulingSteps int

	// ConsiderDepthBoundHitAsBug controls whether running off the end
	// of MaxUnfairSchedulingSteps (or MaxFairSchedulingSteps) is itself
	// reported as a bug, or silently ends the iteration.
	ConsiderDepthBoundHitAsBug bool

	// LivenessTemperatureThreshold is the number of consecutive
	// scheduling steps a monitor may remain in a Hot state before a
	// LivenessViolation is reported. Zero disables the liveness check.
	LivenessTemperatureThreshold int

	// DeadlockTimeout is a wall-clock watchdog, independent of the
	// scheduling-step depth bound, used to distinguish a confirmed
	// Deadlock (every operation observably blocked) from a
	// PotentialDeadlock (no progress for this long, but some operation
	// is still nominally enabled).
	DeadlockTimeout time.Duration

	// ReportPotentialDeadlocksAsBugs controls whether a PotentialDeadlock
	// is reported as a bug or only logged.
	ReportPotentialDeadlocksAsBugs bool

	// IsSharedStateReductionEnabled enables state-hash-based
	// deduplication of already-explored (operation, state) pairs.
	IsSharedStateReductionEnabled bool

	// MaxFuzzingDelay is carried with the rest of the config, but no
	// strategy or runtime code in this module reads it: no fuzzing
	// delays are injected, whatever its value.
	MaxFuzzingDelay time.Duration

	// RunTestIterationsToCompletion disables early-exit on the first
	// bug found, running every configured iteration regardless and
	// reporting all bugs found across the run.
	RunTestIterationsToCompletion bool

	// ReplayTracePath is the path to a ScheduleStep trace file to
	// replay, used only when StrategyName is "replay".
	ReplayTracePath string
}

// ConfigOption mutates a Config under construction.
type ConfigOption func(*Config)

// WithTestingIterations sets the number of iterations to explore.
func WithTestingIterations(n int) ConfigOption {
	return func(c *Config) { c.TestingIterations = n }
}

// WithTestingTimeout bounds the whole run's wall-clock time.
func WithTestingTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.TestingTimeout = d }
}

// WithRandomSeed pins the exploration strategy's PRNG seed.
func WithRandomSeed(seed int64) ConfigOption {
	return func(c *Config) { c.RandomSeed = seed }
}

// WithStrategy selects the exploration strategy and its bound.
func WithStrategy(name string, bound int) ConfigOption {
	return func(c *Config) {
		c.StrategyName = name
		c.StrategyBound = bound
	}
}

// WithMaxSchedulingSteps sets the unfair and fair scheduling-step bounds.
func WithMaxSchedulingSteps(unfair, fair int) ConfigOption {
	return func(c *Config) {
		c.MaxUnfairSchedulingSteps = unfair
		c.MaxFairSchedulingSteps = fair
	}
}

// WithConsiderDepthBoundHitAsBug toggles treating a bound hit as a bug.
func WithConsiderDepthBoundHitAsBug(v bool) ConfigOption {
	return func(c *Config) { c.ConsiderDepthBoundHitAsBug = v }
}

// WithLivenessTemperatureThreshold sets the monitor liveness bound.
func WithLivenessTemperatureThreshold(n int) ConfigOption {
	return func(c *Config) { c.LivenessTemperatureThreshold = n }
}

// WithDeadlockTimeout sets the wall-clock potential-deadlock watchdog.
func WithDeadlockTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.DeadlockTimeout = d }
}

// WithReportPotentialDeadlocksAsBugs toggles potential-deadlock reporting.
func WithReportPotentialDeadlocksAsBugs(v bool) ConfigOption {
	return func(c *Config) { c.ReportPotentialDeadlocksAsBugs = v }
}

// WithSharedStateReduction toggles state-hash deduplication.
func WithSharedStateReduction(v bool) ConfigOption {
	return func(c *Config) { c.IsSharedStateReductionEnabled = v }
}

// WithMaxFuzzingDelay bounds injected fuzzing delays.
func WithMaxFuzzingDelay(d time.Duration) ConfigOption {
	return func(c *Config) { c.MaxFuzzingDelay = d }
}

// WithRunTestIterationsToCompletion disables early-exit on first bug.
func WithRunTestIterationsToCompletion(v bool) ConfigOption {
	return func(c *Config) { c.RunTestIterationsToCompletion = v }
}

// WithReplayTracePath sets the trace file replayed by the "replay"
// strategy.
func WithReplayTracePath(path string) ConfigOption {
	return func(c *Config) { c.ReplayTracePath = path }
}

// defaultConfig returns the baseline Config before any ConfigOption is
// applied.
func defaultConfig() Config {
	return Config{
		TestingIterations:            1,
		StrategyName:                 "random",
		StrategyBound:                10,
		MaxUnfairSchedulingSteps:     10000,
		MaxFairSchedulingSteps:       100000,
		ConsiderDepthBoundHitAsBug:   false,
		LivenessTemperatureThreshold: 0,
		DeadlockTimeout:              5 * time.Second,
		ReportPotentialDeadlocksAsBugs: false,
		IsSharedStateReductionEnabled:  false,
		RunTestIterationsToCompletion:  false,
	}
}

// NewConfig builds a Config from the baseline defaults plus opts, applied
// in order.
func NewConfig(opts ...ConfigOption) Config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// LoadConfig reads a Config from path (any format viper supports: yaml,
// json, toml) layered over the baseline defaults. The viper instance it
// uses is not returned, and no environment variables or flags are bound
// to it: the file and the defaults are the only sources.
func LoadConfig(path string) (Config, error) {
	c := defaultConfig()

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return c, fmt.Errorf("coyote: reading config %s: %w", path, err)
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("coyote: decoding config %s: %w", path, err)
	}

	return c, nil
}
