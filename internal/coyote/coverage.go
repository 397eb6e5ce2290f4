package coyote

import (
	"fmt"
	"hash/fnv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CoverageInfo is a snapshot of which states and transitions an iteration
// (or a whole run) actually exercised. It is intentionally
// plain data: callers serialize or diff it however they like.
type CoverageInfo struct {
	// StatesVisited maps a machine type name to the set of state names
	// observed active on that machine type across the run.
	StatesVisited map[string]map[string]bool

	// Transitions maps a machine type name to the set of edges observed,
	// each rendered as "fromState --event--> toState".
	Transitions map[string]map[string]bool
}

// newCoverageInfo returns an empty CoverageInfo.
func newCoverageInfo() CoverageInfo {
	return CoverageInfo{
		StatesVisited: make(map[string]map[string]bool),
		Transitions:   make(map[string]map[string]bool),
	}
}

// coverageTracker accumulates CoverageInfo across the whole run, guarded by
// its own mutex so it can be updated from any actor's goroutine at the
// instant it happens to hold the baton.
type coverageTracker struct {
	mu   sync.Mutex
	info CoverageInfo
}

func newCoverageTracker() *coverageTracker {
	return &coverageTracker{info: newCoverageInfo()}
}

// Record registers that machine (a machine type name, not an instance id)
// transitioned from fromState to toState on event, or, when fromState ==
// toState (no transition fired, just a visit), registers only the state
// visit.
func (t *coverageTracker) Record(machine, fromState, event, toState string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.info.StatesVisited[machine] == nil {
		t.info.StatesVisited[machine] = make(map[string]bool)
	}

	t.info.StatesVisited[machine][fromState] = true
	t.info.StatesVisited[machine][toState] = true

	if fromState == toState {
		return
	}

	if t.info.Transitions[machine] == nil {
		t.info.Transitions[machine] = make(map[string]bool)
	}

	edge := fmt.Sprintf("%s --%s--> %s", fromState, event, toState)
	t.info.Transitions[machine][edge] = true
}

// Snapshot returns a deep copy of the coverage accumulated so far.
func (t *coverageTracker) Snapshot() CoverageInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := newCoverageInfo()

	for machine, states := range t.info.StatesVisited {
		cp := make(map[string]bool, len(states))
		for s := range states {
			cp[s] = true
		}

		out.StatesVisited[machine] = cp
	}

	for machine, edges := range t.info.Transitions {
		cp := make(map[string]bool, len(edges))
		for e := range edges {
			cp[e] = true
		}

		out.Transitions[machine] = cp
	}

	return out
}

// stateHashCache deduplicates (operation, externally-observable-state)
// pairs the scheduler has already explored, backed by an LRU so a
// long-running exploration doesn't grow this set without bound. Used only
// when Config.IsSharedStateReductionEnabled is set.
type stateHashCache struct {
	cache *lru.Cache[uint64, struct{}]
}

// newStateHashCache builds a cache holding up to size distinct hashes.
func newStateHashCache(size int) (*stateHashCache, error) {
	c, err := lru.New[uint64, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("coyote: creating state hash cache: %w", err)
	}

	return &stateHashCache{cache: c}, nil
}

// SeenBefore reports whether hash was already recorded, recording it if
// not.
func (c *stateHashCache) SeenBefore(hash uint64) bool {
	if _, ok := c.cache.Get(hash); ok {
		return true
	}

	c.cache.Add(hash, struct{}{})

	return false
}

// preferUnseenLocked narrows enabled to the subset of actor-owning
// operations whose last-recorded state hash has not already been explored
// at some earlier scheduling decision, falling back to the full set when
// that would leave nothing to choose from. Non-actor operations (the root
// test body) have no meaningful hash and always stay candidates. Callers
// must hold rt.mu.
func (rt *Runtime) preferUnseenLocked(enabled []*Operation) []*Operation {
	unseen := make([]*Operation, 0, len(enabled))

	for _, op := range enabled {
		if !op.hasActor || !rt.stateCache.SeenBefore(op.stateHash) {
			unseen = append(unseen, op)
		}
	}

	if len(unseen) == 0 {
		return enabled
	}

	return unseen
}

// computeStateHash hashes the actor's externally observable state: its
// current (possibly nested) active state names and how many envelopes are
// pending in its mailbox. Two actors in the same state with the same
// pending count hash identically, which is the coarse-grained notion of
// "same state" the shared-state reduction strategy relies on.
func computeStateHash(a *Actor) uint64 {
	h := fnv.New64a()

	for _, s := range a.machine.stack {
		_, _ = h.Write([]byte(s.Name))
		_, _ = h.Write([]byte{'/'})
	}

	_, _ = fmt.Fprintf(h, "#%d", a.mailbox.PendingCount())

	return h.Sum64()
}
