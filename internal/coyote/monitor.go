package coyote

import "fmt"

// monitorInstance is the runtime state of a single registered specification
// monitor: a hierarchical state machine dispatched synchronously and a
// liveness-temperature counter.
type monitorInstance struct {
	name    string
	machine *machineInstance

	// temperature counts consecutive completed scheduling steps during
	// which the monitor has remained in a Hot state. It resets to zero
	// the instant the monitor is in a non-Hot state.
	temperature int
}

func newMonitorInstance(name string, desc *MachineDescriptor) *monitorInstance {
	return &monitorInstance{name: name, machine: newMachineInstance(desc)}
}

// dispatch runs ev through the monitor's state machine synchronously. The
// ActorContext handed to handlers has no owning actor: Send, CreateActor,
// and Receive all panic if called, since monitor dispatch must never cross
// a scheduling point: monitor dispatch must stay atomic.
func (mi *monitorInstance) dispatch(rt *Runtime, ev Event) *BugFound {
	ctx := &ActorContext{rt: rt, ev: ev}
	return mi.machine.dispatch(ctx, ev)
}

// tick advances the liveness-temperature counter once per completed
// scheduling step. threshold <= 0 disables the liveness check entirely.
func (mi *monitorInstance) tick(threshold int) *BugFound {
	if !mi.machine.current().Hot {
		mi.temperature = 0
		return nil
	}

	mi.temperature++

	if threshold > 0 && mi.temperature > threshold {
		return &BugFound{
			Kind: KindLivenessViolation,
			Message: fmt.Sprintf("monitor %s stuck in hot state %s for %d scheduling steps (threshold %d)",
				mi.name, mi.machine.current().Name, mi.temperature, threshold),
		}
	}

	return nil
}

// RegisterMonitor declares a specification monitor under name, to be
// instantiated fresh (start state, zero temperature, entry action run)
// at the beginning of every iteration. name acts as the monitor's type
// key: registering the same name twice returns ErrMonitorAlreadyRegistered,
// a type-checked registry keyed by a caller-supplied name rather than a
// reflected Go type, since monitor descriptors are plain data, not types.
func (rt *Runtime) RegisterMonitor(name string, desc *MachineDescriptor) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.monitorDescs == nil {
		rt.monitorDescs = make(map[string]*MachineDescriptor)
	}

	if _, exists := rt.monitorDescs[name]; exists {
		return fmt.Errorf("%w: %s", ErrMonitorAlreadyRegistered, name)
	}

	rt.monitorDescs[name] = desc

	return nil
}

// resetMonitorsLocked rebuilds every registered monitor from its descriptor,
// running each start state's entry action. Called once at the beginning of
// every iteration so monitor state never leaks across iterations.
func (rt *Runtime) resetMonitorsLocked() {
	rt.monitors = make(map[string]*monitorInstance, len(rt.monitorDescs))

	for name, desc := range rt.monitorDescs {
		mi := newMonitorInstance(name, desc)
		rt.monitors[name] = mi

		ctx := &ActorContext{rt: rt}
		if s := mi.machine.current(); s.OnEntry != nil {
			s.OnEntry(ctx)
		}
	}
}

// Monitor delivers ev to the monitor registered under name. Delivering to
// an unregistered name is a no-op: monitors are opt-in observers, so a
// Send-style Monitor call at a site with no interested monitor must not
// itself become a bug.
func (rt *Runtime) Monitor(name string, ev Event) {
	rt.mu.Lock()
	mi, ok := rt.monitors[name]
	rt.mu.Unlock()

	if !ok {
		return
	}

	log.Tracef("monitor %s <- %s", name, ev.EventType())

	if bug := mi.dispatch(rt, ev); bug != nil {
		rt.reportBug(bug)
	}
}

// tickMonitorsLocked advances every registered monitor's liveness-
// temperature counter by one completed scheduling step, returning the
// first LivenessViolation encountered, if any. Callers must already hold
// rt.mu; this runs from inside the scheduler's own locked decision path.
func (rt *Runtime) tickMonitorsLocked() *BugFound {
	for _, mi := range rt.monitors {
		if bug := mi.tick(rt.config.LivenessTemperatureThreshold); bug != nil {
			return bug
		}
	}

	return nil
}
