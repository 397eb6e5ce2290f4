package coyote

import "fmt"

// StateName identifies a state within a MachineDescriptor.
type StateName string

// HandlerDecl is the sum type of the two ways a state can handle an event:
// either running an action body, or transitioning via goto.
type HandlerDecl interface {
	handlerDeclMarker()
}

// ActionHandler executes Action when its event type is dispatched. The
// action may raise an event or request a transition (goto/push/pop) via the
// ActorContext passed to it, but not both (S1).
type ActionHandler struct {
	Action func(ctx *ActorContext, ev Event)
}

func (ActionHandler) handlerDeclMarker() {}

// GotoHandler transitions to Target when its event type is dispatched:
// the current state's exit-action runs, then the optional Exit lambda, then
// the state stack's top is replaced by Target, then Target's entry-action
// runs.
type GotoHandler struct {
	Target StateName
	Exit   func(ctx *ActorContext, ev Event)
}

func (GotoHandler) handlerDeclMarker() {}

// StateDescriptor captures one state's compile-time configuration,
// discovered from construction-time values rather than runtime reflection.
// Attribute inheritance between a derived state
// and an explicit Parent descriptor replaces class-level inheritance: a
// derived state's explicit handler for event E overrides an inherited one.
type StateDescriptor struct {
	Name StateName

	Start bool
	Hot   bool
	Cold  bool

	OnEntry func(ctx *ActorContext)
	OnExit  func(ctx *ActorContext)

	Handlers map[string]HandlerDecl
	Ignored  map[string]bool
	Deferred map[string]bool

	// Parent is the optional base-state descriptor this state composes
	// attributes from. Lookup walks the parent chain child-first.
	Parent *StateDescriptor
}

// lookupHandler walks s and its static Parent chain (child-first, so an
// explicit handler in s always wins over an inherited one), falling back to
// a WildCard handler declared anywhere in the chain.
func (s *StateDescriptor) lookupHandler(eventType string) (HandlerDecl, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if h, ok := cur.Handlers[eventType]; ok {
			return h, true
		}
	}

	for cur := s; cur != nil; cur = cur.Parent {
		if h, ok := cur.Handlers[WildCardEvent.EventType()]; ok {
			return h, true
		}
	}

	return nil, false
}

// hasOwnHandler reports whether s or any static ancestor explicitly
// declares a handler for eventType, without falling back to a WildCard
// handler the way lookupHandler does.
func (s *StateDescriptor) hasOwnHandler(eventType string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if _, ok := cur.Handlers[eventType]; ok {
			return true
		}
	}

	return false
}

// isIgnored reports whether eventType is in s's ignore set or that of any
// static ancestor.
func (s *StateDescriptor) isIgnored(eventType string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Ignored[eventType] {
			return true
		}
	}

	return false
}

// isDeferred reports whether eventType is in s's defer set or that of any
// static ancestor.
func (s *StateDescriptor) isDeferred(eventType string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Deferred[eventType] {
			return true
		}
	}

	return false
}

// hasDefaultHandler reports whether any level on the active stack
// explicitly declares a handler for DefaultEvent, mirroring how
// allIgnoredAndDeferred scans the whole stack rather than just its top.
func (mi *machineInstance) hasDefaultHandler() bool {
	defaultType := DefaultEvent.EventType()

	for _, s := range mi.stack {
		if s.hasOwnHandler(defaultType) {
			return true
		}
	}

	return false
}

// allIgnoredAndDeferred aggregates the ignore/defer sets across every level
// currently on the active state stack. This is what the Actor's handler
// loop consults when scanning the mailbox: a type
// deferred or ignored by ANY active (pushed) state still applies.
func allIgnoredAndDeferred(stack []*StateDescriptor) (ignored, deferred map[string]bool) {
	ignored = make(map[string]bool)
	deferred = make(map[string]bool)

	for _, s := range stack {
		for cur := s; cur != nil; cur = cur.Parent {
			for t := range cur.Ignored {
				ignored[t] = true
			}
			for t := range cur.Deferred {
				deferred[t] = true
			}
		}
	}

	return ignored, deferred
}

// StateBuilder constructs a StateDescriptor, accumulating a configuration
// error so call sites can chain freely and check once at Build().
type StateBuilder struct {
	desc *StateDescriptor
	err  error
}

// NewState begins building a state named name.
func NewState(name StateName) *StateBuilder {
	return &StateBuilder{
		desc: &StateDescriptor{
			Name:     name,
			Handlers: make(map[string]HandlerDecl),
			Ignored:  make(map[string]bool),
			Deferred: make(map[string]bool),
		},
	}
}

// WithParent sets the static base-state descriptor this state composes
// attributes from.
func (b *StateBuilder) WithParent(parent *StateDescriptor) *StateBuilder {
	b.desc.Parent = parent
	return b
}

// Start marks this as the machine's (sole) start state.
func (b *StateBuilder) Start() *StateBuilder {
	b.desc.Start = true
	return b
}

// Hot marks this state as a monitor hot state (mutually exclusive with
// Cold).
func (b *StateBuilder) Hot() *StateBuilder {
	b.desc.Hot = true
	return b
}

// Cold marks this state as a monitor cold state (mutually exclusive with
// Hot).
func (b *StateBuilder) Cold() *StateBuilder {
	b.desc.Cold = true
	return b
}

// OnEntry sets the entry action.
func (b *StateBuilder) OnEntry(f func(ctx *ActorContext)) *StateBuilder {
	b.desc.OnEntry = f
	return b
}

// OnExit sets the exit action.
func (b *StateBuilder) OnExit(f func(ctx *ActorContext)) *StateBuilder {
	b.desc.OnExit = f
	return b
}

// OnEvent declares eventType's handler. Declaring the same eventType twice
// on one StateBuilder is a configuration error, recorded and returned by
// Build().
func (b *StateBuilder) OnEvent(eventType string, decl HandlerDecl) *StateBuilder {
	if b.err != nil {
		return b
	}

	if _, exists := b.desc.Handlers[eventType]; exists {
		b.err = fmt.Errorf("%w: state %s, event %s",
			ErrDuplicateHandler, b.desc.Name, eventType)

		return b
	}

	b.desc.Handlers[eventType] = decl

	return b
}

// Ignore adds eventTypes to this state's ignore set.
func (b *StateBuilder) Ignore(eventTypes ...string) *StateBuilder {
	for _, t := range eventTypes {
		b.desc.Ignored[t] = true
	}

	return b
}

// Defer adds eventTypes to this state's defer set.
func (b *StateBuilder) Defer(eventTypes ...string) *StateBuilder {
	for _, t := range eventTypes {
		b.desc.Deferred[t] = true
	}

	return b
}

// Build finalizes the StateDescriptor, returning any configuration error
// accumulated along the way.
func (b *StateBuilder) Build() (*StateDescriptor, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.desc, nil
}

// MachineDescriptor is the compile-time configuration of a hierarchical
// state machine: its set of states and which one is the start state.
type MachineDescriptor struct {
	Name   string
	States map[StateName]*StateDescriptor
	Start  StateName
}

// NewMachineDescriptor builds a MachineDescriptor from states, validating
// that exactly one declares Start.
func NewMachineDescriptor(name string, states ...*StateDescriptor) (*MachineDescriptor, error) {
	md := &MachineDescriptor{
		Name:   name,
		States: make(map[StateName]*StateDescriptor, len(states)),
	}

	var startCount int

	for _, s := range states {
		md.States[s.Name] = s

		if s.Start {
			startCount++
			md.Start = s.Name
		}
	}

	if startCount != 1 {
		return nil, fmt.Errorf("%w: machine %s declares %d",
			ErrNoStartState, name, startCount)
	}

	return md, nil
}

// machineInstance is the runtime state of one actor's hierarchical state
// machine: the active push/pop stack of states, top-of-stack last.
type machineInstance struct {
	desc  *MachineDescriptor
	stack []*StateDescriptor
}

func newMachineInstance(desc *MachineDescriptor) *machineInstance {
	return &machineInstance{
		desc:  desc,
		stack: []*StateDescriptor{desc.States[desc.Start]},
	}
}

// current returns the top-of-stack (currently active) state.
func (mi *machineInstance) current() *StateDescriptor {
	return mi.stack[len(mi.stack)-1]
}

// dispatch runs the hierarchical dispatch algorithm for a
// single event, searching from the top of the active stack downward:
// pushing preserves the outer state's handler table as fallback. It
// returns a non-nil *BugFound(KindUnhandledEvent) if no level in the stack
// handles ev and it is not ignored anywhere either.
func (mi *machineInstance) dispatch(ctx *ActorContext, ev Event) *BugFound {
	for i := len(mi.stack) - 1; i >= 0; i-- {
		s := mi.stack[i]

		if s.isIgnored(ev.EventType()) {
			return nil
		}

		decl, ok := s.lookupHandler(ev.EventType())
		if !ok {
			continue
		}

		switch h := decl.(type) {
		case ActionHandler:
			ctx.beginAction()
			if h.Action != nil {
				h.Action(ctx, ev)
			}

			return ctx.applyPendingTransition(mi)

		case GotoHandler:
			mi.runGoto(ctx, ev, h)
			return nil
		}
	}

	return &BugFound{
		Kind:    KindUnhandledEvent,
		Message: fmt.Sprintf("unhandled event %s in state %s", ev.EventType(), mi.current().Name),
	}
}

// runGoto executes a directly-declared GotoHandler: current state's exit,
// the handler's own exit lambda, replacing the top of the stack with the
// target, then the target's entry.
func (mi *machineInstance) runGoto(ctx *ActorContext, ev Event, h GotoHandler) {
	cur := mi.current()
	if cur.OnExit != nil {
		cur.OnExit(ctx)
	}

	if h.Exit != nil {
		h.Exit(ctx, ev)
	}

	mi.gotoState(h.Target)

	target := mi.current()
	if target.OnEntry != nil {
		target.OnEntry(ctx)
	}
}

// gotoState replaces the top of the active stack with target: a literal
// pop-and-push to target, not an unwind of the whole stack.
func (mi *machineInstance) gotoState(target StateName) {
	mi.stack[len(mi.stack)-1] = mi.desc.States[target]
}

// pushState pushes target as a new, nested active state and runs its entry
// action.
func (mi *machineInstance) pushState(ctx *ActorContext, target StateName) {
	mi.stack = append(mi.stack, mi.desc.States[target])

	newTop := mi.current()
	if newTop.OnEntry != nil {
		newTop.OnEntry(ctx)
	}
}

// popState exits and removes the current top of the active stack, exposing
// the state beneath it (which does not re-run its entry action, since it
// was never actually left).
func (mi *machineInstance) popState(ctx *ActorContext) {
	cur := mi.current()
	if cur.OnExit != nil {
		cur.OnExit(ctx)
	}

	if len(mi.stack) > 1 {
		mi.stack = mi.stack[:len(mi.stack)-1]
	}
}
