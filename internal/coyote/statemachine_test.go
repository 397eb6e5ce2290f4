package coyote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildMachine(t *testing.T, states ...*StateDescriptor) *MachineDescriptor {
	t.Helper()

	md, err := NewMachineDescriptor("test", states...)
	require.NoError(t, err)

	return md
}

func TestNewMachineDescriptorRequiresExactlyOneStartState(t *testing.T) {
	t.Parallel()

	none, err := NewState("idle").Build()
	require.NoError(t, err)
	_, err = NewMachineDescriptor("m", none)
	require.ErrorIs(t, err, ErrNoStartState)

	a, err := NewState("a").Start().Build()
	require.NoError(t, err)
	b, err := NewState("b").Start().Build()
	require.NoError(t, err)
	_, err = NewMachineDescriptor("m", a, b)
	require.ErrorIs(t, err, ErrNoStartState)
}

func TestStateBuilderRejectsDuplicateHandler(t *testing.T) {
	t.Parallel()

	h := ActionHandler{Action: func(ctx *ActorContext, ev Event) {}}

	_, err := NewState("s").OnEvent("ping", h).OnEvent("ping", h).Build()
	require.ErrorIs(t, err, ErrDuplicateHandler)
}

func TestDispatchRunsActionHandler(t *testing.T) {
	t.Parallel()

	var ran bool
	h := ActionHandler{Action: func(ctx *ActorContext, ev Event) { ran = true }}

	start, err := NewState("start").Start().OnEvent("ping", h).Build()
	require.NoError(t, err)

	md := buildMachine(t, start)
	mi := newMachineInstance(md)

	ctx := &ActorContext{}
	bug := mi.dispatch(ctx, testEvent{typ: "ping"})
	require.Nil(t, bug)
	require.True(t, ran)
}

func TestDispatchReturnsUnhandledEventBug(t *testing.T) {
	t.Parallel()

	start, err := NewState("start").Start().Build()
	require.NoError(t, err)

	md := buildMachine(t, start)
	mi := newMachineInstance(md)

	ctx := &ActorContext{}
	bug := mi.dispatch(ctx, testEvent{typ: "unexpected"})
	require.NotNil(t, bug)
	require.Equal(t, KindUnhandledEvent, bug.Kind)
}

func TestDispatchIgnoredEventProducesNoBug(t *testing.T) {
	t.Parallel()

	start, err := NewState("start").Start().Ignore("noisy").Build()
	require.NoError(t, err)

	md := buildMachine(t, start)
	mi := newMachineInstance(md)

	ctx := &ActorContext{}
	bug := mi.dispatch(ctx, testEvent{typ: "noisy"})
	require.Nil(t, bug)
}

func TestChildHandlerOverridesParentHandler(t *testing.T) {
	t.Parallel()

	var parentRan, childRan bool

	parent, err := NewState("parent").
		OnEvent("ping", ActionHandler{Action: func(ctx *ActorContext, ev Event) { parentRan = true }}).
		Build()
	require.NoError(t, err)

	child, err := NewState("child").Start().WithParent(parent).
		OnEvent("ping", ActionHandler{Action: func(ctx *ActorContext, ev Event) { childRan = true }}).
		Build()
	require.NoError(t, err)

	md := buildMachine(t, child)
	mi := newMachineInstance(md)

	ctx := &ActorContext{}
	bug := mi.dispatch(ctx, testEvent{typ: "ping"})
	require.Nil(t, bug)
	require.True(t, childRan)
	require.False(t, parentRan)
}

func TestChildInheritsParentHandlerWhenNotOverridden(t *testing.T) {
	t.Parallel()

	var parentRan bool

	parent, err := NewState("parent").
		OnEvent("pong", ActionHandler{Action: func(ctx *ActorContext, ev Event) { parentRan = true }}).
		Build()
	require.NoError(t, err)

	child, err := NewState("child").Start().WithParent(parent).Build()
	require.NoError(t, err)

	md := buildMachine(t, child)
	mi := newMachineInstance(md)

	ctx := &ActorContext{}
	bug := mi.dispatch(ctx, testEvent{typ: "pong"})
	require.Nil(t, bug)
	require.True(t, parentRan)
}

func TestGotoHandlerRunsExitThenTargetEntry(t *testing.T) {
	t.Parallel()

	var order []string

	b, err := NewState("b").
		OnEntry(func(ctx *ActorContext) { order = append(order, "b-entry") }).
		Build()
	require.NoError(t, err)

	a, err := NewState("a").Start().
		OnExit(func(ctx *ActorContext) { order = append(order, "a-exit") }).
		OnEvent("go", GotoHandler{Target: "b"}).
		Build()
	require.NoError(t, err)

	md := buildMachine(t, a, b)
	mi := newMachineInstance(md)

	ctx := &ActorContext{}
	bug := mi.dispatch(ctx, testEvent{typ: "go"})
	require.Nil(t, bug)
	require.Equal(t, []string{"a-exit", "b-entry"}, order)
	require.Equal(t, StateName("b"), mi.current().Name)
}

func TestPushStatePreservesParentOnStack(t *testing.T) {
	t.Parallel()

	nested, err := NewState("nested").Build()
	require.NoError(t, err)

	base, err := NewState("base").Start().
		OnEvent("push", ActionHandler{Action: func(ctx *ActorContext, ev Event) {
			ctx.RaisePushStateEvent("nested")
		}}).
		Build()
	require.NoError(t, err)

	md := buildMachine(t, base, nested)
	mi := newMachineInstance(md)

	ctx := &ActorContext{}
	bug := mi.dispatch(ctx, testEvent{typ: "push"})
	require.Nil(t, bug)
	require.Len(t, mi.stack, 2)
	require.Equal(t, StateName("nested"), mi.current().Name)
}

func TestPopStateRestoresPreviousTop(t *testing.T) {
	t.Parallel()

	base, err := NewState("base").Start().Build()
	require.NoError(t, err)

	md := buildMachine(t, base)
	mi := newMachineInstance(md)
	mi.pushState(&ActorContext{}, "base")
	require.Len(t, mi.stack, 2)

	mi.popState(&ActorContext{})
	require.Len(t, mi.stack, 1)
}

func TestSetPendingViolatesS1OnSecondRequest(t *testing.T) {
	t.Parallel()

	ctx := &ActorContext{actor: &Actor{id: ActorId{typeName: "x"}}}
	ctx.beginAction()

	ctx.RaiseGotoStateEvent("somewhere")
	ctx.RaisePushStateEvent("elsewhere")

	require.NotNil(t, ctx.violation)
	require.Equal(t, KindAssertionFailure, ctx.violation.Kind)
}
