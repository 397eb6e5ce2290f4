package commands

import (
	coyote "github.com/pipeline-foundation/coyote-sub000/internal/coyote"
)

// pingEvent and pongEvent drive the built-in ping-pong scenario the run and
// replay commands exercise when invoked without a client-supplied test: a
// minimal, self-contained two-actor exchange that walks CreateActor, Send,
// and the flat-dispatch path end to end.

type pingEvent struct {
	coyote.BaseEvent
	ReplyTo coyote.ActorId
	Count   int
}

func (pingEvent) EventType() string { return "ping" }

type pongEvent struct {
	coyote.BaseEvent
	From  coyote.ActorId
	Count int
}

func (pongEvent) EventType() string { return "pong" }

// demoRounds is the number of ping/pong round trips the built-in scenario
// runs before both actors halt.
const demoRounds = 5

func newPongDescriptor() (*coyote.MachineDescriptor, error) {
	handlers := map[string]coyote.HandlerDecl{
		"ping": coyote.ActionHandler{
			Action: func(ctx *coyote.ActorContext, ev coyote.Event) {
				p := ev.(pingEvent)

				err := ctx.Send(p.ReplyTo, pongEvent{Count: p.Count, From: ctx.Self()})
				ctx.Assert(err == nil, "pong: send failed: %v", err)
			},
		},
	}

	return coyote.NewFlatMachineDescriptor("pong", handlers, nil, nil)
}

func newPingDescriptor() (*coyote.MachineDescriptor, error) {
	handlers := map[string]coyote.HandlerDecl{
		"pong": coyote.ActionHandler{
			Action: func(ctx *coyote.ActorContext, ev coyote.Event) {
				p := ev.(pongEvent)

				ctx.Assert(p.Count >= 0 && p.Count <= demoRounds,
					"round count %d out of range", p.Count)

				if p.Count >= demoRounds {
					ctx.Send(ctx.Self(), coyote.HaltEvent)
					ctx.Send(p.From, coyote.HaltEvent)

					return
				}

				err := ctx.Send(p.From, pingEvent{ReplyTo: ctx.Self(), Count: p.Count + 1})
				ctx.Assert(err == nil, "ping: send failed: %v", err)
			},
		},
	}

	return coyote.NewFlatMachineDescriptor("ping", handlers, nil, nil)
}

// pingPongTest is the TestFunc run by the run/replay commands: it creates a
// pong actor and a ping actor and kicks off the exchange. Both actors halt
// themselves once demoRounds is reached, so the iteration ends cleanly once
// every operation completes.
func pingPongTest(rt *coyote.Runtime) error {
	pongDesc, err := newPongDescriptor()
	if err != nil {
		return err
	}

	pongID, err := rt.CreateActor(pongDesc, "pong", nil, coyote.NilEventGroup)
	if err != nil {
		return err
	}

	pingDesc, err := newPingDescriptor()
	if err != nil {
		return err
	}

	pingID, err := rt.CreateActor(pingDesc, "ping", nil, coyote.NilEventGroup)
	if err != nil {
		return err
	}

	return rt.SendEvent(pingID, pongID, pingEvent{ReplyTo: pingID, Count: 0}, coyote.NilEventGroup)
}
