package coyote

import (
	"testing"

	"pgregory.net/rapid"
)

// TestMailboxFIFOOrderingProperty verifies FIFO ordering and I4: for a
// generated number of events of one type, either all ignored or none,
// dequeuing to exhaustion yields exactly the non-ignored events in
// enqueue order.
func TestMailboxFIFOOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mb := NewMailbox()

		n := rapid.IntRange(1, 30).Draw(t, "n")
		ignoreAll := rapid.Bool().Draw(t, "ignoreAll")

		var want []int
		for i := 0; i < n; i++ {
			mb.Enqueue(envelope{event: testEvent{typ: "x", value: i}})
			if !ignoreAll {
				want = append(want, i)
			}
		}

		ignored := map[string]bool{}
		if ignoreAll {
			ignored["x"] = true
		}

		var got []int
		for {
			res := mb.Dequeue(ignored, nil)
			if !res.Ok {
				break
			}
			got = append(got, res.Env.event.(testEvent).value)
		}

		if len(got) != len(want) {
			t.Fatalf("got %d surviving events, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order mismatch at %d: got %d want %d", i, got[i], want[i])
			}
		}
	})
}

// TestMailboxDeferredEventsSurviveADequeuePassProperty verifies I5: an
// event whose type is in the defer set is never removed from the
// mailbox by Dequeue, no matter how many times it's scanned over.
func TestMailboxDeferredEventsSurviveADequeuePassProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mb := NewMailbox()
		mb.Enqueue(envelope{event: testEvent{typ: "later", value: 1}})

		passes := rapid.IntRange(1, 10).Draw(t, "passes")
		deferred := map[string]bool{"later": true}

		for i := 0; i < passes; i++ {
			res := mb.Dequeue(nil, deferred)
			if res.Ok {
				t.Fatalf("deferred event was dequeued on pass %d", i)
			}
		}

		res := mb.Dequeue(nil, nil)
		if !res.Ok || res.Env.event.(testEvent).value != 1 {
			t.Fatalf("deferred event was lost after %d deferred passes", passes)
		}
	})
}

// TestActorIdEqualityIsAnEquivalenceRelationProperty checks reflexivity,
// symmetry, and the cross-mode-never-equal rule hold for arbitrarily
// generated ids.
func TestActorIdEqualityIsAnEquivalenceRelationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		genID := func(label string) ActorId {
			if rapid.Bool().Draw(t, label+"-named") {
				return ActorId{typeName: "T", name: rapid.StringMatching(`[a-z]{1,8}`).Draw(t, label+"-name")}
			}
			return ActorId{typeName: "T", value: rapid.Uint64().Draw(t, label+"-value")}
		}

		a := genID("a")
		b := genID("b")

		if !a.Equal(a) {
			t.Fatalf("id %v not reflexively equal to itself", a)
		}
		if a.Equal(b) != b.Equal(a) {
			t.Fatalf("equality not symmetric for %v, %v", a, b)
		}

		aNamed := a.name != ""
		bNamed := b.name != ""
		if aNamed != bNamed && a.Equal(b) {
			t.Fatalf("cross-mode ids compared equal: %v, %v", a, b)
		}
	})
}

// TestComputeStateHashDeterministicProperty checks computeStateHash is a
// pure function of an actor's active-state stack and pending mailbox
// count: identical inputs always hash identically, and changing the
// pending count changes the hash.
func TestComputeStateHashDeterministicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		depth := rapid.IntRange(1, 5).Draw(t, "depth")
		stack := make([]*StateDescriptor, depth)
		for i := range stack {
			stack[i] = &StateDescriptor{Name: StateName(rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "state"))}
		}
		pending := rapid.IntRange(0, 3).Draw(t, "pending")

		mb1 := NewMailbox()
		for i := 0; i < pending; i++ {
			mb1.Enqueue(envelope{event: testEvent{typ: "p", value: i}})
		}
		a1 := &Actor{machine: &machineInstance{stack: stack}, mailbox: mb1}

		mb2 := NewMailbox()
		for i := 0; i < pending; i++ {
			mb2.Enqueue(envelope{event: testEvent{typ: "p", value: i}})
		}
		a2 := &Actor{machine: &machineInstance{stack: append([]*StateDescriptor{}, stack...)}, mailbox: mb2}

		h1 := computeStateHash(a1)
		h2 := computeStateHash(a2)
		if h1 != h2 {
			t.Fatalf("hash not deterministic for identical input: %d != %d", h1, h2)
		}

		mb3 := NewMailbox()
		for i := 0; i < pending+1; i++ {
			mb3.Enqueue(envelope{event: testEvent{typ: "p", value: i}})
		}
		a3 := &Actor{machine: &machineInstance{stack: stack}, mailbox: mb3}

		h3 := computeStateHash(a3)
		if h1 == h3 {
			t.Fatalf("hash did not change when pending count changed")
		}
	})
}
