package coyote

import "sync"

// receiveFilter describes an outstanding receive() call: the set of event
// types it accepts and, for each, an optional predicate that must also
// accept the event's payload for the receive to be satisfied. A nil
// predicate accepts unconditionally.
type receiveFilter struct {
	predicates map[string]func(Event) bool
	wildcard   bool
}

// accepts reports whether env satisfies this filter.
func (f *receiveFilter) accepts(env envelope) bool {
	if f.wildcard {
		return true
	}

	pred, ok := f.predicates[env.event.EventType()]
	if !ok {
		return false
	}

	if pred == nil {
		return true
	}

	return pred(env.event)
}

// Mailbox is the per-actor FIFO of pending events plus at-most-one raised
// event. It enforces invariants I1-I5:
//
//	I1: a raised event is consumed before any inbox event.
//	I2: no more than one outstanding receive filter exists at a time.
//	I3: a closed mailbox drops enqueues.
//	I4: events whose type is in the ignore set are discarded at dequeue.
//	I5: events whose type is in the defer set are skipped (left in place).
type Mailbox struct {
	mu sync.Mutex

	inbox  []envelope
	raised *envelope

	filter *receiveFilter

	closed bool
}

// NewMailbox creates an empty, open mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Enqueue appends env to the inbox. It returns false (I3) if the mailbox is
// closed, in which case the caller is responsible for drop handling.
func (m *Mailbox) Enqueue(env envelope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	m.inbox = append(m.inbox, env)

	return true
}

// Raise installs env as the single pending raised event, overwriting any
// previous raised event that was never consumed (state-machine invariant S1
// guarantees at most one raise happens per action invocation, so this should
// never actually overwrite a live raise in a well-formed client).
func (m *Mailbox) Raise(env envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.raised = &env
}

// DequeueResult is the outcome of a single dequeue attempt.
type DequeueResult struct {
	// Env is the chosen envelope. Valid only if Ok is true.
	Env envelope

	// Ok is true if an envelope was chosen.
	Ok bool

	// WasRaised is true if Env came from the raised slot rather than the
	// inbox.
	WasRaised bool
}

// Dequeue selects the next envelope to dispatch, per the handler-loop
// algorithm:
//
//  1. If a raised event is pending: if ignored, discard it; else take it.
//  2. Else scan the inbox in order: skip (retain) deferred events, discard
//     ignored events, take the first taken-eligible event.
//
// ignored and deferred are sets of event type names. Discarded ignored
// entries are removed from the mailbox entirely (dropped silently); deferred
// entries are left in place for a future dequeue once no longer deferred.
func (m *Mailbox) Dequeue(ignored, deferred map[string]bool) DequeueResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Step 1: the raised slot has absolute priority (I1).
	for m.raised != nil {
		env := *m.raised
		m.raised = nil

		if ignored[env.event.EventType()] {
			continue
		}

		return DequeueResult{Env: env, Ok: true, WasRaised: true}
	}

	// Step 2: scan the inbox, honoring defer (I5) and ignore (I4).
	for i := 0; i < len(m.inbox); i++ {
		env := m.inbox[i]
		typ := env.event.EventType()

		if deferred[typ] {
			continue
		}

		if ignored[typ] {
			m.inbox = append(m.inbox[:i], m.inbox[i+1:]...)
			i--

			continue
		}

		m.inbox = append(m.inbox[:i], m.inbox[i+1:]...)

		return DequeueResult{Env: env, Ok: true}
	}

	return DequeueResult{}
}

// InstallFilter installs a receive filter, enforcing I2 (at most one
// outstanding receive). It returns ErrOutstandingReceive if one is already
// installed.
func (m *Mailbox) InstallFilter(types []string, predicate func(Event) bool, wildcard bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.filter != nil {
		return ErrOutstandingReceive
	}

	f := &receiveFilter{predicates: make(map[string]func(Event) bool), wildcard: wildcard}
	for _, t := range types {
		f.predicates[t] = predicate
	}

	m.filter = f

	return nil
}

// TryConsumeForFilter scans the inbox (and raised slot) for an envelope
// matching the currently installed filter. If found, it removes and returns
// it, clears the filter, and reports true. Used both for the "already
// present when receive() is invoked" fast path and for matching newly
// enqueued events.
func (m *Mailbox) TryConsumeForFilter() (envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tryConsumeForFilterLocked()
}

func (m *Mailbox) tryConsumeForFilterLocked() (envelope, bool) {
	if m.filter == nil {
		return envelope{}, false
	}

	if m.raised != nil && m.filter.accepts(*m.raised) {
		env := *m.raised
		m.raised = nil
		m.filter = nil

		return env, true
	}

	for i, env := range m.inbox {
		if m.filter.accepts(env) {
			m.inbox = append(m.inbox[:i], m.inbox[i+1:]...)
			m.filter = nil

			return env, true
		}
	}

	return envelope{}, false
}

// HasOutstandingFilter reports whether a receive filter is currently
// installed.
func (m *Mailbox) HasOutstandingFilter() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.filter != nil
}

// ClearFilter removes any installed receive filter without consuming
// anything. Used when an actor halts while blocked on receive.
func (m *Mailbox) ClearFilter() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.filter = nil
}

// IsEmpty reports whether the mailbox has neither a raised event nor any
// inbox entries.
func (m *Mailbox) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.raised == nil && len(m.inbox) == 0
}

// PendingCount returns the number of envelopes currently held (raised slot
// plus inbox), used by computeStateHash.
func (m *Mailbox) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.inbox)
	if m.raised != nil {
		n++
	}

	return n
}

// Close marks the mailbox closed (I3) and returns every remaining envelope
// (raised slot first, then inbox order) for the caller to drain through the
// drop-notification path.
func (m *Mailbox) Close() []envelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.filter = nil

	var remaining []envelope
	if m.raised != nil {
		remaining = append(remaining, *m.raised)
		m.raised = nil
	}

	remaining = append(remaining, m.inbox...)
	m.inbox = nil

	return remaining
}

// IsClosed reports whether Close has been called.
func (m *Mailbox) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}
