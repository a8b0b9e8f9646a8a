package netif

import "github.com/dmdmdm-nz/netifmon/internal/runtime"

// Subscribe returns a channel that first receives the current snapshot as
// InterfaceAdded events and then every live event. The returned function
// unsubscribes and closes the channel. A closed engine returns a closed
// channel.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	e.ensureEnumerated()

	e.mu.Lock()
	defer e.mu.Unlock()

	sub := runtime.NewSubQueue[Event](len(e.interfaces) + 8)
	if e.closed {
		sub.Close()
		return sub.Chan(), func() {}
	}

	// Snapshot and registration happen under the same lock as a commit, so
	// the subscriber sees every interface exactly once.
	for _, intf := range e.interfaces {
		sub.Enqueue(Event{Type: InterfaceAdded, Interface: intf.Clone()})
	}
	id := e.nextSubscriberID
	e.nextSubscriberID++
	e.subs[id] = sub
	sub.SetPaused(false)

	unsub := func() {
		e.mu.Lock()
		if q, ok := e.subs[id]; ok {
			delete(e.subs, id)
			q.Close()
		}
		e.mu.Unlock()
	}
	return sub.Chan(), unsub
}
