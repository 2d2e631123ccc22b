// internal/notify/notifier.go
package notify

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/tamzrod/installer-client/internal/bus"
	"github.com/tamzrod/installer-client/internal/variant"
)

// source is the exact contract the notifier uses from a proxy handle.
type source interface {
	Interface() string
	Subscribe(member string, ch chan<- bus.Signal) (func() error, error)
	Apply(changed map[string]variant.Value, invalidated []string)
}

// Event is one decoded change delivery. Either Err is set, or
// Changed/Invalidated carry the payload: a decode failure is forwarded,
// never dropped, so observers can resynchronize with a fresh read.
// Invalidated names were evicted from the bag and must be refetched.
type Event struct {
	Changed     map[string]variant.Value
	Invalidated []string
	Err         error
}

// WasInvalidated reports whether the event invalidated name.
func (e Event) WasInvalidated(name string) bool {
	for _, n := range e.Invalidated {
		if n == name {
			return true
		}
	}
	return false
}

// Callback receives change events in transport arrival order.
type Callback func(Event)

// Notifier fans one property-change signal stream out to zero or more
// observers. Observers register with OnChange and cancel with the
// returned func; cancellation is immediate, idempotent, and independent
// per observer. At most one delivery is in flight per observer.
type Notifier struct {
	src source

	mu     sync.Mutex
	order  []string
	subs   map[string]*subscription
	ch     chan bus.Signal
	done   chan struct{}
	cancel func() error
	closed bool
}

type subscription struct {
	mu        sync.Mutex
	cancelled bool
	cb        Callback
}

// deliver invokes the callback unless the subscription was cancelled.
// Holding mu for the whole delivery makes cancel synchronize with an
// in-flight delivery: once cancel returns, no further invocation.
func (s *subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cb(ev)
}

func (s *subscription) cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// New creates a notifier over one handle's change signal.
func New(src source) *Notifier {
	return &Notifier{
		src:  src,
		subs: make(map[string]*subscription),
	}
}

// OnChange registers a callback and returns its unsubscribe func.
// The underlying bus subscription is established on the first observer
// and kept until Close.
func (n *Notifier) OnChange(cb Callback) (func(), error) {
	if cb == nil {
		return nil, errors.New("notify: callback required")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, errors.New("notify: notifier closed")
	}

	if n.ch == nil {
		ch := make(chan bus.Signal, 16)
		cancel, err := n.src.Subscribe(bus.PropertiesChanged, ch)
		if err != nil {
			return nil, err
		}
		n.ch = ch
		n.done = make(chan struct{})
		n.cancel = cancel
		go n.dispatch(ch, n.done)
	}

	id := uuid.NewString()
	sub := &subscription{cb: cb}
	n.subs[id] = sub
	n.order = append(n.order, id)

	return func() { n.unsubscribe(id) }, nil
}

// unsubscribe transitions one subscription to its terminal state.
// Safe to call twice: the second call finds nothing.
func (n *Notifier) unsubscribe(id string) {
	n.mu.Lock()
	sub, ok := n.subs[id]
	if ok {
		delete(n.subs, id)
		for i, oid := range n.order {
			if oid == id {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
	n.mu.Unlock()

	if ok {
		// Blocks until an in-flight delivery (if any) completes.
		sub.cancel()
	}
}

// dispatch consumes signals in arrival order: decode once, merge into
// the handle's bag on success, then deliver to each observer in
// registration order. Never reorders, never drops except decode errors
// (forwarded as Event.Err) and payloads naming a foreign interface
// (another handle's traffic on a shared connection, skipped entirely:
// merging them would corrupt this handle's bag).
func (n *Notifier) dispatch(ch <-chan bus.Signal, done <-chan struct{}) {
	for {
		var sig bus.Signal
		select {
		case <-done:
			return
		case sig = <-ch:
		}

		iface, changed, invalidated, err := decodeChange(sig.Body)

		var ev Event
		if err != nil {
			ev = Event{Err: err}
		} else if iface != n.src.Interface() {
			continue
		} else {
			n.src.Apply(changed, invalidated)
			ev = Event{Changed: changed, Invalidated: invalidated}
		}

		n.mu.Lock()
		active := make([]*subscription, 0, len(n.order))
		for _, id := range n.order {
			active = append(active, n.subs[id])
		}
		n.mu.Unlock()

		for _, sub := range active {
			sub.deliver(ev)
		}
	}
}

// Close cancels the bus subscription and all observers.
func (n *Notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	cancel := n.cancel
	subs := make([]*subscription, 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.subs = make(map[string]*subscription)
	n.order = nil
	done := n.done
	n.mu.Unlock()

	for _, s := range subs {
		s.cancel()
	}

	var err error
	if cancel != nil {
		err = cancel()
	}
	if done != nil {
		close(done)
	}
	return err
}

// decodeChange decodes the change-signal payload: a struct whose first
// field names the originating interface, whose second is an array of
// (name, value) pairs, and whose optional third lists invalidated
// property names. Anything else is a DecodeError.
func decodeChange(body variant.Value) (string, map[string]variant.Value, []string, error) {
	fields, err := variant.AsStruct(body, 2)
	if err != nil {
		return "", nil, nil, err
	}

	iface, err := variant.AsString(fields[0])
	if err != nil {
		return "", nil, nil, err
	}

	pairs, err := variant.AsArray(fields[1])
	if err != nil {
		return "", nil, nil, err
	}

	changed := make(map[string]variant.Value, len(pairs))
	for _, p := range pairs {
		kv, err := variant.AsStruct(p, 2)
		if err != nil {
			return "", nil, nil, err
		}
		name, err := variant.AsString(kv[0])
		if err != nil {
			return "", nil, nil, err
		}
		changed[name] = kv[1]
	}

	var invalidated []string
	if len(fields) >= 3 {
		if invalidated, err = variant.AsStrings(fields[2]); err != nil {
			return "", nil, nil, err
		}
	}
	return iface, changed, invalidated, nil
}
