// internal/proxy/proxy.go
package proxy

import (
	"context"
	"errors"
	"sync"

	"github.com/tamzrod/installer-client/internal/bus"
	"github.com/tamzrod/installer-client/internal/variant"
)

// Handle is the local stand-in for one remote interface.
// All state (readiness, property bag) is owned by the handle and
// serialized through one mutex. Domain clients share a handle by
// reference and never touch each other's bags.
type Handle struct {
	bus   bus.Bus
	iface string

	mu      sync.Mutex
	state   State
	waitErr error
	props   map[string]variant.Value

	// pending is non-nil while one caller establishes readiness.
	// Concurrent waiters block on it without holding mu.
	pending chan struct{}
}

// New creates a handle for one interface. The handle starts Pending;
// nothing touches the bus until the first Wait.
func New(b bus.Bus, iface string) (*Handle, error) {
	if b == nil {
		return nil, errors.New("proxy: bus required")
	}
	if iface == "" {
		return nil, errors.New("proxy: interface name required")
	}
	return &Handle{bus: b, iface: iface}, nil
}

// Interface returns the remote interface name the handle stands in for.
func (h *Handle) Interface() string { return h.iface }

// State returns the current readiness state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Wait blocks until the remote object is introspected and its initial
// property set fetched, without blocking other concurrent callers.
// Exactly one bus round-trip establishes readiness; later calls on a
// ready handle return immediately. A failed Wait is cached and NOT
// retried here — Refresh is the explicit retry path.
func (h *Handle) Wait(ctx context.Context) error {
	h.mu.Lock()
	switch h.state {
	case StateReady:
		h.mu.Unlock()
		return nil
	case StateFailed:
		err := h.waitErr
		h.mu.Unlock()
		return err
	}

	if h.pending == nil {
		h.pending = make(chan struct{})
		// Establishment is shared by every waiter, so it must not die
		// with the first one: values flow through, cancellation does not.
		go h.establish(context.WithoutCancel(ctx))
	}
	done := h.pending
	h.mu.Unlock()

	select {
	case <-ctx.Done():
		// The caller abandons; establishment keeps running for others.
		return ctx.Err()
	case <-done:
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateFailed {
		return h.waitErr
	}
	return nil
}

// establish performs the single readiness round-trip.
func (h *Handle) establish(ctx context.Context) {
	err := h.bus.Introspect(ctx, h.iface)

	var props map[string]variant.Value
	if err == nil {
		props, err = h.bus.Properties(ctx, h.iface)
	}

	h.mu.Lock()
	if err != nil {
		h.state = StateFailed
		h.waitErr = &ConnectError{Interface: h.iface, Err: err}
	} else {
		h.state = StateReady
		h.props = props
	}
	done := h.pending
	h.pending = nil
	h.mu.Unlock()

	close(done)
}

// Refresh refetches the full property set. All-or-nothing: on failure
// the previous bag stays intact and the error surfaces as ConnectError.
// On a failed handle, Refresh is the explicit retry: success promotes
// the handle to Ready.
func (h *Handle) Refresh(ctx context.Context) error {
	props, err := h.bus.Properties(ctx, h.iface)
	if err != nil {
		return &ConnectError{Interface: h.iface, Err: err}
	}

	h.mu.Lock()
	h.props = props
	h.state = StateReady
	h.waitErr = nil
	h.mu.Unlock()
	return nil
}

// Property returns the cached tagged value of one property.
func (h *Handle) Property(name string) (variant.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.props[name]
	if !ok {
		return variant.Value{}, &NotFoundError{Interface: h.iface, Property: name}
	}
	return v, nil
}

// Apply merges changed properties into the bag and evicts invalidated
// ones. Called only from a successfully decoded change signal; never
// partial, never concurrent with reads (bag mutation goes through mu
// like everything else). An invalidated property must not linger with
// a stale value: the next read refetches instead.
func (h *Handle) Apply(changed map[string]variant.Value, invalidated []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.props == nil {
		h.props = make(map[string]variant.Value, len(changed))
	}
	for name, v := range changed {
		h.props[name] = v
	}
	for _, name := range invalidated {
		delete(h.props, name)
	}
}

// SetProperty writes one remote property. The local bag is NOT updated
// here: bag mutation happens only through a fetch or a decoded change
// signal, and the remote side confirms the write by signalling.
func (h *Handle) SetProperty(ctx context.Context, name string, value any) error {
	if err := h.bus.SetProperty(ctx, h.iface, name, value); err != nil {
		return &InvokeError{Interface: h.iface, Method: "Set(" + name + ")", Err: err}
	}
	return nil
}

// Invoke calls a remote method on the handle's interface.
func (h *Handle) Invoke(ctx context.Context, method string, args ...any) (variant.Value, error) {
	out, err := h.bus.Invoke(ctx, h.iface, method, args...)
	if err != nil {
		return variant.Value{}, &InvokeError{Interface: h.iface, Method: method, Err: err}
	}
	return out, nil
}

// Subscribe attaches ch to the handle's interface for one signal member.
func (h *Handle) Subscribe(member string, ch chan<- bus.Signal) (func() error, error) {
	return h.bus.Subscribe(h.iface, member, ch)
}
