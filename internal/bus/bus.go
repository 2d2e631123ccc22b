// internal/bus/bus.go
package bus

import (
	"context"

	"github.com/tamzrod/installer-client/internal/variant"
)

// Bus abstracts the object/property/signal operations a proxy handle
// needs. Handles and notifiers depend on this contract only; the real
// transport lives in the dbus subpackage, tests supply fakes.
// IMPORTANT: There must be NO other version of this interface anywhere.
type Bus interface {
	// Introspect checks that the remote object exposes the interface.
	// Readiness is mandatory: a transport without it is a configuration
	// error, not a default.
	Introspect(ctx context.Context, iface string) error

	// Properties fetches the full property set of the interface.
	Properties(ctx context.Context, iface string) (map[string]variant.Value, error)

	// SetProperty writes one property of the interface.
	SetProperty(ctx context.Context, iface, name string, value any) error

	// Invoke calls a method on the interface and returns its first
	// return value as a tagged value.
	Invoke(ctx context.Context, iface, method string, args ...any) (variant.Value, error)

	// Subscribe delivers signals of the interface's member to ch in
	// transport arrival order. The returned func cancels the match.
	Subscribe(iface, member string, ch chan<- Signal) (func() error, error)
}

// Signal is one bus signal as handed downstream.
// Body carries the raw tagged payload; decoding happens downstream.
type Signal struct {
	Interface string
	Member    string
	Body      variant.Value
}

// PropertiesChanged is the member name of the standard property-change
// signal every handle's notifier subscribes to.
const PropertiesChanged = "PropertiesChanged"
