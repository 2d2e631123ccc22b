// internal/proxy/types.go
package proxy

import "fmt"

// State is the readiness state of a handle.
type State uint8

const (
	StatePending State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ConnectError reports an interface that could not be reached or
// introspected. Fatal for the operation; never retried implicitly.
type ConnectError struct {
	Interface string
	Err       error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("proxy: interface %s unreachable: %v", e.Interface, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// InvokeError reports a failed remote method call.
type InvokeError struct {
	Interface string
	Method    string
	Err       error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("proxy: call %s.%s failed: %v", e.Interface, e.Method, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// NotFoundError reports a property absent from the bag.
type NotFoundError struct {
	Interface string
	Property  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("proxy: property %s not found on %s", e.Property, e.Interface)
}
