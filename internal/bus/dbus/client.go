// internal/bus/dbus/client.go
package dbus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/tamzrod/installer-client/internal/bus"
	"github.com/tamzrod/installer-client/internal/variant"
)

const (
	propsInterface    = "org.freedesktop.DBus.Properties"
	propsChangedName  = propsInterface + ".PropertiesChanged"
	introspectableGet = "org.freedesktop.DBus.Introspectable.Introspect"
)

// Client implements bus.Bus over D-Bus for one remote object.
// This adapter is shape-only: it moves tagged values across the wire
// and never interprets them.
type Client struct {
	conn    *godbus.Conn
	dest    string
	path    godbus.ObjectPath
	timeout time.Duration

	// shared marks the process-wide system bus connection, which must
	// survive this client's Close.
	shared bool
}

// Config is minimal transport config.
type Config struct {
	// Address is a D-Bus address string. Empty means the system bus.
	Address     string
	Destination string
	Path        string
	Timeout     time.Duration
}

// New creates a connected client for one object path.
func New(cfg Config) (*Client, error) {
	if cfg.Destination == "" {
		return nil, errors.New("dbus client: destination required")
	}
	if cfg.Path == "" {
		return nil, errors.New("dbus client: object path required")
	}

	var conn *godbus.Conn
	var err error
	shared := cfg.Address == ""
	if shared {
		conn, err = godbus.SystemBus()
	} else {
		conn, err = godbus.Connect(cfg.Address)
	}
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:    conn,
		dest:    cfg.Destination,
		path:    godbus.ObjectPath(cfg.Path),
		timeout: cfg.Timeout,
		shared:  shared,
	}, nil
}

// Close closes the bus connection, unless it is the shared system bus:
// other clients in the process ride the same connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil || c.shared {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ---- bus.Bus interface ----

// Introspect verifies the object exposes iface. Readiness is mandatory;
// an object that cannot be introspected is unreachable, not defaulted.
func (c *Client) Introspect(ctx context.Context, iface string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	obj := c.conn.Object(c.dest, c.path)
	var xml string
	if err := obj.CallWithContext(ctx, introspectableGet, 0).Store(&xml); err != nil {
		return err
	}
	if !strings.Contains(xml, fmt.Sprintf("interface name=%q", iface)) {
		return fmt.Errorf("dbus client: object %s does not expose %s", c.path, iface)
	}
	return nil
}

func (c *Client) Properties(ctx context.Context, iface string) (map[string]variant.Value, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	obj := c.conn.Object(c.dest, c.path)
	var raw map[string]godbus.Variant
	if err := obj.CallWithContext(ctx, propsInterface+".GetAll", 0, iface).Store(&raw); err != nil {
		return nil, err
	}

	out := make(map[string]variant.Value, len(raw))
	for name, v := range raw {
		tagged, err := fromWire(v.Value())
		if err != nil {
			return nil, fmt.Errorf("dbus client: property %s: %w", name, err)
		}
		out[name] = tagged
	}
	return out, nil
}

func (c *Client) SetProperty(ctx context.Context, iface, name string, value any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	obj := c.conn.Object(c.dest, c.path)
	call := obj.CallWithContext(ctx, propsInterface+".Set", 0, iface, name, godbus.MakeVariant(value))
	return call.Err
}

func (c *Client) Invoke(ctx context.Context, iface, method string, args ...any) (variant.Value, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	obj := c.conn.Object(c.dest, c.path)
	call := obj.CallWithContext(ctx, iface+"."+method, 0, args...)
	if call.Err != nil {
		return variant.Value{}, call.Err
	}
	if len(call.Body) == 0 {
		return variant.Value{}, nil
	}
	return fromWire(call.Body[0])
}

// Subscribe matches signals for (iface, member) and forwards them to ch
// in arrival order. The special member PropertiesChanged is matched on
// the standard properties interface with iface as its first argument.
func (c *Client) Subscribe(iface, member string, ch chan<- bus.Signal) (func() error, error) {
	var opts []godbus.MatchOption
	var wantName string

	if member == "PropertiesChanged" {
		opts = []godbus.MatchOption{
			godbus.WithMatchInterface(propsInterface),
			godbus.WithMatchMember(member),
			godbus.WithMatchObjectPath(c.path),
			godbus.WithMatchArg(0, iface),
		}
		wantName = propsChangedName
	} else {
		opts = []godbus.MatchOption{
			godbus.WithMatchInterface(iface),
			godbus.WithMatchMember(member),
			godbus.WithMatchObjectPath(c.path),
		}
		wantName = iface + "." + member
	}

	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return nil, err
	}

	raw := make(chan *godbus.Signal, 16)
	c.conn.Signal(raw)

	done := make(chan struct{})
	go forward(raw, ch, done, acceptFunc(c.path, iface, member, wantName))

	cancel := func() error {
		close(done)
		c.conn.RemoveSignal(raw)
		return c.conn.RemoveMatchSignal(opts...)
	}
	return cancel, nil
}

// acceptFunc filters and converts raw signals for one subscription.
// The raw channel sees every matched signal on the connection, so the
// filter must reject other subscriptions' traffic: wrong name, wrong
// path, and for property changes a foreign arg0 interface.
func acceptFunc(path godbus.ObjectPath, iface, member, wantName string) func(*godbus.Signal) (bus.Signal, bool) {
	return func(s *godbus.Signal) (bus.Signal, bool) {
		if s == nil || s.Name != wantName || s.Path != path {
			return bus.Signal{}, false
		}
		if wantName == propsChangedName {
			if len(s.Body) == 0 {
				return bus.Signal{}, false
			}
			if arg0, ok := s.Body[0].(string); !ok || arg0 != iface {
				return bus.Signal{}, false
			}
		}
		body, err := signalBody(s)
		if err != nil {
			// Shape the failure as an unknown tag so the notifier
			// can forward it as a decode error.
			body = variant.Value{}
		}
		return bus.Signal{Interface: iface, Member: member, Body: body}, true
	}
}

// forward drains raw eagerly into an unbounded in-order queue and
// replays it to ch. The raw channel must never fill: once it does, the
// connection's signal handler falls back to one goroutine per signal
// and arrival order is lost. A slow observer therefore queues here
// instead of backing up into the transport.
func forward(raw <-chan *godbus.Signal, ch chan<- bus.Signal, done <-chan struct{}, accept func(*godbus.Signal) (bus.Signal, bool)) {
	var queue []bus.Signal
	for {
		var out chan<- bus.Signal
		var head bus.Signal
		if len(queue) > 0 {
			out = ch
			head = queue[0]
		}

		select {
		case <-done:
			return
		case s, ok := <-raw:
			if !ok {
				for _, sig := range queue {
					select {
					case <-done:
						return
					case ch <- sig:
					}
				}
				return
			}
			if sig, ok := accept(s); ok {
				queue = append(queue, sig)
			}
		case out <- head:
			queue = queue[1:]
		}
	}
}

// signalBody converts a signal's argument list into one tagged struct.
func signalBody(s *godbus.Signal) (variant.Value, error) {
	fields := make([]variant.Value, len(s.Body))
	for i, arg := range s.Body {
		v, err := fromWire(arg)
		if err != nil {
			return variant.Value{}, err
		}
		fields[i] = v
	}
	return variant.Struct(fields...), nil
}

// ---- wire conversion (pure) ----

// fromWire converts a decoded D-Bus value into a tagged value.
//
// Mapping: all integer widths collapse to the int tag; STRUCT arrives
// from the wire as []interface{} and becomes the struct tag; every other
// slice is the array tag; DICTs become arrays of two-field structs with
// keys sorted, so conversion stays referentially stable.
func fromWire(in any) (variant.Value, error) {
	switch v := in.(type) {
	case string:
		return variant.String(v), nil
	case bool:
		return variant.Bool(v), nil
	case byte:
		return variant.Int(int64(v)), nil
	case int16:
		return variant.Int(int64(v)), nil
	case uint16:
		return variant.Int(int64(v)), nil
	case int32:
		return variant.Int(int64(v)), nil
	case uint32:
		return variant.Int(int64(v)), nil
	case int64:
		return variant.Int(v), nil
	case uint64:
		return variant.Int(int64(v)), nil
	case godbus.ObjectPath:
		return variant.String(string(v)), nil
	case godbus.Variant:
		inner, err := fromWire(v.Value())
		if err != nil {
			return variant.Value{}, err
		}
		return variant.Wrap(inner), nil
	case []interface{}:
		fields := make([]variant.Value, len(v))
		for i, e := range v {
			f, err := fromWire(e)
			if err != nil {
				return variant.Value{}, err
			}
			fields[i] = f
		}
		return variant.Struct(fields...), nil
	}

	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]variant.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e, err := fromWire(rv.Index(i).Interface())
			if err != nil {
				return variant.Value{}, err
			}
			elems[i] = e
		}
		return variant.Array(elems...), nil

	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		entries := make([]variant.Value, 0, len(keys))
		for _, k := range keys {
			kv, err := fromWire(k.Interface())
			if err != nil {
				return variant.Value{}, err
			}
			vv, err := fromWire(rv.MapIndex(k).Interface())
			if err != nil {
				return variant.Value{}, err
			}
			entries = append(entries, variant.Struct(kv, vv))
		}
		return variant.Array(entries...), nil
	}

	return variant.Value{}, fmt.Errorf("dbus client: unsupported wire type %T", in)
}
