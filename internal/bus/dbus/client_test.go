// internal/bus/dbus/client_test.go
package dbus

import (
	"fmt"
	"testing"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/tamzrod/installer-client/internal/bus"
	"github.com/tamzrod/installer-client/internal/variant"
)

const (
	testPath  = godbus.ObjectPath("/org/opensuse/Agama/Storage1")
	testIface = "org.opensuse.Agama.Storage1.Proposal"
)

func changeSignal(iface, name, value string) *godbus.Signal {
	return &godbus.Signal{
		Name: propsChangedName,
		Path: testPath,
		Body: []any{
			iface,
			map[string]godbus.Variant{name: godbus.MakeVariant(value)},
			[]string{},
		},
	}
}

func TestAcceptFunc_FiltersForeignTraffic(t *testing.T) {
	accept := acceptFunc(testPath, testIface, "PropertiesChanged", propsChangedName)

	if _, ok := accept(changeSignal(testIface, "LVM", "x")); !ok {
		t.Fatal("own signal rejected")
	}
	if _, ok := accept(changeSignal("org.opensuse.Agama.Software1", "SelectedBaseProduct", "leap")); ok {
		t.Fatal("foreign arg0 interface accepted")
	}
	if _, ok := accept(&godbus.Signal{Name: "org.example.Other.Member", Path: testPath}); ok {
		t.Fatal("wrong signal name accepted")
	}
	if _, ok := accept(&godbus.Signal{Name: propsChangedName, Path: "/other/path", Body: []any{testIface}}); ok {
		t.Fatal("wrong object path accepted")
	}
	if _, ok := accept(&godbus.Signal{Name: propsChangedName, Path: testPath}); ok {
		t.Fatal("empty body accepted")
	}
	if _, ok := accept(nil); ok {
		t.Fatal("nil signal accepted")
	}
}

func TestForward_PreservesOrderWithSlowConsumer(t *testing.T) {
	const n = 64

	// Small raw buffer: the forwarder must drain it eagerly even while
	// nothing reads the downstream channel.
	raw := make(chan *godbus.Signal, 4)
	ch := make(chan bus.Signal)
	done := make(chan struct{})
	defer close(done)

	go forward(raw, ch, done, acceptFunc(testPath, testIface, "PropertiesChanged", propsChangedName))

	sent := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			raw <- changeSignal(testIface, "Seq", fmt.Sprintf("%03d", i))
		}
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked: raw channel not drained")
	}

	for i := 0; i < n; i++ {
		select {
		case sig := <-ch:
			got := seqOf(t, sig.Body)
			want := fmt.Sprintf("%03d", i)
			if got != want {
				t.Fatalf("signal %d: seq=%q want %q", i, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("signal %d never delivered", i)
		}
	}
}

// seqOf digs the Seq property value out of a converted change payload.
func seqOf(t *testing.T, body variant.Value) string {
	t.Helper()
	fields, err := variant.AsStruct(body, 2)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	pairs, err := variant.AsArray(fields[1])
	if err != nil || len(pairs) != 1 {
		t.Fatalf("pairs=%v err=%v", pairs, err)
	}
	kv, err := variant.AsStruct(pairs[0], 2)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	s, err := variant.AsString(kv[1])
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	return s
}

func TestClose_SparesSharedConnection(t *testing.T) {
	// A client on the shared system bus must not tear the connection
	// down under other clients.
	c := &Client{shared: true}
	if err := c.Close(); err != nil {
		t.Fatalf("Close err=%v", err)
	}

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil Close err=%v", err)
	}
}

func TestFromWire_Mapping(t *testing.T) {
	// All integer widths collapse to the int tag.
	for _, in := range []any{byte(7), int16(7), uint16(7), int32(7), uint32(7), int64(7), uint64(7)} {
		v, err := fromWire(in)
		if err != nil {
			t.Fatalf("%T: %v", in, err)
		}
		if n, err := variant.AsInt(v); err != nil || n != 7 {
			t.Fatalf("%T: n=%d err=%v", in, n, err)
		}
	}

	// STRUCT arrives as []interface{}.
	v, err := fromWire([]any{"id", true})
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	if _, err := variant.AsStruct(v, 2); err != nil {
		t.Fatalf("struct tag: %v", err)
	}

	// Typed slices are arrays.
	v, err = fromWire([]string{"a", "b"})
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if got, err := variant.AsStrings(v); err != nil || len(got) != 2 {
		t.Fatalf("array: %v err=%v", got, err)
	}

	// Dicts become sorted (key, value) structs.
	v, err = fromWire(map[string]godbus.Variant{
		"b": godbus.MakeVariant("2"),
		"a": godbus.MakeVariant("1"),
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	entries, err := variant.AsArray(v)
	if err != nil || len(entries) != 2 {
		t.Fatalf("entries=%v err=%v", entries, err)
	}
	first, _ := variant.AsStruct(entries[0], 2)
	if k, _ := variant.AsString(first[0]); k != "a" {
		t.Fatalf("keys not sorted: first=%q", k)
	}

	// Unsupported wire types fail, never default.
	if _, err := fromWire(3.14); err == nil {
		t.Fatal("float accepted")
	}
}
