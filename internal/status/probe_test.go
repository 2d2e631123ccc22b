// internal/status/probe_test.go
package status

import (
	"context"
	"errors"
	"testing"

	"github.com/tamzrod/installer-client/internal/bus"
	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/proxy"
	"github.com/tamzrod/installer-client/internal/variant"
)

type fakeBus struct {
	fail bool
}

func (f *fakeBus) Introspect(ctx context.Context, iface string) error {
	if f.fail {
		return errors.New("unreachable")
	}
	return nil
}

func (f *fakeBus) Properties(ctx context.Context, iface string) (map[string]variant.Value, error) {
	return map[string]variant.Value{}, nil
}

func (f *fakeBus) SetProperty(ctx context.Context, iface, name string, value any) error {
	return nil
}

func (f *fakeBus) Invoke(ctx context.Context, iface, method string, args ...any) (variant.Value, error) {
	return variant.Value{}, nil
}

func (f *fakeBus) Subscribe(iface, member string, ch chan<- bus.Signal) (func() error, error) {
	return func() error { return nil }, nil
}

func TestProbe_SortedAndComplete(t *testing.T) {
	services := map[string]cfg.ServiceConfig{
		"software": {Interface: "org.example.Software"},
		"storage":  {Interface: "org.example.Storage"},
		"iscsi":    {Interface: "org.example.ISCSI"},
	}

	var closed int
	open := func(svc cfg.ServiceConfig) (*proxy.Handle, func() error, error) {
		h, err := proxy.New(&fakeBus{fail: svc.Interface == "org.example.Storage"}, svc.Interface)
		if err != nil {
			t.Fatalf("proxy.New err=%v", err)
		}
		return h, func() error { closed++; return nil }, nil
	}

	snaps := Probe(context.Background(), services, open)
	if len(snaps) != 3 {
		t.Fatalf("snaps=%v", snaps)
	}

	wantOrder := []string{"iscsi", "software", "storage"}
	for i, k := range wantOrder {
		if snaps[i].Service != k {
			t.Fatalf("snap %d = %q want %q", i, snaps[i].Service, k)
		}
	}

	for _, s := range snaps {
		switch s.Service {
		case "storage":
			if s.State != proxy.StateFailed || s.Err == nil {
				t.Fatalf("storage snap=%+v", s)
			}
		default:
			if s.State != proxy.StateReady || s.Err != nil {
				t.Fatalf("%s snap=%+v", s.Service, s)
			}
		}
	}

	if closed != 3 {
		t.Fatalf("closed=%d want 3", closed)
	}
}

func TestProbe_OpenFailureReported(t *testing.T) {
	services := map[string]cfg.ServiceConfig{
		"software": {Interface: "org.example.Software"},
	}
	open := func(svc cfg.ServiceConfig) (*proxy.Handle, func() error, error) {
		return nil, nil, errors.New("no transport")
	}

	snaps := Probe(context.Background(), services, open)
	if len(snaps) != 1 {
		t.Fatalf("snaps=%v", snaps)
	}
	if snaps[0].State != proxy.StateFailed || snaps[0].Err == nil {
		t.Fatalf("snap=%+v", snaps[0])
	}
}
