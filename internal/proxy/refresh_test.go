// internal/proxy/refresh_test.go
package proxy

import (
	"context"
	"testing"
	"time"

	"github.com/tamzrod/installer-client/internal/variant"
)

func TestRefresher_RejectsBadConfig(t *testing.T) {
	fb := newFakeBus()
	h, err := New(fb, "org.example.Iface")
	if err != nil {
		t.Fatalf("New err=%v", err)
	}

	if _, err := NewRefresher(nil, time.Second); err == nil {
		t.Fatal("nil handle accepted")
	}
	if _, err := NewRefresher(h, 0); err == nil {
		t.Fatal("zero interval accepted")
	}
}

func TestRefresher_ReplacesBagEachCycle(t *testing.T) {
	fb := newFakeBus()
	fb.setProp("Version", variant.Int(1))

	h, err := New(fb, "org.example.Iface")
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	r, err := NewRefresher(h, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewRefresher err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan RefreshResult)
	go r.Run(ctx, out)

	res := <-out
	if res.Err != nil {
		t.Fatalf("cycle err=%v", res.Err)
	}
	if res.Interface != "org.example.Iface" {
		t.Fatalf("interface=%q", res.Interface)
	}

	fb.setProp("Version", variant.Int(2))
	<-out

	v, err := h.Property("Version")
	if err != nil {
		t.Fatalf("Property err=%v", err)
	}
	if n, _ := variant.AsInt(v); n != 2 {
		t.Fatalf("Version=%d want 2", n)
	}
}

func TestRefresher_ReportsFailureAndKeepsTicking(t *testing.T) {
	fb := newFakeBus()
	fb.setProp("Version", variant.Int(1))

	h, err := New(fb, "org.example.Iface")
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait err=%v", err)
	}

	r, err := NewRefresher(h, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewRefresher err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan RefreshResult)
	go r.Run(ctx, out)

	fb.setFailProperties(true)
	var sawFailure bool
	for i := 0; i < 10; i++ {
		if res := <-out; res.Err != nil {
			sawFailure = true
			break
		}
	}
	if !sawFailure {
		t.Fatal("failing fetch never reported")
	}

	// The bag survives failed cycles untouched.
	v, err := h.Property("Version")
	if err != nil {
		t.Fatalf("Property err=%v", err)
	}
	if n, _ := variant.AsInt(v); n != 1 {
		t.Fatalf("Version=%d want 1", n)
	}

	fb.setFailProperties(false)
	for i := 0; i < 10; i++ {
		if res := <-out; res.Err == nil {
			return
		}
	}
	t.Fatal("refresher never recovered")
}
