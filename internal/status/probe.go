// internal/status/probe.go
package status

import (
	"context"
	"sort"

	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/proxy"
)

// Opener builds a handle for one configured service and returns the
// transport closer.
type Opener func(cfg.ServiceConfig) (*proxy.Handle, func() error, error)

// Probe waits on every configured service once and reports the outcome
// per service, sorted by service key. A service that cannot be reached
// is reported, never skipped.
func Probe(ctx context.Context, services map[string]cfg.ServiceConfig, open Opener) []Snapshot {
	keys := make([]string, 0, len(services))
	for k := range services {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snaps := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		svc := services[k]
		snaps = append(snaps, probeOne(ctx, k, svc, open))
	}
	return snaps
}

func probeOne(ctx context.Context, key string, svc cfg.ServiceConfig, open Opener) Snapshot {
	snap := Snapshot{Service: key, Interface: svc.Interface}

	h, closer, err := open(svc)
	if err != nil {
		snap.State = proxy.StateFailed
		snap.Err = err
		return snap
	}
	defer closer()

	snap.Err = h.Wait(ctx)
	snap.State = h.State()
	return snap
}
