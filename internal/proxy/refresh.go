// internal/proxy/refresh.go
package proxy

import (
	"context"
	"errors"
	"time"
)

// RefreshResult is the outcome of one refresh cycle.
type RefreshResult struct {
	Interface string
	At        time.Time
	Err       error
}

// Refresher is a dumb, clock-driven property refetcher. It is the
// fallback for backends that do not signal changes: each tick replaces
// the handle's bag through Refresh, all-or-nothing.
type Refresher struct {
	h        *Handle
	interval time.Duration
}

// NewRefresher creates a refresher with immutable config.
func NewRefresher(h *Handle, interval time.Duration) (*Refresher, error) {
	if h == nil {
		return nil, errors.New("proxy: handle required")
	}
	if interval <= 0 {
		return nil, errors.New("proxy: refresh interval must be > 0")
	}
	return &Refresher{h: h, interval: interval}, nil
}

// Run starts the ticker loop and emits a result per cycle.
// One goroutine per handle. No overlap. No retries.
func (r *Refresher) Run(ctx context.Context, out chan<- RefreshResult) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := RefreshResult{Interface: r.h.Interface(), At: time.Now()}
			res.Err = r.h.Refresh(ctx)
			select {
			case <-ctx.Done():
				return
			case out <- res:
			}
		}
	}
}
