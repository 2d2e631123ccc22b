// internal/progress/client.go
package progress

import (
	"context"
	"fmt"

	"github.com/tamzrod/installer-client/internal/notify"
	"github.com/tamzrod/installer-client/internal/proxy"
	"github.com/tamzrod/installer-client/internal/variant"
)

const propProgress = "Progress"

// Progress is one immutable snapshot of the backend's progress report.
type Progress struct {
	Message string
	Current int64
	Total   int64
}

// Client reads the progress-reporting service. It consumes the same
// handle/notifier machinery as the resource clients.
type Client struct {
	h *proxy.Handle
	n *notify.Notifier
}

func New(h *proxy.Handle) *Client {
	return &Client{h: h, n: notify.New(h)}
}

// GetProgress decodes the variant-wrapped (message, current, total)
// progress property.
func (c *Client) GetProgress(ctx context.Context) (*Progress, error) {
	if err := c.h.Wait(ctx); err != nil {
		return nil, err
	}

	prop, err := c.h.Property(propProgress)
	if err != nil {
		return nil, err
	}
	return decodeProgress(prop)
}

// OnProgressChange delivers a decoded snapshot on every progress change.
// Decode failures are forwarded so the observer can resync.
func (c *Client) OnProgressChange(cb func(*Progress, error)) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("progress: callback required")
	}
	return c.n.OnChange(func(ev notify.Event) {
		if ev.Err != nil {
			cb(nil, ev.Err)
			return
		}
		if ev.WasInvalidated(propProgress) {
			ctx := context.Background()
			if err := c.h.Refresh(ctx); err != nil {
				cb(nil, err)
				return
			}
			cb(c.GetProgress(ctx))
			return
		}
		v, ok := ev.Changed[propProgress]
		if !ok {
			return
		}
		cb(decodeProgress(v))
	})
}

func (c *Client) Close() error {
	return c.n.Close()
}

func decodeProgress(v variant.Value) (*Progress, error) {
	fields, err := variant.AsStruct(v, 3)
	if err != nil {
		return nil, err
	}

	var p Progress
	if p.Message, err = variant.AsString(fields[0]); err != nil {
		return nil, err
	}
	if p.Current, err = variant.AsInt(fields[1]); err != nil {
		return nil, err
	}
	if p.Total, err = variant.AsInt(fields[2]); err != nil {
		return nil, err
	}
	return &p, nil
}
