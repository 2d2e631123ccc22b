// internal/storage/client.go
package storage

import (
	"context"
	"fmt"

	"github.com/tamzrod/installer-client/internal/notify"
	"github.com/tamzrod/installer-client/internal/proxy"
	"github.com/tamzrod/installer-client/internal/variant"
)

// Property names of the proposal and actions interfaces.
const (
	propAvailableDevices = "AvailableDevices"
	propCandidateDevices = "CandidateDevices"
	propLVM              = "LVM"

	propAllActions = "All"
)

// Device is one block device eligible for installation.
type Device struct {
	ID    string
	Label string
}

// Proposal is one immutable snapshot of the storage proposal.
type Proposal struct {
	AvailableDevices []Device
	CandidateDevices []string
	LVM              bool
}

// Action is one planned storage action.
type Action struct {
	Text   string
	Subvol bool
	Delete bool
}

// ProposalClient reads the storage proposal service.
type ProposalClient struct {
	h *proxy.Handle
	n *notify.Notifier
}

func NewProposalClient(h *proxy.Handle) *ProposalClient {
	return &ProposalClient{h: h, n: notify.New(h)}
}

// GetProposal decodes the full proposal. A decode failure on any field
// fails the whole read; no partial snapshot is ever returned.
func (c *ProposalClient) GetProposal(ctx context.Context) (*Proposal, error) {
	if err := c.h.Wait(ctx); err != nil {
		return nil, err
	}

	avail, err := c.h.Property(propAvailableDevices)
	if err != nil {
		return nil, err
	}
	devices, err := decodeDevices(avail)
	if err != nil {
		return nil, err
	}

	cand, err := c.h.Property(propCandidateDevices)
	if err != nil {
		return nil, err
	}
	candidates, err := variant.AsStrings(cand)
	if err != nil {
		return nil, err
	}

	lvm, err := c.h.Property(propLVM)
	if err != nil {
		return nil, err
	}
	useLVM, err := variant.AsBool(lvm)
	if err != nil {
		return nil, err
	}

	return &Proposal{
		AvailableDevices: devices,
		CandidateDevices: candidates,
		LVM:              useLVM,
	}, nil
}

// OnChange delivers a fresh proposal whenever any proposal property
// changes. Decode failures are forwarded for the observer to resync.
func (c *ProposalClient) OnChange(cb func(*Proposal, error)) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("storage: callback required")
	}
	return c.n.OnChange(func(ev notify.Event) {
		if ev.Err != nil {
			cb(nil, ev.Err)
			return
		}
		ctx := context.Background()
		// Invalidated names were evicted from the bag; refetch before
		// re-reading the snapshot.
		if len(ev.Invalidated) > 0 {
			if err := c.h.Refresh(ctx); err != nil {
				cb(nil, err)
				return
			}
		}
		cb(c.GetProposal(ctx))
	})
}

func (c *ProposalClient) Close() error {
	return c.n.Close()
}

// decodeDevices decodes an array of (id, label) tuples.
func decodeDevices(v variant.Value) ([]Device, error) {
	elems, err := variant.AsArray(v)
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(elems))
	for _, e := range elems {
		fields, err := variant.AsStruct(e, 2)
		if err != nil {
			return nil, err
		}
		id, err := variant.AsString(fields[0])
		if err != nil {
			return nil, err
		}
		label, err := variant.AsString(fields[1])
		if err != nil {
			return nil, err
		}
		devices = append(devices, Device{ID: id, Label: label})
	}
	return devices, nil
}

// ActionsClient reads the planned storage actions.
type ActionsClient struct {
	h *proxy.Handle
	n *notify.Notifier
}

func NewActionsClient(h *proxy.Handle) *ActionsClient {
	return &ActionsClient{h: h, n: notify.New(h)}
}

// GetActions decodes the action list. Each element is a struct whose
// Text, Subvol and Delete fields arrive variant-wrapped and must be
// unwrapped through the codec.
func (c *ActionsClient) GetActions(ctx context.Context) ([]Action, error) {
	if err := c.h.Wait(ctx); err != nil {
		return nil, err
	}

	prop, err := c.h.Property(propAllActions)
	if err != nil {
		return nil, err
	}

	elems, err := variant.AsArray(prop)
	if err != nil {
		return nil, err
	}

	actions := make([]Action, 0, len(elems))
	for _, e := range elems {
		fields, err := variant.AsStruct(e, 3)
		if err != nil {
			return nil, err
		}
		text, err := variant.AsString(fields[0])
		if err != nil {
			return nil, err
		}
		subvol, err := variant.AsBool(fields[1])
		if err != nil {
			return nil, err
		}
		del, err := variant.AsBool(fields[2])
		if err != nil {
			return nil, err
		}
		actions = append(actions, Action{Text: text, Subvol: subvol, Delete: del})
	}
	return actions, nil
}

// OnChange delivers a fresh action list on every change signal.
func (c *ActionsClient) OnChange(cb func([]Action, error)) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("storage: callback required")
	}
	return c.n.OnChange(func(ev notify.Event) {
		if ev.Err != nil {
			cb(nil, ev.Err)
			return
		}
		invalidated := ev.WasInvalidated(propAllActions)
		if _, ok := ev.Changed[propAllActions]; !ok && !invalidated {
			return
		}
		ctx := context.Background()
		if invalidated {
			if err := c.h.Refresh(ctx); err != nil {
				cb(nil, err)
				return
			}
		}
		cb(c.GetActions(ctx))
	})
}

func (c *ActionsClient) Close() error {
	return c.n.Close()
}
